package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/DRSN-tech/cartwhisper/internal/cfg"
	"github.com/DRSN-tech/cartwhisper/internal/domain"
	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeRecUC struct {
	lastReq *usecase.GetRecommendationsReq
	err     error
}

func (f *fakeRecUC) GetRecommendations(_ context.Context, req *usecase.GetRecommendationsReq) (*usecase.GetRecommendationsRes, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.GetRecommendationsRes{
		ProductID: "gid://shopify/Product/1",
		Recommendations: []usecase.RecommendationItem{
			{ID: "gid://shopify/Product/3", Title: "SockC", Price: decimal.RequireFromString("15"), Similarity: 0.8},
			{ID: "gid://shopify/Product/4", Title: "SockD", Price: decimal.RequireFromString("12"), Similarity: 0.7},
		},
		Source: usecase.SourceCache,
	}, nil
}

type fakeSyncUC struct {
	err error
}

func (f *fakeSyncUC) Sync(_ context.Context, req *usecase.SyncReq) (*usecase.SyncRes, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.SyncRes{
		Success: true,
		RunID:   "run-9",
		Plan:    "starter",
		Stats:   domain.SyncStats{ProductsProcessed: 4, ReasoningErrors: 1},
	}, nil
}

func startServer(t *testing.T, rec *fakeRecUC, sync *fakeSyncUC) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(&cfg.GRPCConfig{NetworkMode: "tcp"}, logger.NewNop())
	srv.RegisterServices(rec, sync)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGetRecommendationsOverGRPC(t *testing.T) {
	rec := &fakeRecUC{}
	conn := startServer(t, rec, &fakeSyncUC{})

	req, _ := structpb.NewStruct(map[string]any{"shop": "A.myshopify.com", "product_id": "1", "limit": 2})
	res := &structpb.Struct{}
	if err := conn.Invoke(context.Background(), GetRecommendationsMethod, req, res); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if rec.lastReq.Shop != "a.myshopify.com" || rec.lastReq.Limit != 2 || rec.lastReq.ProductID != "1" {
		t.Errorf("request = %+v", rec.lastReq)
	}

	items := res.GetFields()["recommendations"].GetListValue().GetValues()
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	first := items[0].GetStructValue().GetFields()
	if first["title"].GetStringValue() != "SockC" || first["price"].GetStringValue() != "15.00" {
		t.Errorf("first item = %v", first)
	}
	if res.GetFields()["source"].GetStringValue() != usecase.SourceCache {
		t.Errorf("source = %v", res.GetFields()["source"])
	}
}

func TestGetRecommendationsStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		req  map[string]any
		err  error
		code codes.Code
	}{
		{name: "fractional limit", req: map[string]any{"shop": "a", "product_id": "1", "limit": 1.5}, code: codes.InvalidArgument},
		{name: "string limit", req: map[string]any{"shop": "a", "product_id": "1", "limit": "x"}, code: codes.InvalidArgument},
		{name: "usecase validation", req: map[string]any{"product_id": "1"}, err: e.ErrShopRequired, code: codes.InvalidArgument},
		{name: "internal", req: map[string]any{"shop": "a", "product_id": "1"}, err: context.Canceled, code: codes.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := startServer(t, &fakeRecUC{err: tt.err}, &fakeSyncUC{})

			req, _ := structpb.NewStruct(tt.req)
			err := conn.Invoke(context.Background(), GetRecommendationsMethod, req, &structpb.Struct{})
			if status.Code(err) != tt.code {
				t.Errorf("code = %v, want %v (%v)", status.Code(err), tt.code, err)
			}
		})
	}
}

func TestSyncOverGRPC(t *testing.T) {
	conn := startServer(t, &fakeRecUC{}, &fakeSyncUC{})

	req, _ := structpb.NewStruct(map[string]any{"shop": "a.myshopify.com"})
	res := &structpb.Struct{}
	if err := conn.Invoke(context.Background(), SyncMethod, req, res); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	fields := res.GetFields()
	if !fields["success"].GetBoolValue() || fields["run_id"].GetStringValue() != "run-9" {
		t.Errorf("response = %v", fields)
	}
	stats := fields["stats"].GetStructValue().GetFields()
	if stats["products_processed"].GetNumberValue() != 4 || stats["reasoning_errors"].GetNumberValue() != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestSyncNotFound(t *testing.T) {
	conn := startServer(t, &fakeRecUC{}, &fakeSyncUC{err: e.Wrap("SyncUseCase.Sync", e.ErrShopNotFound)})

	req, _ := structpb.NewStruct(map[string]any{"shop": "missing.myshopify.com"})
	err := conn.Invoke(context.Background(), SyncMethod, req, &structpb.Struct{})
	if status.Code(err) != codes.NotFound {
		t.Errorf("code = %v, want NotFound", status.Code(err))
	}
}
