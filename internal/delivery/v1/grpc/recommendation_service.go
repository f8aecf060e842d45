package grpc

import (
	"context"

	"github.com/DRSN-tech/cartwhisper/internal/usecase"
	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName — имя gRPC-сервиса. Сообщения передаются как google.protobuf.Struct:
//
//	GetRecommendations: {"shop", "product_id", "limit"} -> {"product_id", "source", "recommendations": [...]}
//	Sync:               {"shop"} -> {"success", "message", "run_id", "plan", "stats", "recommendation_error"}
const ServiceName = "cartwhisper.v1.RecommendationService"

const (
	GetRecommendationsMethod = "/" + ServiceName + "/GetRecommendations"
	SyncMethod               = "/" + ServiceName + "/Sync"
)

type RecommendationServiceServer interface {
	GetRecommendations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Sync(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var RecommendationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecommendationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetRecommendations", Handler: unaryHandler(GetRecommendationsMethod, RecommendationServiceServer.GetRecommendations)},
		{MethodName: "Sync", Handler: unaryHandler(SyncMethod, RecommendationServiceServer.Sync)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cartwhisper/v1/recommendation.proto",
}

func unaryHandler(
	fullMethod string,
	call func(RecommendationServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RecommendationServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RecommendationServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type RecommendationService struct {
	recUC  usecase.RecommendationUC
	syncUC usecase.SyncUC
	logger logger.Logger
}

func NewRecommendationService(recUC usecase.RecommendationUC, syncUC usecase.SyncUC, logger logger.Logger) *RecommendationService {
	return &RecommendationService{recUC: recUC, syncUC: syncUC, logger: logger}
}

func (g *RecommendationService) GetRecommendations(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.GetRecommendations"

	limit, err := intField(req, "limit")
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	res, err := g.recUC.GetRecommendations(ctx, usecase.NewGetRecommendationsReq(
		stringField(req, "shop"),
		stringField(req, "product_id"),
		limit,
	))
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	out, err := structpb.NewStruct(map[string]any{
		"product_id":      res.ProductID,
		"source":          res.Source,
		"recommendations": toStructItems(res.Recommendations),
	})
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}
	return out, nil
}

func (g *RecommendationService) Sync(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc.Sync"

	res, err := g.syncUC.Sync(ctx, usecase.NewSyncReq(stringField(req, "shop")))
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	stats := make(map[string]any)
	for k, v := range res.Stats.Map() {
		stats[k] = v
	}

	out, err := structpb.NewStruct(map[string]any{
		"success":              res.Success,
		"message":              res.Message,
		"run_id":               res.RunID,
		"plan":                 res.Plan,
		"stats":                stats,
		"recommendation_error": res.RecommendationError,
		"snapshot_key":         res.SnapshotKey,
	})
	if err != nil {
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}
	return out, nil
}

func toStructItems(items []usecase.RecommendationItem) []any {
	res := make([]any, len(items))
	for i, it := range items {
		res[i] = map[string]any{
			"id":         it.ID,
			"title":      it.Title,
			"price":      it.Price.StringFixed(2),
			"image":      it.Image,
			"similarity": it.Similarity,
			"reasoning":  it.Reasoning,
		}
	}

	return res
}
