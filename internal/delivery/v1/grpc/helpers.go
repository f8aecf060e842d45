package grpc

import (
	"context"
	"errors"
	"strconv"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrShopRequired),
		errors.Is(err, e.ErrProductIDRequired),
		errors.Is(err, e.ErrInvalidProductID),
		errors.Is(err, e.ErrInvalidLimit),
		errors.Is(err, e.ErrStatusBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrShopNotFound):
		return status.Error(codes.NotFound, e.ErrShopNotFound.Error())
	case errors.Is(err, e.ErrSyncInProgress):
		return status.Error(codes.Aborted, e.ErrSyncInProgress.Error())
	case errors.Is(err, e.ErrCatalogFetch), errors.Is(err, e.ErrModelUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

// intField принимает как число, так и строку: клиенты на JSON часто передают limit строкой.
func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, nil
	}

	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if n != float64(int(n)) {
			return 0, e.ErrInvalidLimit
		}
		return int(n), nil
	case *structpb.Value_StringValue:
		if k.StringValue == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(k.StringValue)
		if err != nil {
			return 0, errors.Join(e.ErrInvalidLimit, err)
		}
		return n, nil
	case *structpb.Value_NullValue:
		return 0, nil
	default:
		return 0, e.ErrInvalidLimit
	}
}
