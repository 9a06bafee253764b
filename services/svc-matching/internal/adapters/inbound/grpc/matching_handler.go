package grpc

import (
	"context"
	"errors"

	"github.com/architeacher/logistics/pkg/circuitbreaker"
	"github.com/architeacher/logistics/services/svc-matching/internal/adapters/wire"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/architeacher/logistics/services/svc-matching/internal/usecases"
	"github.com/architeacher/logistics/services/svc-matching/internal/usecases/queries"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const MatchingServiceName = "logistics.matching.v1.MatchingService"

// MatchingServiceServer is the server side of MatchingService. Every method
// takes and returns a google.protobuf.Struct.
type MatchingServiceServer interface {
	MatchFleet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	MatchOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ExplainFilter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var MatchingServiceDesc = grpc.ServiceDesc{
	ServiceName: MatchingServiceName,
	HandlerType: (*MatchingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("MatchFleet", MatchingServiceServer.MatchFleet),
		unaryMethod("MatchOrders", MatchingServiceServer.MatchOrders),
		unaryMethod("ListOrders", MatchingServiceServer.ListOrders),
		unaryMethod("ExplainFilter", MatchingServiceServer.ExplainFilter),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "logistics/matching/v1/matching.proto",
}

func RegisterMatchingServiceServer(registrar grpc.ServiceRegistrar, srv MatchingServiceServer) {
	registrar.RegisterService(&MatchingServiceDesc, srv)
}

func unaryMethod(
	name string,
	call func(MatchingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) grpc.MethodDesc {
	fullMethod := "/" + MatchingServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			if interceptor == nil {
				return call(srv.(MatchingServiceServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(MatchingServiceServer), ctx, req.(*structpb.Struct))
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}

type MatchingHandler struct {
	app *usecases.Application
}

func NewMatchingHandler(app *usecases.Application) *MatchingHandler {
	return &MatchingHandler{app: app}
}

func (h *MatchingHandler) MatchFleet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter, err := toDomainFilter(req)
	if err != nil {
		return nil, toGRPCError(err)
	}

	fleet, err := h.app.Queries.MatchTransports.Execute(ctx, queries.MatchTransportsQuery{Filter: filter})
	if err != nil {
		return nil, toGRPCError(err)
	}

	resp, err := wire.EncodeFleet(fleet)
	if err != nil {
		return nil, toGRPCError(err)
	}

	return resp, nil
}

func (h *MatchingHandler) MatchOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rawID := req.GetFields()[fieldTransportID].GetStringValue()
	if rawID == "" {
		return nil, status.Error(codes.InvalidArgument, "transportId is required")
	}

	id, err := model.ParseTransportID(rawID)
	if err != nil {
		return nil, toGRPCError(err)
	}

	filter, err := toDomainFilter(req)
	if err != nil {
		return nil, toGRPCError(err)
	}

	page, err := toDomainPage(req)
	if err != nil {
		return nil, toGRPCError(err)
	}

	list, err := h.app.Queries.MatchOrders.Execute(ctx, queries.MatchOrdersQuery{
		TransportID: id,
		Filter:      filter,
		Page:        page,
	})
	if err != nil {
		return nil, toGRPCError(err)
	}

	resp, err := wire.EncodeOrderList(list)
	if err != nil {
		return nil, toGRPCError(err)
	}

	return resp, nil
}

func (h *MatchingHandler) ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter, err := toDomainFilter(req)
	if err != nil {
		return nil, toGRPCError(err)
	}

	page, err := toDomainPage(req)
	if err != nil {
		return nil, toGRPCError(err)
	}

	sorting, err := toDomainSorting(req)
	if err != nil {
		return nil, toGRPCError(err)
	}

	list, err := h.app.Queries.ListOrders.Execute(ctx, queries.ListOrdersQuery{
		Filter:  filter,
		Page:    page,
		Sorting: sorting,
	})
	if err != nil {
		return nil, toGRPCError(err)
	}

	resp, err := wire.EncodeOrderList(list)
	if err != nil {
		return nil, toGRPCError(err)
	}

	return resp, nil
}

func (h *MatchingHandler) ExplainFilter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entity := model.Entity(req.GetFields()[fieldEntity].GetStringValue())
	if entity == "" {
		return nil, status.Error(codes.InvalidArgument, "entity is required")
	}

	filter, err := toDomainFilter(req)
	if err != nil {
		return nil, toGRPCError(err)
	}

	predicate, err := h.app.Queries.ExplainFilter.Execute(ctx, queries.ExplainFilterQuery{
		Entity: entity,
		Filter: filter,
	})
	if err != nil {
		return nil, toGRPCError(err)
	}

	resp, err := toProtoExplanation(entity, predicate)
	if err != nil {
		return nil, toGRPCError(err)
	}

	return resp, nil
}

func toGRPCError(err error) error {
	switch {
	case errors.Is(err, errBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrTransportNotFound):
		return status.Error(codes.NotFound, "transport not found")
	case errors.Is(err, model.ErrOrderNotFound):
		return status.Error(codes.NotFound, "order not found")
	case errors.Is(err, model.ErrInvalidTransportID):
		return status.Error(codes.InvalidArgument, "invalid transport ID")
	case errors.Is(err, model.ErrTransportIsTrailer):
		return status.Error(codes.FailedPrecondition, "transport is a trailer")
	case errors.Is(err, model.ErrUnknownEntity):
		return status.Error(codes.InvalidArgument, "unknown filter entity")
	case errors.Is(err, model.ErrUnknownAttribute),
		errors.Is(err, model.ErrUnknownMethod),
		errors.Is(err, model.ErrNonScalarOperand),
		errors.Is(err, model.ErrUnsupportedOperator):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, circuitbreaker.ErrCircuitOpen),
		errors.Is(err, circuitbreaker.ErrTooManyRequests),
		errors.Is(err, model.ErrDatabaseConnection):
		return status.Error(codes.Unavailable, "storage unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
