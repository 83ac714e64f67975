package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the fund service
const ServiceName = "fundquota.v1.FundService"

// FundServiceServer is the server API for the fund service.
// Every message is a google.protobuf.Struct; decimal values travel as strings.
type FundServiceServer interface {
	RecordMovement(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Buy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Sell(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PendingPrices(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkToMarket(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListInvestorPositions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetInvestorPosition(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListQuotaHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordQuotaHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMovements(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPositions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateMovement(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteMovement(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdatePosition(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeletePosition(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckForUpdates(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(FundServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unary builds the method descriptor of one RPC, running the server's
// interceptor chain the same way generated code does.
func unary(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FundServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(FundServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FundServiceDesc describes the fund service for grpc.Server registration
var FundServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FundServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RecordMovement", FundServiceServer.RecordMovement),
		unary("Buy", FundServiceServer.Buy),
		unary("Sell", FundServiceServer.Sell),
		unary("PendingPrices", FundServiceServer.PendingPrices),
		unary("MarkToMarket", FundServiceServer.MarkToMarket),
		unary("GetSummary", FundServiceServer.GetSummary),
		unary("ListInvestorPositions", FundServiceServer.ListInvestorPositions),
		unary("GetInvestorPosition", FundServiceServer.GetInvestorPosition),
		unary("ListQuotaHistory", FundServiceServer.ListQuotaHistory),
		unary("RecordQuotaHistory", FundServiceServer.RecordQuotaHistory),
		unary("ListMovements", FundServiceServer.ListMovements),
		unary("ListPositions", FundServiceServer.ListPositions),
		unary("UpdateMovement", FundServiceServer.UpdateMovement),
		unary("DeleteMovement", FundServiceServer.DeleteMovement),
		unary("UpdatePosition", FundServiceServer.UpdatePosition),
		unary("DeletePosition", FundServiceServer.DeletePosition),
		unary("CheckForUpdates", FundServiceServer.CheckForUpdates),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fundquota/v1/fund.proto",
}

// RegisterFundServiceServer registers srv on s
func RegisterFundServiceServer(s grpc.ServiceRegistrar, srv FundServiceServer) {
	s.RegisterService(&FundServiceDesc, srv)
}
