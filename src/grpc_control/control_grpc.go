package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The control service is declared directly over protobuf well-known types,
// so there is no generated code.

const (
	ServiceName = "orderserver.control.v1.OrderServerControl"

	getStatusMethod    = "/" + ServiceName + "/GetStatus"
	getClientMethod    = "/" + ServiceName + "/GetClient"
	setAcceptingMethod = "/" + ServiceName + "/SetAccepting"
)

// OrderServerControlServer is the server API for the control service
type OrderServerControlServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetClient(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	SetAccepting(context.Context, *wrapperspb.BoolValue) (*structpb.Struct, error)
}

// -----------------------------------------------------------------------------

func RegisterOrderServerControlServer(s grpc.ServiceRegistrar, srv OrderServerControlServer) {
	s.RegisterService(&OrderServerControlServiceDesc, srv)
}

// -----------------------------------------------------------------------------

var OrderServerControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServerControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "GetClient", Handler: getClientHandler},
		{MethodName: "SetAccepting", Handler: setAcceptingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orderserver/control/v1/control.proto",
}

// -----------------------------------------------------------------------------

func getStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServerControlServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getStatusMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServerControlServer).GetStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getClientHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServerControlServer).GetClient(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getClientMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServerControlServer).GetClient(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func setAcceptingHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BoolValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServerControlServer).SetAccepting(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: setAcceptingMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServerControlServer).SetAccepting(ctx, req.(*wrapperspb.BoolValue))
	}
	return interceptor(ctx, in, info, handler)
}

// -----------------------------------------------------------------------------
// ControlClient is the client API for the control service
// -----------------------------------------------------------------------------

type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func (c *ControlClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getStatusMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) GetClient(ctx context.Context, clientID int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getClientMethod, wrapperspb.Int64(clientID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) SetAccepting(ctx context.Context, accepting bool, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, setAcceptingMethod, wrapperspb.Bool(accepting), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
