package feedback

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// OneiricServer is the server side of the oneiric service.
type OneiricServer interface {
	ApplyPolicy(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterOneiricServer serves hook on s.
func RegisterOneiricServer(s *grpc.Server, hook Hook) {
	s.RegisterService(&oneiricServiceDesc, &hookServer{hook: hook})
}

type hookServer struct {
	hook Hook
}

func (s *hookServer) ApplyPolicy(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	scene, pol, err := decodeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	hints := s.hook.ApplyPolicy(ctx, scene, pol)
	resp, err := encodeHints(hints)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func applyPolicyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OneiricServer).ApplyPolicy(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ApplyPolicyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OneiricServer).ApplyPolicy(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var oneiricServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OneiricServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ApplyPolicy", Handler: applyPolicyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "aka/oneiric/v1/oneiric.proto",
}
