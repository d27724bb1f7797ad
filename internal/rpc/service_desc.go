package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "orbitviz.v1.SatelliteService"

const (
	getFrameMethod    = "/" + ServiceName + "/GetFrame"
	listCatalogMethod = "/" + ServiceName + "/ListCatalog"
	watchFramesMethod = "/" + ServiceName + "/WatchFrames"
)

// SatelliteServiceServer is the server API for orbitviz.v1.SatelliteService.
// Frames and catalog entries travel as well-known Struct/ListValue messages
// carrying the same JSON shape as the HTTP API.
type SatelliteServiceServer interface {
	GetFrame(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListCatalog(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	WatchFrames(*emptypb.Empty, WatchFramesServer) error
}

// WatchFramesServer is the server side of the WatchFrames stream.
type WatchFramesServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type watchFramesServer struct {
	grpc.ServerStream
}

func (x *watchFramesServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterSatelliteServiceServer registers srv on s.
func RegisterSatelliteServiceServer(s grpc.ServiceRegistrar, srv SatelliteServiceServer) {
	s.RegisterService(&SatelliteServiceDesc, srv)
}

func getFrameHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SatelliteServiceServer).GetFrame(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getFrameMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SatelliteServiceServer).GetFrame(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listCatalogHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SatelliteServiceServer).ListCatalog(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listCatalogMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SatelliteServiceServer).ListCatalog(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchFramesHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SatelliteServiceServer).WatchFrames(in, &watchFramesServer{stream})
}

// SatelliteServiceDesc describes orbitviz.v1.SatelliteService for grpc.Server.
var SatelliteServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SatelliteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetFrame", Handler: getFrameHandler},
		{MethodName: "ListCatalog", Handler: listCatalogHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchFrames",
			Handler:       watchFramesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "orbitviz/v1/satellite_service.proto",
}
