package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/orbit-viz/model"
)

// Client is a thin typed wrapper over a connection to SatelliteService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetFrame fetches the latest frame.
func (c *Client) GetFrame(ctx context.Context, opts ...grpc.CallOption) (model.Frame, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getFrameMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return model.Frame{}, err
	}
	return StructToFrame(out)
}

// ListCatalog fetches the scene's catalog.
func (c *Client) ListCatalog(ctx context.Context, opts ...grpc.CallOption) ([]model.CatalogEntry, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, listCatalogMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return ListToCatalog(out)
}

// FrameStream receives frames from WatchFrames.
type FrameStream struct {
	stream grpc.ClientStream
}

// Recv blocks for the next frame.
func (s *FrameStream) Recv() (model.Frame, error) {
	m := new(structpb.Struct)
	if err := s.stream.RecvMsg(m); err != nil {
		return model.Frame{}, err
	}
	return StructToFrame(m)
}

// WatchFrames opens a frame stream. Cancel ctx to end it.
func (c *Client) WatchFrames(ctx context.Context, opts ...grpc.CallOption) (*FrameStream, error) {
	stream, err := c.cc.NewStream(ctx, &SatelliteServiceDesc.Streams[0], watchFramesMethod, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &FrameStream{stream: stream}, nil
}
