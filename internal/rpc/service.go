// Package rpc exposes published frames over gRPC.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/orbit-viz/internal/logging"
	"github.com/signalsfoundry/orbit-viz/internal/observability"
	"github.com/signalsfoundry/orbit-viz/kb"
	"github.com/signalsfoundry/orbit-viz/model"
)

// SatelliteService serves frames from a FrameStore.
type SatelliteService struct {
	store *kb.FrameStore
	log   logging.Logger
}

// NewSatelliteService constructs the service.
func NewSatelliteService(store *kb.FrameStore, log logging.Logger) *SatelliteService {
	if log == nil {
		log = logging.Noop()
	}
	return &SatelliteService{store: store, log: log}
}

// GetFrame returns the latest published frame, or Unavailable before the
// first one.
func (s *SatelliteService) GetFrame(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	frame, err := s.store.Latest()
	if err != nil {
		return nil, ToStatusError(err)
	}
	out, err := FrameToStruct(frame)
	if err != nil {
		logging.FromContext(ctx, s.log).Error(ctx, "encode frame", logging.Err(err))
		return nil, ToStatusError(err)
	}
	return out, nil
}

// ListCatalog returns the catalog the scene was built from.
func (s *SatelliteService) ListCatalog(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	out, err := catalogToList(s.store.Catalog())
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// WatchFrames streams frames as they are published, starting with the
// latest one. A slow receiver skips frames rather than queueing them.
func (s *SatelliteService) WatchFrames(_ *emptypb.Empty, stream WatchFramesServer) error {
	ctx := stream.Context()
	log := logging.FromContext(ctx, s.log)

	updates := make(chan model.Frame, 1)
	unsubscribe := s.store.Subscribe(func(ev kb.Event) {
		if ev.Type != kb.EventFramePublished {
			return
		}
		offerLatest(updates, ev.Frame)
	})
	defer unsubscribe()

	if frame, err := s.store.Latest(); err == nil {
		offerLatest(updates, frame)
	}

	log.Debug(ctx, "frame watch started")
	var sent uint64
	var last uint64
	for {
		select {
		case <-ctx.Done():
			log.Debug(ctx, "frame watch ended", logging.Uint64("frames_sent", sent))
			return ToStatusError(ctx.Err())
		case frame := <-updates:
			if sent > 0 && frame.Index <= last {
				continue
			}
			msg, err := FrameToStruct(frame)
			if err != nil {
				return ToStatusError(err)
			}
			_, span := observability.StartSpan(ctx, "SatelliteService/WatchFrames.send")
			err = stream.Send(msg)
			span.End()
			if err != nil {
				return err
			}
			sent++
			last = frame.Index
		}
	}
}

// offerLatest replaces any frame still waiting in ch with f.
func offerLatest(ch chan model.Frame, f model.Frame) {
	for {
		select {
		case ch <- f:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// FrameToStruct converts a frame to its Struct form via its JSON encoding.
func FrameToStruct(f model.Frame) (*structpb.Struct, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal frame %d: %w", f.Index, err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("convert frame %d: %w", f.Index, err)
	}
	return out, nil
}

// StructToFrame is the inverse of FrameToStruct.
func StructToFrame(s *structpb.Struct) (model.Frame, error) {
	var f model.Frame
	raw, err := protojson.Marshal(s)
	if err != nil {
		return f, fmt.Errorf("marshal struct: %w", err)
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

func catalogToList(entries []model.CatalogEntry) (*structpb.ListValue, error) {
	if entries == nil {
		entries = []model.CatalogEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	out := &structpb.ListValue{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("convert catalog: %w", err)
	}
	return out, nil
}

// ListToCatalog decodes a ListCatalog response.
func ListToCatalog(l *structpb.ListValue) ([]model.CatalogEntry, error) {
	raw, err := protojson.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal list: %w", err)
	}
	var entries []model.CatalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return entries, nil
}
