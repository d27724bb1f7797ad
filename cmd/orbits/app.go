package main

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/orbit-viz/core"
	"github.com/signalsfoundry/orbit-viz/internal/config"
	"github.com/signalsfoundry/orbit-viz/internal/logging"
	"github.com/signalsfoundry/orbit-viz/internal/observability"
	"github.com/signalsfoundry/orbit-viz/kb"
	"github.com/signalsfoundry/orbit-viz/timectrl"
)

// app wires the scene to the frame store through a frame loop.
type app struct {
	cfg       *config.Config
	log       logging.Logger
	scene     *core.Scene
	store     *kb.FrameStore
	loop      *timectrl.FrameLoop
	collector *observability.FrameCollector
	now       func() time.Time
}

func newApp(ctx context.Context, cfg *config.Config, log logging.Logger, mode timectrl.Mode, collector *observability.FrameCollector) (*app, error) {
	_, span := observability.StartSpan(ctx, "scene.build", attribute.Int("catalog.size", len(cfg.Catalog)))
	defer span.End()

	scene := core.NewScene(cfg.SceneOptions()...)
	if err := scene.AddCatalog(cfg.Catalog); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("build scene: %w", err)
	}

	store := kb.NewFrameStore(cfg.Camera)
	store.SetCatalog(cfg.Catalog)

	a := &app{
		cfg:       cfg,
		log:       log,
		scene:     scene,
		store:     store,
		loop:      timectrl.NewFrameLoop(timectrl.IntervalForRate(cfg.FrameRate), mode),
		collector: collector,
		now:       time.Now,
	}
	a.loop.AddListener(a.step)

	log.Info(ctx, "scene ready",
		logging.Int("satellites", scene.Len()),
		logging.Int("trail_points", scene.TrailPoints()),
		logging.String("mode", mode.String()),
	)
	return a, nil
}

// step is the per-frame listener: move everything, upload trails, publish.
func (a *app) step(frame uint64) {
	start := time.Now()
	cam := core.ToVec(a.store.Camera())
	a.scene.Frame(cam, a.store)
	a.store.Publish(a.scene.Snapshot(frame, a.now(), cam))
	a.collector.ObserveFrame(time.Since(start), a.scene.Len(), a.scene.TrailPoints())
}
