package core

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orbit-viz/model"
)

// Per-frame spin of the body layers and the starfield backdrop, in radians.
const (
	SurfaceSpin   = 0.002
	CloudSpin     = 0.0023
	StarfieldSpin = -0.0002
)

// TrailUploader receives trail vertex data that changed during a frame.
// flat is only valid for the duration of the call.
type TrailUploader interface {
	UploadTrail(id string, flat []float32)
}

// Body is the rotating central sphere. Satellites are parented to the tilted
// body group but not to the spinning layers, so the spin only affects ground
// tracks.
type Body struct {
	RadiusKm          float64
	AxialTiltDeg      float64
	SurfaceRotation   float64
	CloudRotation     float64
	StarfieldRotation float64
}

// Scene owns the body and every satellite and is threaded through the frame
// loop. It is not safe for concurrent use; the loop goroutine owns it.
type Scene struct {
	Body Body

	satellites []*Satellite
	satOpts    []SatelliteOption
	flat       []float32
}

type sceneOptions struct {
	bodyRadiusKm float64
	axialTiltDeg float64
	satOpts      []SatelliteOption
}

// SceneOption customises NewScene.
type SceneOption func(*sceneOptions)

// WithSceneBodyRadius sets the body radius used for every satellite.
func WithSceneBodyRadius(km float64) SceneOption {
	return func(o *sceneOptions) { o.bodyRadiusKm = km }
}

// WithSceneAxialTilt sets the body's axial tilt in degrees.
func WithSceneAxialTilt(deg float64) SceneOption {
	return func(o *sceneOptions) { o.axialTiltDeg = deg }
}

// WithSceneSeed makes satellite phases reproducible.
func WithSceneSeed(seed uint64) SceneOption {
	return func(o *sceneOptions) {
		o.satOpts = append(o.satOpts, WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))))
	}
}

// WithSatelliteOptions applies opts to every satellite the scene creates.
func WithSatelliteOptions(opts ...SatelliteOption) SceneOption {
	return func(o *sceneOptions) { o.satOpts = append(o.satOpts, opts...) }
}

// NewScene returns an empty scene.
func NewScene(opts ...SceneOption) *Scene {
	o := sceneOptions{bodyRadiusKm: EarthRadiusKm, axialTiltDeg: DefaultAxialTiltDeg}
	for _, opt := range opts {
		opt(&o)
	}
	satOpts := append([]SatelliteOption{
		WithBodyRadius(o.bodyRadiusKm),
		WithAxialTilt(o.axialTiltDeg),
	}, o.satOpts...)
	return &Scene{
		Body:    Body{RadiusKm: o.bodyRadiusKm, AxialTiltDeg: o.axialTiltDeg},
		satOpts: satOpts,
	}
}

// Add registers a satellite built from entry. Satellites are stepped in the
// order they were added. Duplicate names are allowed; IDs stay unique.
func (sc *Scene) Add(entry model.CatalogEntry) (*Satellite, error) {
	id := fmt.Sprintf("sat-%d", len(sc.satellites))
	s, err := NewSatellite(id, entry, sc.satOpts...)
	if err != nil {
		return nil, fmt.Errorf("satellite %d (%q): %w", len(sc.satellites), entry.Name, err)
	}
	sc.satellites = append(sc.satellites, s)
	return s, nil
}

// AddCatalog registers every entry in order and stops at the first invalid one.
func (sc *Scene) AddCatalog(entries []model.CatalogEntry) error {
	for _, e := range entries {
		if _, err := sc.Add(e); err != nil {
			return err
		}
	}
	return nil
}

// Satellites returns the registered satellites in step order.
func (sc *Scene) Satellites() []*Satellite {
	return sc.satellites
}

// Len returns the number of registered satellites.
func (sc *Scene) Len() int { return len(sc.satellites) }

// Frame advances the body spin and steps every satellite in registration
// order. Once all satellites have moved, dirty trails are handed to up and
// marked uploaded. up may be nil, in which case trails stay dirty.
func (sc *Scene) Frame(cam r3.Vec, up TrailUploader) {
	sc.Body.SurfaceRotation = wrapAngle(sc.Body.SurfaceRotation + SurfaceSpin)
	sc.Body.CloudRotation = wrapAngle(sc.Body.CloudRotation + CloudSpin)
	sc.Body.StarfieldRotation = wrapAngle(sc.Body.StarfieldRotation + StarfieldSpin)

	for _, s := range sc.satellites {
		Step(s, cam)
	}

	if up == nil {
		return
	}
	for _, s := range sc.satellites {
		if !s.Trail.Dirty() {
			continue
		}
		sc.flat = s.Trail.AppendFlat(sc.flat[:0])
		up.UploadTrail(s.ID, sc.flat)
		s.Trail.MarkUploaded()
	}
}

// Snapshot captures the current scene state as frame index.
func (sc *Scene) Snapshot(index uint64, now time.Time, cam r3.Vec) model.Frame {
	f := model.Frame{
		Index:  index,
		Time:   now,
		Camera: toVector(cam),
		Body: model.BodyState{
			RadiusKm:          sc.Body.RadiusKm,
			AxialTiltDeg:      sc.Body.AxialTiltDeg,
			SurfaceRotation:   sc.Body.SurfaceRotation,
			CloudRotation:     sc.Body.CloudRotation,
			StarfieldRotation: sc.Body.StarfieldRotation,
		},
		Satellites: make([]model.SatelliteState, 0, len(sc.satellites)),
	}
	for _, s := range sc.satellites {
		f.Satellites = append(f.Satellites, s.State(sc.Body.RadiusKm, sc.Body.SurfaceRotation))
	}
	return f
}

// TrailPoints returns the total number of trail positions held by the scene.
func (sc *Scene) TrailPoints() int {
	n := 0
	for _, s := range sc.satellites {
		n += s.Trail.Len()
	}
	return n
}
