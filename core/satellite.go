package core

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orbit-viz/model"
)

// Marker and label plane sizes in body radii.
const (
	MarkerSize  = 0.05
	LabelWidth  = 0.2
	LabelHeight = 0.05
	// LabelOffset shifts the label plane along its local X axis so the text
	// sits beside the marker rather than on top of it.
	LabelOffset = 0.1
)

// DefaultAxialTiltDeg tilts the body and everything parented to it about the
// scene Z axis.
const DefaultAxialTiltDeg = -23.4

var (
	// ErrBelowSurface is returned for satellites whose orbit would not clear the body.
	ErrBelowSurface = errors.New("orbit radius must be greater than the body radius")
	// ErrNonFiniteOrientation is returned when a longitude, latitude,
	// inclination or tilt is NaN or infinite.
	ErrNonFiniteOrientation = errors.New("orientation parameters must be finite")
)

// OrbitState is the mutable per-satellite orbit record. Radius is in body
// radii, Speed and Angle are in radians per frame and radians.
type OrbitState struct {
	Radius         float64
	Speed          float64
	Angle          float64
	InclinationDeg float64
}

// Marker is the satellite's visual plane, expressed in its group frame.
type Marker struct {
	Position    r3.Vec
	Orientation quat.Number
}

// Label is an optional billboarded name plate. Position and Orientation are
// the pose of the billboard, anchored at the marker; the plane itself sits
// LabelOffset along the billboard's X axis.
type Label struct {
	Text        string
	Position    r3.Vec
	Orientation quat.Number
}

// PlanePosition returns the centre of the label plane in the group frame.
func (l *Label) PlanePosition() r3.Vec {
	return r3.Add(l.Position, rotate(l.Orientation, r3.Vec{X: LabelOffset}))
}

// Satellite composes a marker, an optional label, its orbit state and its
// trail under a group rotated by the orbit inclination. The group is itself
// parented to the body, which carries the axial tilt. Positions are computed
// in the group's equatorial plane.
type Satellite struct {
	ID    string
	Name  string
	Entry model.CatalogEntry

	Orbit  OrbitState
	Tilt   quat.Number
	Group  quat.Number
	Marker Marker
	Label  *Label
	Trail  *Trail
}

type satelliteOptions struct {
	bodyRadiusKm float64
	baseSpeed    float64
	trailLength  int
	preseed      bool
	axialTiltDeg float64
	rng          *rand.Rand
}

// SatelliteOption customises NewSatellite.
type SatelliteOption func(*satelliteOptions)

// WithBodyRadius sets the central body radius in kilometres.
func WithBodyRadius(km float64) SatelliteOption {
	return func(o *satelliteOptions) { o.bodyRadiusKm = km }
}

// WithBaseSpeed sets the per-frame angular speed of a unit-radius orbit.
func WithBaseSpeed(speed float64) SatelliteOption {
	return func(o *satelliteOptions) { o.baseSpeed = speed }
}

// WithTrailLength sets the trail capacity.
func WithTrailLength(n int) SatelliteOption {
	return func(o *satelliteOptions) { o.trailLength = n }
}

// WithTrailPreseed controls whether a new trail is filled with back-dated
// positions so it appears fully formed on the first frame.
func WithTrailPreseed(enabled bool) SatelliteOption {
	return func(o *satelliteOptions) { o.preseed = enabled }
}

// WithAxialTilt sets the tilt of the parent body about the scene Z axis.
func WithAxialTilt(deg float64) SatelliteOption {
	return func(o *satelliteOptions) { o.axialTiltDeg = deg }
}

// WithRand sets the source used to pick the starting orbit phase.
func WithRand(r *rand.Rand) SatelliteOption {
	return func(o *satelliteOptions) { o.rng = r }
}

func defaultSatelliteOptions() satelliteOptions {
	return satelliteOptions{
		bodyRadiusKm: EarthRadiusKm,
		baseSpeed:    BaseOrbitSpeed,
		trailLength:  MaxTrailLength,
		preseed:      true,
		axialTiltDeg: DefaultAxialTiltDeg,
	}
}

// NewSatellite builds a satellite from a catalog entry. The marker starts at
// the entry's geographic position scaled to the orbit radius and is turned to
// face away from the body; a random phase decorrelates satellites.
func NewSatellite(id string, entry model.CatalogEntry, opts ...SatelliteOption) (*Satellite, error) {
	o := defaultSatelliteOptions()
	for _, opt := range opts {
		opt(&o)
	}

	radius, err := OrbitRadius(entry.AltitudeKm, o.bodyRadiusKm)
	if err != nil {
		return nil, err
	}
	if radius <= 1 {
		return nil, fmt.Errorf("%w: altitude %v km", ErrBelowSurface, entry.AltitudeKm)
	}
	for _, v := range []float64{entry.LongitudeDeg, entry.LatitudeDeg, entry.InclinationDeg, o.axialTiltDeg} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: lon %v, lat %v, inclination %v, tilt %v", ErrNonFiniteOrientation,
				entry.LongitudeDeg, entry.LatitudeDeg, entry.InclinationDeg, o.axialTiltDeg)
		}
	}

	var start float64
	if o.rng != nil {
		start = o.rng.Float64() * 2 * math.Pi
	} else {
		start = rand.Float64() * 2 * math.Pi
	}

	s := &Satellite{
		ID:    id,
		Name:  entry.Name,
		Entry: entry,
		Orbit: OrbitState{
			Radius:         radius,
			Speed:          OrbitSpeed(o.baseSpeed, radius),
			Angle:          start,
			InclinationDeg: entry.InclinationDeg,
		},
		Tilt:  axisAngle(axisZ, o.axialTiltDeg*deg2rad),
		Group: axisAngle(axisX, entry.InclinationDeg*deg2rad),
		Trail: NewTrail(o.trailLength),
	}

	pos := ToCartesian(entry.LongitudeDeg, entry.LatitudeDeg, entry.AltitudeKm, o.bodyRadiusKm)
	s.Marker = Marker{Position: pos, Orientation: faceOutward(s.parent(), pos)}
	if entry.Name != "" {
		s.Label = &Label{Text: entry.Name, Position: pos, Orientation: identity}
	}

	if o.preseed {
		for i := s.Trail.Cap() - 1; i >= 0; i-- {
			s.Trail.Push(orbitPoint(radius, start-float64(i)*TrailSeedStep))
		}
	}
	return s, nil
}

// parent is the world orientation of the group: body tilt, then inclination.
func (s *Satellite) parent() quat.Number {
	return normalize(quat.Mul(s.Tilt, s.Group))
}

// WorldPosition returns the marker position with the inclination and the
// body tilt applied.
func (s *Satellite) WorldPosition() r3.Vec {
	return rotate(s.parent(), s.Marker.Position)
}

// BodyPosition returns the marker position in the tilted body frame, where
// the body spins about Y.
func (s *Satellite) BodyPosition() r3.Vec {
	return rotate(s.Group, s.Marker.Position)
}

// Forward returns the direction the marker's textured face points, in the
// group frame.
func (s *Satellite) Forward() r3.Vec {
	return rotate(s.Marker.Orientation, axisZ)
}

// State snapshots the satellite. The trail is left empty; trail contents
// travel through the upload path.
func (s *Satellite) State(bodyRadiusKm, surfaceRotation float64) model.SatelliteState {
	world := s.WorldPosition()
	st := model.SatelliteState{
		ID:             s.ID,
		Name:           s.Name,
		Position:       toVector(s.Marker.Position),
		WorldPosition:  toVector(world),
		Orientation:    toQuaternion(s.Marker.Orientation),
		OrbitRadius:    s.Orbit.Radius,
		OrbitSpeed:     s.Orbit.Speed,
		OrbitAngle:     s.Orbit.Angle,
		InclinationDeg: s.Orbit.InclinationDeg,
		MarkerSize:     MarkerSize,
		GroundTrack:    SubPoint(s.BodyPosition(), bodyRadiusKm, surfaceRotation),
	}
	if s.Label != nil {
		st.Label = &model.LabelState{
			Text:          s.Label.Text,
			Position:      toVector(s.Label.Position),
			Orientation:   toQuaternion(s.Label.Orientation),
			PlanePosition: toVector(s.Label.PlanePosition()),
			Width:         LabelWidth,
			Height:        LabelHeight,
		}
	}
	return st
}

func orbitPoint(radius, angle float64) r3.Vec {
	return r3.Vec{X: radius * math.Cos(angle), Z: radius * math.Sin(angle)}
}

// faceOutward points the marker at the body centre and then flips it half a
// turn about its local Y axis so the textured side faces away from the body.
func faceOutward(group quat.Number, pos r3.Vec) quat.Number {
	q := localLookAt(group, pos, r3.Vec{})
	return normalize(quat.Mul(q, axisAngle(axisY, math.Pi)))
}

func toVector(v r3.Vec) model.Vector {
	return model.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// ToVec converts a model vector into gonum's representation.
func ToVec(v model.Vector) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func toQuaternion(q quat.Number) model.Quaternion {
	return model.Quaternion{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}
