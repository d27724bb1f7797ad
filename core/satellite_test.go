package core

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orbit-viz/model"
)

func seeded(seed uint64) SatelliteOption {
	return WithRand(rand.New(rand.NewPCG(seed, seed+1)))
}

var iss = model.CatalogEntry{Name: "ISS", AltitudeKm: 400, InclinationDeg: 51.6}

func TestNewSatelliteOrbitParameters(t *testing.T) {
	s, err := NewSatellite("sat-0", iss, seeded(1))
	if err != nil {
		t.Fatalf("NewSatellite: %v", err)
	}
	if !scalar.EqualWithinAbs(s.Orbit.Radius, 1.0628, 1e-4) {
		t.Fatalf("Radius = %v, want ~1.0628", s.Orbit.Radius)
	}
	if !scalar.EqualWithinAbs(s.Orbit.Speed, 0.00456, 1e-5) {
		t.Fatalf("Speed = %v, want ~0.00456", s.Orbit.Speed)
	}
	if s.Orbit.Angle < 0 || s.Orbit.Angle >= 2*math.Pi {
		t.Fatalf("Angle = %v, want in [0, 2π)", s.Orbit.Angle)
	}
	if s.Orbit.InclinationDeg != 51.6 {
		t.Fatalf("InclinationDeg = %v, want 51.6", s.Orbit.InclinationDeg)
	}
	if s.Label == nil || s.Label.Text != "ISS" {
		t.Fatalf("expected an ISS label, got %+v", s.Label)
	}
}

func TestNewSatelliteInitialPlacement(t *testing.T) {
	s, err := NewSatellite("sat-0", model.CatalogEntry{LongitudeDeg: 120, AltitudeKm: 550, InclinationDeg: 53}, seeded(2))
	if err != nil {
		t.Fatalf("NewSatellite: %v", err)
	}
	want := ToCartesian(120, 0, 550, EarthRadiusKm)
	if !vecClose(s.Marker.Position, want, tol) {
		t.Fatalf("initial marker position = %+v, want %+v", s.Marker.Position, want)
	}
	if s.Label != nil {
		t.Fatalf("unnamed satellite should not carry a label")
	}
	if r3.Dot(r3.Unit(s.Forward()), r3.Unit(s.Marker.Position)) < 0.999 {
		t.Fatalf("initial marker should face outward, forward = %+v", s.Forward())
	}
}

func TestNewSatelliteRejectsBadAltitude(t *testing.T) {
	for _, alt := range []float64{0, -100} {
		_, err := NewSatellite("x", model.CatalogEntry{AltitudeKm: alt})
		if !errors.Is(err, ErrBelowSurface) {
			t.Fatalf("altitude %v: err = %v, want ErrBelowSurface", alt, err)
		}
	}
	_, err := NewSatellite("x", model.CatalogEntry{AltitudeKm: -EarthRadiusKm - 1})
	if !errors.Is(err, ErrInvalidAltitude) {
		t.Fatalf("altitude below -R: err = %v, want ErrInvalidAltitude", err)
	}
	_, err = NewSatellite("x", iss, WithBodyRadius(-1))
	if !errors.Is(err, ErrInvalidBodyRadius) {
		t.Fatalf("negative body radius: err = %v, want ErrInvalidBodyRadius", err)
	}
}

func TestNewSatelliteRejectsNonFinite(t *testing.T) {
	cases := []struct {
		name  string
		entry model.CatalogEntry
		opts  []SatelliteOption
	}{
		{"inclination +Inf", model.CatalogEntry{AltitudeKm: 400, InclinationDeg: math.Inf(1)}, nil},
		{"inclination NaN", model.CatalogEntry{AltitudeKm: 400, InclinationDeg: math.NaN()}, nil},
		{"longitude -Inf", model.CatalogEntry{AltitudeKm: 400, LongitudeDeg: math.Inf(-1)}, nil},
		{"latitude +Inf", model.CatalogEntry{AltitudeKm: 400, LatitudeDeg: math.Inf(1)}, nil},
		{"tilt -Inf", iss, []SatelliteOption{WithAxialTilt(math.Inf(-1))}},
	}
	for _, tc := range cases {
		s, err := NewSatellite("x", tc.entry, tc.opts...)
		if !errors.Is(err, ErrNonFiniteOrientation) {
			t.Fatalf("%s: err = %v, want ErrNonFiniteOrientation", tc.name, err)
		}
		if s != nil {
			t.Fatalf("%s: expected no satellite", tc.name)
		}
	}
}

func TestSceneRejectsNonFiniteCatalogEntry(t *testing.T) {
	catalog := model.DefaultCatalog()
	catalog[3].InclinationDeg = math.Inf(1)
	err := NewScene().AddCatalog(catalog)
	if !errors.Is(err, ErrNonFiniteOrientation) {
		t.Fatalf("AddCatalog err = %v, want ErrNonFiniteOrientation", err)
	}
}

func TestNewSatellitePreseedsTrailChronologically(t *testing.T) {
	s, err := NewSatellite("sat-0", iss, seeded(3))
	if err != nil {
		t.Fatalf("NewSatellite: %v", err)
	}
	if s.Trail.Len() != MaxTrailLength {
		t.Fatalf("preseeded trail len = %d, want %d", s.Trail.Len(), MaxTrailLength)
	}

	newest, _ := s.Trail.Newest()
	if !vecClose(newest, orbitPoint(s.Orbit.Radius, s.Orbit.Angle), 1e-12) {
		t.Fatalf("newest seeded point = %+v, want the start phase", newest)
	}
	oldest := s.Trail.At(0)
	wantOldest := orbitPoint(s.Orbit.Radius, s.Orbit.Angle-float64(MaxTrailLength-1)*TrailSeedStep)
	if !vecClose(oldest, wantOldest, 1e-12) {
		t.Fatalf("oldest seeded point = %+v, want %+v", oldest, wantOldest)
	}
	for i := 0; i < s.Trail.Len(); i++ {
		p := s.Trail.At(i)
		if p.Y != 0 || !scalar.EqualWithinAbs(r3.Norm(p), s.Orbit.Radius, 1e-12) {
			t.Fatalf("seeded point %d = %+v not on the local orbit", i, p)
		}
	}
}

func TestNewSatelliteWithoutPreseed(t *testing.T) {
	s, err := NewSatellite("sat-0", iss, WithTrailPreseed(false), WithTrailLength(10))
	if err != nil {
		t.Fatalf("NewSatellite: %v", err)
	}
	if s.Trail.Len() != 0 || s.Trail.Cap() != 10 {
		t.Fatalf("trail len/cap = %d/%d, want 0/10", s.Trail.Len(), s.Trail.Cap())
	}
}

func TestNewSatelliteRandomPhaseVaries(t *testing.T) {
	a, _ := NewSatellite("a", iss, seeded(10))
	b, _ := NewSatellite("b", iss, seeded(11))
	if a.Orbit.Angle == b.Orbit.Angle {
		t.Fatalf("different seeds produced the same phase %v", a.Orbit.Angle)
	}
	c, _ := NewSatellite("c", iss, seeded(10))
	if a.Orbit.Angle != c.Orbit.Angle {
		t.Fatalf("same seed produced phases %v and %v", a.Orbit.Angle, c.Orbit.Angle)
	}
}

func TestLabelPlaneOffsetAlongBillboardX(t *testing.T) {
	s, _ := NewSatellite("sat-0", iss, seeded(5))
	Step(s, r3.Vec{X: 2, Y: 1, Z: 5})

	offset := r3.Sub(s.Label.PlanePosition(), s.Label.Position)
	if !scalar.EqualWithinAbs(r3.Norm(offset), LabelOffset, 1e-12) {
		t.Fatalf("|offset| = %v, want %v", r3.Norm(offset), LabelOffset)
	}
	want := r3.Scale(LabelOffset, rotate(s.Label.Orientation, axisX))
	if !vecClose(offset, want, 1e-12) {
		t.Fatalf("offset = %+v, want %+v along the billboard X axis", offset, want)
	}
	// The plane stays perpendicular to the direction the billboard faces.
	if d := r3.Dot(offset, rotate(s.Label.Orientation, axisZ)); !scalar.EqualWithinAbs(d, 0, 1e-12) {
		t.Fatalf("offset has %v along the facing axis", d)
	}
}

func TestSatelliteStateSnapshot(t *testing.T) {
	s, _ := NewSatellite("sat-3", iss, seeded(4))
	Step(s, r3.Vec{Z: 5})
	st := s.State(EarthRadiusKm, 0)

	if st.ID != "sat-3" || st.Name != "ISS" {
		t.Fatalf("state identity = %q/%q", st.ID, st.Name)
	}
	if st.Trail != nil {
		t.Fatalf("State should not embed trail data")
	}
	world := s.WorldPosition()
	if st.WorldPosition != toVector(world) {
		t.Fatalf("WorldPosition = %+v, want %+v", st.WorldPosition, world)
	}
	if st.Label == nil || st.Label.Text != "ISS" {
		t.Fatalf("label missing from state")
	}
	if st.Label.Width != LabelWidth || st.Label.Height != LabelHeight || st.MarkerSize != MarkerSize {
		t.Fatalf("plane sizes = %v x %v, marker %v", st.Label.Width, st.Label.Height, st.MarkerSize)
	}
	if st.Label.PlanePosition != toVector(s.Label.PlanePosition()) {
		t.Fatalf("PlanePosition = %+v, want %+v", st.Label.PlanePosition, s.Label.PlanePosition())
	}
	if math.Abs(st.GroundTrack.LatitudeDeg) > 51.6+0.5 {
		t.Fatalf("ground track latitude %v exceeds the inclination", st.GroundTrack.LatitudeDeg)
	}
}
