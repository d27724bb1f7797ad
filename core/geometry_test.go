package core

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func vecClose(a, b r3.Vec, eps float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, eps) &&
		scalar.EqualWithinAbs(a.Y, b.Y, eps) &&
		scalar.EqualWithinAbs(a.Z, b.Z, eps)
}

func TestToCartesian_EquatorPrimeMeridian(t *testing.T) {
	got := ToCartesian(0, 0, 0, EarthRadiusKm)
	want := r3.Vec{X: -1, Y: 0, Z: 0}
	if !vecClose(got, want, tol) {
		t.Fatalf("ToCartesian(0,0,0) = %+v, want %+v", got, want)
	}
}

func TestToCartesian_PoleAndEastLongitude(t *testing.T) {
	if got := ToCartesian(0, 90, 0, EarthRadiusKm); !vecClose(got, r3.Vec{Y: 1}, tol) {
		t.Fatalf("north pole = %+v, want (0,1,0)", got)
	}
	if got := ToCartesian(90, 0, 0, EarthRadiusKm); !vecClose(got, r3.Vec{Z: 1}, tol) {
		t.Fatalf("lon 90 = %+v, want (0,0,1)", got)
	}
}

func TestToCartesian_ScalesWithAltitude(t *testing.T) {
	got := ToCartesian(37, -12, 400, EarthRadiusKm)
	want := (EarthRadiusKm + 400) / EarthRadiusKm
	if !scalar.EqualWithinAbs(r3.Norm(got), want, tol) {
		t.Fatalf("|ToCartesian| = %v, want %v", r3.Norm(got), want)
	}
}

func TestFromCartesianRoundTrip(t *testing.T) {
	for _, c := range []struct{ lon, lat, alt float64 }{
		{0, 0, 400},
		{120, 0, 550},
		{-75.5, 33.25, 20200},
		{179, -80, 705},
	} {
		lon, lat, alt := FromCartesian(ToCartesian(c.lon, c.lat, c.alt, EarthRadiusKm), EarthRadiusKm)
		if !scalar.EqualWithinAbs(lon, c.lon, 1e-6) || !scalar.EqualWithinAbs(lat, c.lat, 1e-6) || !scalar.EqualWithinAbs(alt, c.alt, 1e-6) {
			t.Fatalf("round trip %+v -> (%v, %v, %v)", c, lon, lat, alt)
		}
	}
}

func TestOrbitRadius(t *testing.T) {
	r, err := OrbitRadius(400, EarthRadiusKm)
	if err != nil {
		t.Fatalf("OrbitRadius: %v", err)
	}
	if !scalar.EqualWithinAbs(r, 1.0628, 1e-4) {
		t.Fatalf("OrbitRadius(400) = %v, want ~1.0628", r)
	}

	for _, alt := range []float64{1, 550, 35786} {
		r, err := OrbitRadius(alt, EarthRadiusKm)
		if err != nil || r <= 1 {
			t.Fatalf("OrbitRadius(%v) = %v, %v; want > 1", alt, r, err)
		}
	}

	r, err = OrbitRadius(-6000, EarthRadiusKm)
	if err != nil || r <= 0 || r >= 1 {
		t.Fatalf("OrbitRadius(-6000) = %v, %v; want in (0,1)", r, err)
	}
}

func TestOrbitRadiusRejectsInvalid(t *testing.T) {
	if _, err := OrbitRadius(-EarthRadiusKm, EarthRadiusKm); !errors.Is(err, ErrInvalidAltitude) {
		t.Fatalf("altitude == -R: err = %v, want ErrInvalidAltitude", err)
	}
	if _, err := OrbitRadius(math.NaN(), EarthRadiusKm); !errors.Is(err, ErrInvalidAltitude) {
		t.Fatalf("NaN altitude: err = %v, want ErrInvalidAltitude", err)
	}
	if _, err := OrbitRadius(400, 0); !errors.Is(err, ErrInvalidBodyRadius) {
		t.Fatalf("zero radius: err = %v, want ErrInvalidBodyRadius", err)
	}
}

func TestOrbitSpeed(t *testing.T) {
	r, _ := OrbitRadius(400, EarthRadiusKm)
	got := OrbitSpeed(BaseOrbitSpeed, r)
	if !scalar.EqualWithinAbs(got, 0.00456, 1e-5) {
		t.Fatalf("OrbitSpeed = %v, want ~0.00456", got)
	}

	high, _ := OrbitRadius(20200, EarthRadiusKm)
	if OrbitSpeed(BaseOrbitSpeed, high) >= got {
		t.Fatalf("higher orbit should be slower")
	}
}

func TestPeriodFrames(t *testing.T) {
	if got := PeriodFrames(BaseOrbitSpeed); !scalar.EqualWithinAbs(got, 2*math.Pi/BaseOrbitSpeed, tol) {
		t.Fatalf("PeriodFrames = %v", got)
	}
	if !math.IsInf(PeriodFrames(0), 1) {
		t.Fatalf("zero speed should never complete a revolution")
	}
}

func TestWrapAngle(t *testing.T) {
	for _, a := range []float64{0, 1, 2 * math.Pi, 7, -0.5, 100} {
		w := wrapAngle(a)
		if w < 0 || w >= 2*math.Pi {
			t.Fatalf("wrapAngle(%v) = %v out of range", a, w)
		}
		if !scalar.EqualWithinAbs(math.Cos(w), math.Cos(a), 1e-9) || !scalar.EqualWithinAbs(math.Sin(w), math.Sin(a), 1e-9) {
			t.Fatalf("wrapAngle(%v) = %v changes the direction", a, w)
		}
	}
}
