package core

import (
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestSubPointMatchesGeoPosition(t *testing.T) {
	for _, c := range []struct{ lon, lat float64 }{
		{0, 0},
		{90, 0},
		{-120, 0},
		{120, 0},
	} {
		p := ToCartesian(c.lon, c.lat, 400, EarthRadiusKm)
		got := SubPoint(p, EarthRadiusKm, 0)
		if !scalar.EqualWithinAbs(got.LongitudeDeg, c.lon, 1e-6) {
			t.Fatalf("lon %v: SubPoint longitude = %v", c.lon, got.LongitudeDeg)
		}
		if !scalar.EqualWithinAbs(got.LatitudeDeg, 0, 1e-9) {
			t.Fatalf("lon %v: SubPoint latitude = %v, want 0", c.lon, got.LatitudeDeg)
		}
		// Geodetic altitude over the WGS84 equator is a few km below the
		// spherical altitude.
		if got.AltitudeKm < 380 || got.AltitudeKm > 400 {
			t.Fatalf("lon %v: SubPoint altitude = %v, want ~393", c.lon, got.AltitudeKm)
		}
	}
}

func TestSubPointFollowsSurfaceRotation(t *testing.T) {
	p := ToCartesian(30, 0, 550, EarthRadiusKm)
	spin := 10 * deg2rad
	got := SubPoint(p, EarthRadiusKm, spin)
	if !scalar.EqualWithinAbs(got.LongitudeDeg, 20, 1e-6) {
		t.Fatalf("longitude under a 10° spin = %v, want 20", got.LongitudeDeg)
	}
}

func TestSubPointNorthernHemisphere(t *testing.T) {
	got := SubPoint(r3.Vec{X: -0.7, Y: 0.7}, EarthRadiusKm, 0)
	if got.LatitudeDeg <= 0 {
		t.Fatalf("latitude = %v, want > 0 for +Y", got.LatitudeDeg)
	}
}

func TestWrapLongitude(t *testing.T) {
	for in, want := range map[float64]float64{0: 0, 180: 180, 190: -170, -180: 180, -190: 170, 540: 180, 725: 5} {
		if got := wrapLongitude(in); !scalar.EqualWithinAbs(got, want, 1e-9) {
			t.Fatalf("wrapLongitude(%v) = %v, want %v", in, got, want)
		}
	}
}
