package core

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EarthRadiusKm is the mean Earth radius used to scale altitudes into
// body radii (kilometres).
const EarthRadiusKm = 6371.0

// BaseOrbitSpeed is the angular increment per frame of an orbit whose radius
// is exactly one body radius. Higher orbits are slower by r^-1.5.
const BaseOrbitSpeed = 0.005

const deg2rad = math.Pi / 180.0

var (
	// ErrInvalidBodyRadius is returned when the body radius is not positive.
	ErrInvalidBodyRadius = errors.New("body radius must be positive")
	// ErrInvalidAltitude is returned when an altitude would place a point at
	// or through the body centre.
	ErrInvalidAltitude = errors.New("altitude must be greater than -body radius")
)

// ToCartesian converts geographic coordinates into the body-centred scene
// frame, scaled so the body surface is the unit sphere. The negated x keeps
// longitude 0 facing the viewer with the default texture orientation.
func ToCartesian(longitudeDeg, latitudeDeg, altitudeKm, bodyRadiusKm float64) r3.Vec {
	phi := (90 - latitudeDeg) * deg2rad
	theta := longitudeDeg * deg2rad
	h := (bodyRadiusKm + altitudeKm) / bodyRadiusKm

	return r3.Vec{
		X: -h * math.Sin(phi) * math.Cos(theta),
		Y: h * math.Cos(phi),
		Z: h * math.Sin(phi) * math.Sin(theta),
	}
}

// FromCartesian is the inverse of ToCartesian. The origin maps to
// (0, 0, -bodyRadiusKm).
func FromCartesian(p r3.Vec, bodyRadiusKm float64) (longitudeDeg, latitudeDeg, altitudeKm float64) {
	h := r3.Norm(p)
	if h == 0 {
		return 0, 0, -bodyRadiusKm
	}
	latitudeDeg = 90 - math.Acos(clamp(p.Y/h, -1, 1))/deg2rad
	longitudeDeg = math.Atan2(p.Z, -p.X) / deg2rad
	altitudeKm = (h - 1) * bodyRadiusKm
	return longitudeDeg, latitudeDeg, altitudeKm
}

// OrbitRadius returns the orbit radius in body radii for a satellite at the
// given altitude.
func OrbitRadius(altitudeKm, bodyRadiusKm float64) (float64, error) {
	if !(bodyRadiusKm > 0) || math.IsInf(bodyRadiusKm, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidBodyRadius, bodyRadiusKm)
	}
	if !(altitudeKm > -bodyRadiusKm) || math.IsInf(altitudeKm, 0) {
		return 0, fmt.Errorf("%w: altitude %v km, radius %v km", ErrInvalidAltitude, altitudeKm, bodyRadiusKm)
	}
	return (bodyRadiusKm + altitudeKm) / bodyRadiusKm, nil
}

// OrbitSpeed returns the per-frame angular increment for an orbit of the
// given radius, so that lower orbits move faster.
func OrbitSpeed(base, orbitRadius float64) float64 {
	return base * math.Pow(orbitRadius, -1.5)
}

// PeriodFrames is the number of frames one revolution takes at speed.
func PeriodFrames(speed float64) float64 {
	if !(speed > 0) {
		return math.Inf(1)
	}
	return 2 * math.Pi / speed
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wrapAngle maps a into [0, 2π).
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
