package core

import (
	"math"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/orbit-viz/model"
)

// SubPoint returns the point on the rotating body directly beneath a world
// position given in body radii. surfaceRotation is the body's accumulated
// spin about the scene Y axis and plays the role of the sidereal angle.
//
// The scene frame maps onto an Earth-centred frame as (x, y, z) -> (-x, z, y),
// which keeps longitude 0 where ToCartesian places it. go-satellite works in
// kilometres on the WGS84 ellipsoid, so altitudes are geodetic.
func SubPoint(world r3.Vec, bodyRadiusKm, surfaceRotation float64) model.GeoPoint {
	eci := satellite.Vector3{
		X: -world.X * bodyRadiusKm,
		Y: world.Z * bodyRadiusKm,
		Z: world.Y * bodyRadiusKm,
	}
	alt, _, ll := satellite.ECIToLLA(eci, surfaceRotation)

	return model.GeoPoint{
		LatitudeDeg:  ll.Latitude / deg2rad,
		LongitudeDeg: wrapLongitude(ll.Longitude / deg2rad),
		AltitudeKm:   alt,
	}
}

// wrapLongitude maps degrees into (-180, 180].
func wrapLongitude(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
