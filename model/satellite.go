package model

import "time"

// Vector is a position in the scene frame, in body radii.
type Vector struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
	Z float64 `json:"z" mapstructure:"z"`
}

// Quaternion is a unit rotation with W as the real part.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GeoPoint is a sub-satellite point on the rotating body.
type GeoPoint struct {
	LatitudeDeg  float64 `json:"latitude_deg"`
	LongitudeDeg float64 `json:"longitude_deg"`
	AltitudeKm   float64 `json:"altitude_km"`
}

// LabelState is the pose of a satellite's billboarded name label. Position
// and Orientation place the billboard; PlanePosition is the centre of the
// Width x Height text plane, offset along the billboard's X axis.
type LabelState struct {
	Text          string     `json:"text"`
	Position      Vector     `json:"position"`
	Orientation   Quaternion `json:"orientation"`
	PlanePosition Vector     `json:"plane_position"`
	Width         float64    `json:"width"`
	Height        float64    `json:"height"`
}

// SatelliteState is a read-only snapshot of one satellite after a frame.
// Position and Orientation are expressed in the satellite's inclined group
// frame; WorldPosition already has the inclination and the body tilt applied.
type SatelliteState struct {
	ID             string      `json:"id"`
	Name           string      `json:"name,omitempty"`
	Position       Vector      `json:"position"`
	WorldPosition  Vector      `json:"world_position"`
	Orientation    Quaternion  `json:"orientation"`
	OrbitRadius    float64     `json:"orbit_radius"`
	OrbitSpeed     float64     `json:"orbit_speed"`
	OrbitAngle     float64     `json:"orbit_angle"`
	InclinationDeg float64     `json:"inclination_deg"`
	MarkerSize     float64     `json:"marker_size"`
	Label          *LabelState `json:"label,omitempty"`
	GroundTrack    GeoPoint    `json:"ground_track"`

	// Trail holds interleaved x,y,z floats, oldest first, in the group frame.
	Trail []float32 `json:"trail,omitempty"`
}

// BodyState tracks the rotation of the central body's layers. AxialTiltDeg
// is the fixed tilt of the body group about the scene Z axis; satellites are
// parented to it.
type BodyState struct {
	RadiusKm          float64 `json:"radius_km"`
	AxialTiltDeg      float64 `json:"axial_tilt_deg"`
	SurfaceRotation   float64 `json:"surface_rotation"`
	CloudRotation     float64 `json:"cloud_rotation"`
	StarfieldRotation float64 `json:"starfield_rotation"`
}

// Frame is everything a renderer needs to draw one animation frame.
type Frame struct {
	Index      uint64           `json:"index"`
	Time       time.Time        `json:"time"`
	Camera     Vector           `json:"camera"`
	Body       BodyState        `json:"body"`
	Satellites []SatelliteState `json:"satellites"`
}
