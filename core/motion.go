package core

import "gonum.org/v1/gonum/spatial/r3"

// Step advances s by one frame. The angle advances by a fixed per-frame
// increment, so the apparent orbital period follows the frame rate rather
// than wall-clock time. camera is the world-space camera position used to
// billboard the label.
//
// Step has no error path: NewSatellite guarantees a finite radius above one.
func Step(s *Satellite, camera r3.Vec) {
	s.Orbit.Angle = wrapAngle(s.Orbit.Angle + s.Orbit.Speed)
	pos := orbitPoint(s.Orbit.Radius, s.Orbit.Angle)

	s.Marker.Position = pos
	parent := s.parent()
	s.Marker.Orientation = faceOutward(parent, pos)

	if s.Label != nil {
		s.Label.Position = pos
		s.Label.Orientation = localLookAt(parent, pos, camera)
	}

	s.Trail.Push(pos)
}
