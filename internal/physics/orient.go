package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// alignToGravity turns orientation so its LocalUp approaches -gravity by at
// most maxDegrees. When the body is upside down within
// InvertedAlignTolerance the shortest arc is undefined, so it first leans
// toward the axis perpendicular to gravity and the camera.
func alignToGravity(orientation r3.Rotation, gravity, cameraForward r3.Vec, maxDegrees float64) r3.Rotation {
	up := orientation.Rotate(LocalUp)
	target := r3.Scale(-1, gravity)
	if math.Abs(angleBetween(up, target)-180) < InvertedAlignTolerance {
		target = normalize(r3.Cross(target, cameraForward))
	}
	goal := mulRotation(fromToRotation(up, target), orientation)
	return rotateTowards(orientation, goal, maxDegrees)
}
