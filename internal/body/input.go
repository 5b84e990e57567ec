package body

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

const maxPitch = 89.0

// InputState is the raw per-frame intent from a player, script or console.
// Move axes are each in [-1, 1]; X strafes right, Y walks forward. Jump is
// the held state of the button. Yaw and Pitch aim the camera relative to the
// body, in degrees; positive pitch looks down.
type InputState struct {
	Move  r2.Vec
	Jump  bool
	Yaw   float64
	Pitch float64
}

// clampMove limits the combined intent to unit length.
func clampMove(m r2.Vec) r2.Vec {
	m = r2.Vec{X: clampAxis(m.X), Y: clampAxis(m.Y)}
	if n := r2.Norm(m); n > 1 {
		return r2.Scale(1/n, m)
	}
	return m
}

func clampAxis(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// cameraForward turns yaw and pitch into a world direction using the body's
// orientation as the camera's reference frame.
func cameraForward(orientation r3.Rotation, yaw, pitch float64) r3.Vec {
	pitch = math.Max(-maxPitch, math.Min(maxPitch, pitch))
	yawRad := yaw * math.Pi / 180
	pitchRad := pitch * math.Pi / 180
	local := r3.Vec{
		X: math.Sin(yawRad) * math.Cos(pitchRad),
		Y: -math.Sin(pitchRad),
		Z: math.Cos(yawRad) * math.Cos(pitchRad),
	}
	return orientation.Rotate(local)
}
