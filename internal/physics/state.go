package physics

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Body is the controlled capsule's pose. It is owned by one Controller.
type Body struct {
	Position    r3.Vec
	Orientation r3.Rotation
	HalfExtents r3.Vec
	Shape       CapsuleShape
}

// Up returns the body's LocalUp axis in world space.
func (b Body) Up() r3.Vec {
	return b.Orientation.Rotate(LocalUp)
}

// capsule returns the world-space collider, shortened by inset at both ends.
func (b Body) capsule(inset float64) Capsule {
	half := b.Shape.Height/2 - b.Shape.Radius - inset
	axis := b.Orientation.Rotate(r3.Scale(half, LocalUp))
	return Capsule{
		P1:     r3.Add(b.Position, axis),
		P2:     r3.Sub(b.Position, axis),
		Radius: b.Shape.Radius,
	}
}

func (b Body) bounds() Box {
	return Box{Center: b.Position, HalfExtents: b.HalfExtents, Rotation: b.Orientation}
}

// GroundState is re-derived every frame except for the two counters, which
// only increase and reset to zero on landing and on jumping respectively.
// Normal is always a unit vector.
type GroundState struct {
	Grounded            bool
	Normal              r3.Vec
	Point               r3.Vec
	FramesSinceGrounded int
	FramesSinceJump     int
}

// Input is one frame of intent. Move must already be clamped to length 1;
// X is lateral and Y is forward relative to CameraForward. Jump is an edge
// trigger, true only on the frame the jump was requested.
type Input struct {
	Move          r2.Vec
	Jump          bool
	CameraForward r3.Vec
}

// Frame summarises the outcome of one Tick.
type Frame struct {
	Index       int64
	Position    r3.Vec
	Velocity    r3.Vec
	Up          r3.Vec
	Gravity     r3.Vec
	Ground      GroundState
	JumpSpeed   float64
	Contacts    int
	GroundHits  int
	Snapped     bool
	Orientation r3.Rotation
}

// Jumped reports whether a jump impulse was applied during the frame.
func (f Frame) Jumped() bool {
	return f.JumpSpeed > 0
}
