package physics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrZeroGravity  = errors.New("gravity vector has no direction")
	ErrInvalidShape = errors.New("invalid capsule shape")
	ErrNilQuery     = errors.New("query provider is nil")
)

// DefaultGravity points down the world Y axis.
var DefaultGravity = r3.Vec{Y: -9.8}

// Settings is the externally tunable controller configuration. Angles are in
// degrees, speeds in units per second.
type Settings struct {
	Gravity           r3.Vec
	MaxSpeed          float64
	GroundFriction    float64
	AirFriction       float64
	JumpHeight        float64
	MaxGroundAngle    float64
	GravityAlignSpeed float64
	CollisionMask     uint32
}

func DefaultSettings() Settings {
	return Settings{
		Gravity:           DefaultGravity,
		MaxSpeed:          DefaultMaxSpeed,
		GroundFriction:    DefaultGroundFriction,
		AirFriction:       DefaultAirFriction,
		JumpHeight:        DefaultJumpHeight,
		MaxGroundAngle:    DefaultMaxGroundAngle,
		GravityAlignSpeed: DefaultGravityAlignSpeed,
		CollisionMask:     DefaultCollisionMask,
	}
}

func (s Settings) Validate() error {
	if err := validateGravity(s.Gravity); err != nil {
		return err
	}
	if s.MaxSpeed < 0 {
		return fmt.Errorf("max speed must not be negative: %v", s.MaxSpeed)
	}
	if s.GroundFriction < 0 || s.AirFriction < 0 {
		return fmt.Errorf("friction must not be negative: ground=%v air=%v", s.GroundFriction, s.AirFriction)
	}
	if s.JumpHeight < 0 {
		return fmt.Errorf("jump height must not be negative: %v", s.JumpHeight)
	}
	if s.MaxGroundAngle < 0 || s.MaxGroundAngle > 90 {
		return fmt.Errorf("max ground angle must be within [0, 90]: %v", s.MaxGroundAngle)
	}
	if s.GravityAlignSpeed < 0 {
		return fmt.Errorf("gravity align speed must not be negative: %v", s.GravityAlignSpeed)
	}
	return nil
}

// MinGroundDot is the cosine of MaxGroundAngle: the smallest dot product
// between a surface normal and the anti-gravity direction that still counts
// as walkable ground.
func (s Settings) MinGroundDot() float64 {
	return math.Cos(s.MaxGroundAngle * math.Pi / 180)
}

func validateGravity(g r3.Vec) error {
	if r3.Norm(g) <= NormalizeEpsilon || math.IsNaN(r3.Norm(g)) {
		return ErrZeroGravity
	}
	return nil
}

// CapsuleShape is the body's collider in local space, centred on the body
// position with its axis along LocalUp.
type CapsuleShape struct {
	Radius float64
	Height float64
}

func DefaultCapsuleShape() CapsuleShape {
	return CapsuleShape{Radius: DefaultRadius, Height: DefaultHeight}
}

func (c CapsuleShape) Validate() error {
	if c.Radius <= 0 {
		return fmt.Errorf("%w: radius %v", ErrInvalidShape, c.Radius)
	}
	if c.Height < 2*c.Radius {
		return fmt.Errorf("%w: height %v shorter than diameter %v", ErrInvalidShape, c.Height, 2*c.Radius)
	}
	return nil
}

// HalfExtents is the half size of the capsule's upright bounding box.
func (c CapsuleShape) HalfExtents() r3.Vec {
	return r3.Vec{X: c.Radius, Y: c.Height / 2, Z: c.Radius}
}
