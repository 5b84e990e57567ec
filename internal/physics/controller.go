package physics

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Controller moves one capsule body under an arbitrary gravity vector. All of
// its state is private to the instance and mutated only by Tick and the
// setters; it is not safe for concurrent use.
type Controller struct {
	settings     Settings
	minGroundDot float64
	query        QueryProvider

	body     Body
	velocity r3.Vec
	ground   GroundState
	frame    int64

	overlaps   [MaxOverlapResults]ShapeID
	groundHits [MaxGroundHits]Hit
}

// NewController validates settings and shape and places an upright body at
// the origin. Zero gravity is rejected here rather than per frame.
func NewController(settings Settings, shape CapsuleShape, query QueryProvider) (*Controller, error) {
	if query == nil {
		return nil, ErrNilQuery
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		settings:     settings,
		minGroundDot: settings.MinGroundDot(),
		query:        query,
		body: Body{
			Orientation: Identity,
			HalfExtents: shape.HalfExtents(),
			Shape:       shape,
		},
	}
	c.ground.Normal = AntiGravity(settings.Gravity)
	return c, nil
}

// Tick advances the body by one frame of dt seconds:
// integrate, depenetrate, detect ground, align to gravity.
// The integrate stage reads the ground state produced by the previous frame.
func (c *Controller) Tick(in Input, dt float64) Frame {
	jumpSpeed := c.integrate(in, dt)

	c.ground.FramesSinceGrounded++
	c.ground.FramesSinceJump++

	contacts := c.resolveCollisions()
	hits, snapped := c.detectGround()
	c.body.Orientation = alignToGravity(c.body.Orientation, c.settings.Gravity, in.CameraForward, c.settings.GravityAlignSpeed*dt)

	c.frame++
	return Frame{
		Index:       c.frame,
		Position:    c.body.Position,
		Velocity:    c.velocity,
		Up:          c.body.Up(),
		Gravity:     c.settings.Gravity,
		Ground:      c.ground,
		JumpSpeed:   jumpSpeed,
		Contacts:    contacts,
		GroundHits:  hits,
		Snapped:     snapped,
		Orientation: c.body.Orientation,
	}
}

// SetGravity replaces the gravity snapshot used from the next Tick on. A
// vector without direction is rejected and the previous gravity kept.
func (c *Controller) SetGravity(g r3.Vec) error {
	if err := validateGravity(g); err != nil {
		return err
	}
	c.settings.Gravity = g
	return nil
}

func (c *Controller) Gravity() r3.Vec {
	return c.settings.Gravity
}

func (c *Controller) Settings() Settings {
	return c.settings
}

// ApplySettings swaps the whole configuration and recomputes the ground
// threshold. Invalid settings leave the controller unchanged.
func (c *Controller) ApplySettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.settings = s
	c.minGroundDot = s.MinGroundDot()
	return nil
}

// SetMaxGroundAngle changes the walkable slope limit in degrees.
func (c *Controller) SetMaxGroundAngle(degrees float64) error {
	s := c.settings
	s.MaxGroundAngle = degrees
	return c.ApplySettings(s)
}

// MinGroundDot returns the current slope acceptance threshold.
func (c *Controller) MinGroundDot() float64 {
	return c.minGroundDot
}

// Teleport places the body at pos with the given orientation and clears its
// momentum and ground history.
func (c *Controller) Teleport(pos r3.Vec, orientation r3.Rotation) {
	c.body.Position = pos
	c.body.Orientation = normalizeRotation(orientation)
	c.velocity = r3.Vec{}
	c.ground = GroundState{Normal: AntiGravity(c.settings.Gravity)}
}

// SetVelocity overrides the body's momentum.
func (c *Controller) SetVelocity(v r3.Vec) {
	c.velocity = v
}

func (c *Controller) Body() Body {
	return c.body
}

func (c *Controller) Velocity() r3.Vec {
	return c.velocity
}

func (c *Controller) Ground() GroundState {
	return c.ground
}

func (c *Controller) Up() r3.Vec {
	return c.body.Up()
}

// GroundContact exposes the last ground point and normal for debug drawing.
// ok is false while airborne.
func (c *Controller) GroundContact() (point, normal r3.Vec, ok bool) {
	return c.ground.Point, c.ground.Normal, c.ground.Grounded
}
