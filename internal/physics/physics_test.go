package physics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

type penetration struct {
	direction r3.Vec
	distance  float64
}

// mockQuery answers every query from fixed data and counts single casts.
type mockQuery struct {
	overlaps     []ShapeID
	penetrations map[ShapeID]penetration
	castAll      []Hit
	cast         *Hit
	castCalls    int
}

func (m *mockQuery) OverlapBox(_ Box, _ uint32, results []ShapeID) int {
	return copy(results, m.overlaps)
}

func (m *mockQuery) ComputePenetration(_ Capsule, shape ShapeID) (r3.Vec, float64, bool) {
	p, ok := m.penetrations[shape]
	return p.direction, p.distance, ok
}

func (m *mockQuery) CapsuleCastAll(_ Capsule, _ r3.Vec, _ float64, _ uint32, results []Hit) int {
	return copy(results, m.castAll)
}

func (m *mockQuery) CapsuleCast(Capsule, r3.Vec, float64, uint32) (Hit, bool) {
	m.castCalls++
	if m.cast == nil {
		return Hit{}, false
	}
	return *m.cast, true
}

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func vecNear(t *testing.T, got, want r3.Vec, tol float64, field string) {
	t.Helper()
	if r3.Norm(r3.Sub(got, want)) > tol {
		t.Fatalf("%s = %v, want %v (tol=%g)", field, got, want, tol)
	}
}

func tilted(degrees float64) r3.Vec {
	rad := degrees * math.Pi / 180
	return r3.Vec{X: math.Sin(rad), Y: math.Cos(rad)}
}

func newTestController(t *testing.T, q QueryProvider) *Controller {
	t.Helper()
	c, err := NewController(DefaultSettings(), DefaultCapsuleShape(), q)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestAntiGravity(t *testing.T) {
	tests := []r3.Vec{
		{Y: -9.8},
		{Y: 9.8},
		{X: 3, Y: -4},
		{X: -1, Y: 1, Z: 1},
		{Z: 1e-3},
	}
	for _, g := range tests {
		up := AntiGravity(g)
		approxEqual(t, r3.Norm(up), 1, 1e-12, "|antiGravity|")
		vecNear(t, up, r3.Unit(r3.Scale(-1, g)), 1e-12, "antiGravity")
	}
	if up := AntiGravity(r3.Vec{}); !isZero(up) {
		t.Fatalf("AntiGravity(0) = %v, want zero", up)
	}
}

func TestClassifyGround(t *testing.T) {
	up := r3.Vec{Y: 1}
	minDot := DefaultSettings().MinGroundDot()

	tests := []struct {
		name         string
		hits         []Hit
		minDot       float64
		wantGrounded bool
		wantNormal   r3.Vec
		wantPoint    r3.Vec
	}{
		{
			name:       "no hits",
			minDot:     minDot,
			wantNormal: up,
		},
		{
			name:         "flat with zero max angle",
			hits:         []Hit{{Normal: up, Point: r3.Vec{X: 1}}},
			minDot:       1,
			wantGrounded: true,
			wantNormal:   up,
			wantPoint:    r3.Vec{X: 1},
		},
		{
			name:         "exactly at the limit",
			hits:         []Hit{{Normal: tilted(25)}},
			minDot:       minDot,
			wantGrounded: true,
			wantNormal:   tilted(25),
		},
		{
			name:       "steeper than the limit",
			hits:       []Hit{{Normal: tilted(30), Point: r3.Vec{Z: 2}}},
			minDot:     minDot,
			wantNormal: tilted(30),
			wantPoint:  r3.Vec{Z: 2},
		},
		{
			name: "steep hit still averaged",
			hits: []Hit{
				{Normal: up, Point: r3.Vec{X: -1}},
				{Normal: r3.Vec{X: 1}, Point: r3.Vec{X: 1, Y: 2}},
			},
			minDot:       minDot,
			wantGrounded: true,
			wantNormal:   r3.Unit(r3.Vec{X: 1, Y: 1}),
			wantPoint:    r3.Vec{Y: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grounded, normal, point := classifyGround(tt.hits, up, tt.minDot)
			if grounded != tt.wantGrounded {
				t.Fatalf("grounded = %v, want %v", grounded, tt.wantGrounded)
			}
			vecNear(t, normal, tt.wantNormal, 1e-12, "normal")
			vecNear(t, point, tt.wantPoint, 1e-12, "point")
		})
	}
}

func TestFollowSurfacePreservesSpeed(t *testing.T) {
	tests := []struct {
		name   string
		v      r3.Vec
		normal r3.Vec
		want   r3.Vec
	}{
		{"bends along floor", r3.Vec{X: 3, Y: 4}, r3.Vec{Y: 1}, r3.Vec{X: 5}},
		{"into surface untouched", r3.Vec{X: 3, Y: -4}, r3.Vec{Y: 1}, r3.Vec{X: 3, Y: -4}},
		{"tangent untouched", r3.Vec{Z: 2}, r3.Vec{Y: 1}, r3.Vec{Z: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := followSurface(tt.v, tt.normal)
			vecNear(t, got, tt.want, 1e-12, "velocity")
			approxEqual(t, r3.Norm(got), r3.Norm(tt.v), 1e-12, "speed")
		})
	}

	v := r3.Vec{X: 1.3, Y: 0.7, Z: -2.1}
	n := tilted(20)
	got := followSurface(v, n)
	approxEqual(t, r3.Norm(got), r3.Norm(v), 1e-12, "speed on slope")
	approxEqual(t, r3.Dot(got, n), 0, 1e-12, "dot(v, n)")
}

func TestDepenetrate(t *testing.T) {
	up := r3.Vec{Y: 1}
	minDot := DefaultSettings().MinGroundDot()
	velocity := r3.Vec{X: 2, Y: -3, Z: 0.5}

	t.Run("vertical wall", func(t *testing.T) {
		move, stop := depenetrate(r3.Vec{X: -1}, 0.2, velocity, up, up, minDot)
		vecNear(t, move, r3.Vec{X: -0.2}, 1e-12, "move")
		vecNear(t, stop, r3.Vec{X: 2}, 1e-12, "stop")
		after := r3.Sub(velocity, stop)
		approxEqual(t, after.Y, velocity.Y, 1e-12, "vertical velocity")
	})

	t.Run("steep overhang", func(t *testing.T) {
		dir := r3.Vec{X: -math.Sin(math.Pi / 3), Y: -math.Cos(math.Pi / 3)}
		move, stop := depenetrate(dir, 0.1, velocity, up, up, minDot)
		approxEqual(t, move.Y, 0, 1e-12, "move.y")
		approxEqual(t, stop.Y, 0, 1e-12, "stop.y")
	})

	t.Run("walkable floor", func(t *testing.T) {
		move, stop := depenetrate(up, 0.05, velocity, up, up, minDot)
		vecNear(t, move, r3.Vec{Y: 0.05}, 1e-12, "move")
		vecNear(t, stop, r3.Vec{Y: -3}, 1e-12, "stop")
	})

	t.Run("separating velocity is removed too", func(t *testing.T) {
		_, stop := depenetrate(up, 0.05, r3.Vec{Y: 2}, up, up, minDot)
		vecNear(t, stop, r3.Vec{Y: 2}, 1e-12, "stop")
	})
}

func TestJumpImpulseIsAdditive(t *testing.T) {
	c := newTestController(t, &mockQuery{})
	c.ground = GroundState{Grounded: true, Normal: r3.Vec{Y: 1}, FramesSinceJump: 10}
	c.velocity = r3.Vec{X: 4, Y: -0.3, Z: -1}

	speed := c.integrate(Input{Jump: true, CameraForward: r3.Vec{Z: 1}}, 0)

	want := math.Sqrt(2 * 9.8 * DefaultJumpHeight)
	approxEqual(t, speed, want, 1e-12, "jump speed")
	approxEqual(t, speed, 6.2609903369994, 1e-9, "jump speed")
	approxEqual(t, c.velocity.Y, -0.3+want, 1e-12, "velocity.y")
	if c.ground.FramesSinceJump != 0 {
		t.Fatalf("FramesSinceJump = %d, want 0", c.ground.FramesSinceJump)
	}
}

func TestJumpRequiresGround(t *testing.T) {
	c := newTestController(t, &mockQuery{})
	if speed := c.integrate(Input{Jump: true, CameraForward: r3.Vec{Z: 1}}, 0); speed != 0 {
		t.Fatalf("airborne jump speed = %v, want 0", speed)
	}
}

func TestRetargetSnapsIntent(t *testing.T) {
	v := retarget(r3.Vec{X: 7, Y: -2, Z: 3}, r3.Vec{Y: 1}, r3.Vec{Z: 1}, r2.Vec{X: 0.5, Y: -1})
	vecNear(t, v, r3.Vec{X: 0.5, Y: -2, Z: -1}, 1e-12, "velocity")
}

func TestJumpFrameSkipsSnap(t *testing.T) {
	q := &mockQuery{cast: &Hit{Normal: r3.Vec{Y: 1}, Distance: 0.2}}
	c := newTestController(t, q)
	c.ground = GroundState{Grounded: true, Normal: r3.Vec{Y: 1}, FramesSinceJump: 10}

	f := c.Tick(Input{Jump: true, CameraForward: r3.Vec{Z: 1}}, 1.0/60)

	if !f.Jumped() {
		t.Fatal("expected a jump")
	}
	if f.Ground.FramesSinceJump != 1 {
		t.Fatalf("FramesSinceJump = %d, want 1", f.Ground.FramesSinceJump)
	}
	if f.Ground.Grounded || f.Snapped || q.castCalls != 0 {
		t.Fatalf("jump frame should not snap: grounded=%v snapped=%v casts=%d", f.Ground.Grounded, f.Snapped, q.castCalls)
	}
	if f.Ground.FramesSinceGrounded != 1 {
		t.Fatalf("FramesSinceGrounded = %d, want 1", f.Ground.FramesSinceGrounded)
	}
}

func TestCoyoteSnap(t *testing.T) {
	tests := []struct {
		name        string
		sinceGround int
		hit         *Hit
		wantSnap    bool
	}{
		{"walked off a ledge", 0, &Hit{Normal: r3.Vec{Y: 1}, Point: r3.Vec{Y: -0.3}, Distance: 0.3}, true},
		{"window expired", 1, &Hit{Normal: r3.Vec{Y: 1}, Distance: 0.3}, false},
		{"too steep", 0, &Hit{Normal: tilted(40), Distance: 0.3}, false},
		{"nothing below", 0, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &mockQuery{cast: tt.hit}
			c := newTestController(t, q)
			c.ground = GroundState{Normal: r3.Vec{Y: 1}, FramesSinceGrounded: tt.sinceGround, FramesSinceJump: 30}
			c.velocity = r3.Vec{X: 1, Y: 0.5}

			f := c.Tick(Input{Move: r2.Vec{X: 1}, CameraForward: r3.Vec{Z: 1}}, 1.0/60)

			if f.Snapped != tt.wantSnap || f.Ground.Grounded != tt.wantSnap {
				t.Fatalf("snapped=%v grounded=%v, want %v", f.Snapped, f.Ground.Grounded, tt.wantSnap)
			}
			if !tt.wantSnap {
				return
			}
			if f.Ground.FramesSinceGrounded != 0 {
				t.Fatalf("FramesSinceGrounded = %d, want 0", f.Ground.FramesSinceGrounded)
			}
			vecNear(t, f.Ground.Point, tt.hit.Point, 1e-12, "ground point")
			if f.Velocity.Y > 1e-12 {
				t.Fatalf("velocity still leaves the ground: %v", f.Velocity)
			}
		})
	}
}

func TestGroundedNormalDefaultsToUp(t *testing.T) {
	c := newTestController(t, &mockQuery{})
	if err := c.SetGravity(r3.Vec{X: 2}); err != nil {
		t.Fatalf("SetGravity: %v", err)
	}
	f := c.Tick(Input{CameraForward: r3.Vec{Z: 1}}, 1.0/60)
	if f.Ground.Grounded {
		t.Fatal("no hits should leave the body airborne")
	}
	vecNear(t, f.Ground.Normal, r3.Vec{X: -1}, 1e-12, "ground normal")
	vecNear(t, f.Ground.Point, r3.Vec{}, 0, "ground point")
}

func TestRotateTowardsIsBounded(t *testing.T) {
	target := r3.NewRotation(math.Pi/2, r3.Vec{X: 1})

	step := rotateTowards(Identity, target, 10)
	approxEqual(t, rotationAngle(Identity, step), 10, 1e-6, "first step")
	approxEqual(t, rotationAngle(step, target), 80, 1e-6, "remaining")

	if got := rotateTowards(Identity, target, 200); rotationAngle(got, target) != 0 {
		t.Fatalf("large step should land on the target, %v left", rotationAngle(got, target))
	}
	if got := rotateTowards(Identity, target, 0); rotationAngle(got, Identity) != 0 {
		t.Fatal("zero step should not rotate")
	}
}

func TestFromToRotation(t *testing.T) {
	tests := []struct {
		name     string
		from, to r3.Vec
	}{
		{"quarter", r3.Vec{Y: 1}, r3.Vec{X: 1}},
		{"opposite", r3.Vec{Y: 1}, r3.Vec{Y: -1}},
		{"opposite along x", r3.Vec{X: 1}, r3.Vec{X: -1}},
		{"oblique", r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{Z: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fromToRotation(tt.from, tt.to)
			vecNear(t, r.Rotate(r3.Unit(tt.from)), r3.Unit(tt.to), 1e-9, "rotated")
		})
	}
}

func TestAlignToGravity(t *testing.T) {
	camera := r3.Vec{Z: 1}

	t.Run("already aligned", func(t *testing.T) {
		got := alignToGravity(Identity, DefaultGravity, camera, 1.5)
		vecNear(t, got.Rotate(LocalUp), LocalUp, 1e-12, "up")
	})

	t.Run("inverted leans sideways", func(t *testing.T) {
		got := alignToGravity(Identity, r3.Vec{Y: 9.8}, camera, 1.5)
		up := got.Rotate(LocalUp)
		approxEqual(t, angleBetween(up, LocalUp), 1.5, 1e-6, "turned")
		if up.X >= 0 {
			t.Fatalf("up = %v, want a lean toward -x", up)
		}
	})

	t.Run("partial step", func(t *testing.T) {
		g := r3.Vec{X: 9.8}
		got := alignToGravity(Identity, g, camera, 30)
		up := got.Rotate(LocalUp)
		approxEqual(t, angleBetween(up, LocalUp), 30, 1e-6, "turned")
		approxEqual(t, angleBetween(up, r3.Scale(-1, g)), 60, 1e-6, "left")
		back := mulRotation(inverseRotation(got), got)
		approxEqual(t, rotationAngle(back, Identity), 0, 0, "inverse")
	})
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr error
	}{
		{"defaults", func(s *Settings) {}, nil},
		{"zero gravity", func(s *Settings) { s.Gravity = r3.Vec{} }, ErrZeroGravity},
		{"tiny gravity", func(s *Settings) { s.Gravity = r3.Vec{Y: 1e-7} }, ErrZeroGravity},
		{"negative speed", func(s *Settings) { s.MaxSpeed = -1 }, errAny},
		{"negative friction", func(s *Settings) { s.AirFriction = -0.1 }, errAny},
		{"angle above 90", func(s *Settings) { s.MaxGroundAngle = 91 }, errAny},
		{"flat only", func(s *Settings) { s.MaxGroundAngle = 0 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			switch {
			case tt.wantErr == nil && err != nil:
				t.Fatalf("Validate() = %v, want nil", err)
			case tt.wantErr == errAny && err == nil:
				t.Fatal("Validate() = nil, want error")
			case tt.wantErr != nil && tt.wantErr != errAny && !errors.Is(err, tt.wantErr):
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

var errAny = errors.New("any error")

func TestNewControllerValidation(t *testing.T) {
	if _, err := NewController(DefaultSettings(), DefaultCapsuleShape(), nil); !errors.Is(err, ErrNilQuery) {
		t.Fatalf("nil query err = %v", err)
	}
	if _, err := NewController(DefaultSettings(), CapsuleShape{Radius: 1, Height: 1}, &mockQuery{}); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("short capsule err = %v", err)
	}
	s := DefaultSettings()
	s.Gravity = r3.Vec{}
	if _, err := NewController(s, DefaultCapsuleShape(), &mockQuery{}); !errors.Is(err, ErrZeroGravity) {
		t.Fatalf("zero gravity err = %v", err)
	}
}

func TestControllerSetters(t *testing.T) {
	c := newTestController(t, &mockQuery{})

	if err := c.SetGravity(r3.Vec{}); !errors.Is(err, ErrZeroGravity) {
		t.Fatalf("SetGravity(0) = %v", err)
	}
	if c.Gravity() != DefaultGravity {
		t.Fatalf("gravity changed to %v after rejected write", c.Gravity())
	}

	if err := c.SetMaxGroundAngle(60); err != nil {
		t.Fatalf("SetMaxGroundAngle: %v", err)
	}
	approxEqual(t, c.MinGroundDot(), 0.5, 1e-12, "minGroundDot")
	if err := c.SetMaxGroundAngle(-5); err == nil {
		t.Fatal("negative angle should be rejected")
	}
	approxEqual(t, c.MinGroundDot(), 0.5, 1e-12, "minGroundDot after rejected write")

	c.SetVelocity(r3.Vec{X: 3})
	c.Teleport(r3.Vec{Y: 5}, r3.Rotation{Real: 2})
	if c.Velocity() != (r3.Vec{}) || c.Body().Position != (r3.Vec{Y: 5}) {
		t.Fatalf("teleport left velocity=%v position=%v", c.Velocity(), c.Body().Position)
	}
	if c.Body().Orientation != Identity {
		t.Fatalf("orientation = %v, want normalised identity", c.Body().Orientation)
	}
	if _, _, ok := c.GroundContact(); ok {
		t.Fatal("teleport should clear ground contact")
	}
}

func TestCapsuleFollowsOrientation(t *testing.T) {
	b := Body{
		Position:    r3.Vec{X: 1},
		Orientation: r3.NewRotation(math.Pi/2, r3.Vec{Z: 1}),
		Shape:       DefaultCapsuleShape(),
	}
	c := b.capsule(GroundSkin)
	vecNear(t, c.P1, r3.Vec{X: 1 - 0.45}, 1e-12, "p1")
	vecNear(t, c.P2, r3.Vec{X: 1 + 0.45}, 1e-12, "p2")
	approxEqual(t, c.Radius, 0.5, 0, "radius")
}

func TestResolveCollisionsIsAdditive(t *testing.T) {
	q := &mockQuery{
		overlaps: []ShapeID{0, 1, 2},
		penetrations: map[ShapeID]penetration{
			0: {direction: r3.Vec{Y: 1}, distance: 0.1},
			1: {direction: r3.Vec{X: -1}, distance: 0.2},
		},
	}
	c := newTestController(t, q)
	c.velocity = r3.Vec{X: 1, Y: -2, Z: 0.5}

	if n := c.resolveCollisions(); n != 2 {
		t.Fatalf("contacts = %d, want 2", n)
	}
	vecNear(t, c.body.Position, r3.Vec{X: -0.2, Y: 0.1}, 1e-12, "position")
	vecNear(t, c.velocity, r3.Vec{Z: 0.5}, 1e-12, "velocity")
}
