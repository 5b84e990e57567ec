package body

import (
	"errors"
	"log/slog"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Versifine/gravwalk/internal/event"
	"github.com/Versifine/gravwalk/internal/gravity"
	"github.com/Versifine/gravwalk/internal/physics"
	"github.com/Versifine/gravwalk/internal/scene"
)

var ErrNoScene = errors.New("no scene loaded")

// Body runs one character controller inside the current scene. It turns raw
// input into controller input, feeds it gravity from the scene's sources and
// publishes ground and gravity transitions on the bus. Methods are safe for
// concurrent use.
type Body struct {
	mu       sync.Mutex
	settings physics.Settings
	shape    physics.CapsuleShape
	ctrl     *physics.Controller
	scene    *scene.Scene
	triggers *gravity.Triggers
	bus      *event.Bus
	jumpHeld bool
	last     physics.Frame
}

// New validates the controller configuration. A scene must be loaded before
// the first Tick. bus may be nil.
func New(settings physics.Settings, shape physics.CapsuleShape, bus *event.Bus) (*Body, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Body{settings: settings, shape: shape, bus: bus}, nil
}

// Load moves the body into sc: a fresh controller over the scene's world,
// spawned upright at the scene's spawn point with the gravity found there.
func (b *Body) Load(sc *scene.Scene) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	settings := b.settings
	if b.ctrl != nil {
		settings = b.ctrl.Settings()
	}
	settings.Gravity = sc.GravityAt(sc.Spawn)

	ctrl, err := physics.NewController(settings, b.shape, sc.Store)
	if err != nil {
		return err
	}
	ctrl.Teleport(sc.Spawn, physics.Identity)

	b.ctrl = ctrl
	b.scene = sc
	b.settings = settings
	b.triggers = gravity.NewTriggers(sc.Volumes)
	b.triggers.Reset(sc.Spawn)
	b.jumpHeld = false
	b.last = physics.Frame{
		Position:    sc.Spawn,
		Up:          ctrl.Up(),
		Gravity:     settings.Gravity,
		Ground:      ctrl.Ground(),
		Orientation: physics.Identity,
	}

	slog.Debug("Scene loaded", "scene", sc.Name, "spawn", sc.Spawn, "gravity", settings.Gravity)
	b.publish(event.EventSceneLoaded, &event.SceneEvent{Name: sc.Name, Spawn: sc.Spawn})
	return nil
}

// Tick advances the body by one frame.
func (b *Body) Tick(in InputState, dt float64) (physics.Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctrl == nil {
		return physics.Frame{}, ErrNoScene
	}

	if b.scene.Field != nil {
		// A field that vanishes, e.g. at a planet's centre, leaves gravity as is.
		_ = b.ctrl.SetGravity(b.scene.Field.At(b.ctrl.Body().Position))
	}

	jump := in.Jump && !b.jumpHeld
	b.jumpHeld = in.Jump

	frame := b.ctrl.Tick(physics.Input{
		Move:          clampMove(in.Move),
		Jump:          jump,
		CameraForward: cameraForward(b.ctrl.Body().Orientation, in.Yaw, in.Pitch),
	}, dt)

	if v, ok := b.triggers.Update(frame.Position); ok {
		if err := b.ctrl.SetGravity(v.Gravity); err == nil {
			slog.Debug("Gravity volume entered", "volume", v.Name, "gravity", v.Gravity)
			b.publish(event.EventGravityChanged, &event.GravityEvent{
				Frame:   frame.Index,
				Gravity: v.Gravity,
				Source:  event.SourceVolume,
				Volume:  v.Name,
			})
		}
	}

	b.publishTransitions(b.last, frame)
	b.last = frame
	return frame, nil
}

func (b *Body) publishTransitions(prev, cur physics.Frame) {
	if cur.Jumped() {
		b.publish(event.EventJumped, &event.JumpEvent{Frame: cur.Index, Speed: cur.JumpSpeed})
	}
	switch {
	case cur.Ground.Grounded && !prev.Ground.Grounded:
		b.publish(event.EventLanded, &event.LandedEvent{
			Frame:  cur.Index,
			Point:  cur.Ground.Point,
			Normal: cur.Ground.Normal,
			Speed:  r3.Norm(cur.Velocity),
		})
	case !cur.Ground.Grounded && prev.Ground.Grounded:
		b.publish(event.EventLeftGround, &event.LeftGroundEvent{
			Frame:  cur.Index,
			Jumped: cur.Ground.FramesSinceJump <= physics.CoyoteJumpFrames,
		})
	}
}

func (b *Body) publish(name string, evt any) {
	if b.bus != nil {
		b.bus.Publish(name, evt)
	}
}

// SetGravity overrides gravity until the next field or volume write.
func (b *Body) SetGravity(g r3.Vec, source event.GravitySource) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctrl == nil {
		return ErrNoScene
	}
	if err := b.ctrl.SetGravity(g); err != nil {
		return err
	}
	b.settings.Gravity = g
	b.publish(event.EventGravityChanged, &event.GravityEvent{Frame: b.last.Index, Gravity: g, Source: source})
	return nil
}

// ApplySettings swaps the tunable configuration. The current gravity is kept
// since it belongs to the scene's sources, not to the configuration.
func (b *Body) ApplySettings(s physics.Settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctrl != nil {
		s.Gravity = b.ctrl.Gravity()
		if err := b.ctrl.ApplySettings(s); err != nil {
			return err
		}
	} else if err := s.Validate(); err != nil {
		return err
	}
	b.settings = s
	return nil
}

func (b *Body) SetMaxGroundAngle(degrees float64) error {
	b.mu.Lock()
	s := b.settings
	if b.ctrl != nil {
		s = b.ctrl.Settings()
	}
	b.mu.Unlock()

	s.MaxGroundAngle = degrees
	return b.ApplySettings(s)
}

// Teleport moves the body without changing scenes. Volumes containing pos do
// not fire.
func (b *Body) Teleport(pos r3.Vec) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctrl == nil {
		return ErrNoScene
	}
	b.ctrl.Teleport(pos, b.ctrl.Body().Orientation)
	b.triggers.Reset(pos)
	b.jumpHeld = false
	b.last.Position = pos
	b.last.Velocity = r3.Vec{}
	b.last.Ground = b.ctrl.Ground()
	return nil
}

// Frame returns the outcome of the most recent Tick.
func (b *Body) Frame() physics.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *Body) Settings() physics.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl != nil {
		return b.ctrl.Settings()
	}
	return b.settings
}

func (b *Body) SceneName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scene == nil {
		return ""
	}
	return b.scene.Name
}

// GroundContact is the last ground point and normal; ok is false while
// airborne.
func (b *Body) GroundContact() (point, normal r3.Vec, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctrl == nil {
		return r3.Vec{}, r3.Vec{}, false
	}
	return b.ctrl.GroundContact()
}
