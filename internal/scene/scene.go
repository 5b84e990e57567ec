// Package scene turns scene definitions into live worlds and swaps between
// them at runtime.
package scene

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Versifine/gravwalk/internal/config"
	"github.com/Versifine/gravwalk/internal/gravity"
	"github.com/Versifine/gravwalk/internal/world"
)

var ErrUnknownScene = errors.New("unknown scene")

// Scene is a built world: static colliders plus the gravity sources that act
// on a body inside it. Field is nil when gravity only changes through volumes.
type Scene struct {
	Name    string
	Spawn   r3.Vec
	Gravity r3.Vec
	Field   gravity.Field
	Store   *world.Store
	Volumes []gravity.Volume
}

func Build(cfg config.SceneConfig) (*Scene, error) {
	s := &Scene{
		Name:    cfg.Name,
		Spawn:   cfg.Spawn,
		Gravity: cfg.Gravity,
		Store:   world.NewStore(),
	}

	switch cfg.Field.Kind {
	case "", "none":
	case "constant":
		s.Field = gravity.Constant(cfg.Field.Vector)
	case "spherical":
		s.Field = gravity.Spherical{Origin: cfg.Field.Origin, Strength: cfg.Field.Strength}
	default:
		return nil, fmt.Errorf("scene %q: unknown field kind %q", cfg.Name, cfg.Field.Kind)
	}

	for i, sh := range cfg.Shapes {
		shape, err := buildShape(sh)
		if err != nil {
			return nil, fmt.Errorf("scene %q: shape %d: %w", cfg.Name, i, err)
		}
		layer := sh.Layer
		if layer == 0 {
			layer = world.DefaultLayer
		}
		s.Store.Add(shape, layer)
	}

	for _, v := range cfg.Volumes {
		s.Volumes = append(s.Volumes, gravity.Volume{
			Name:    v.Name,
			Bounds:  r3.Box{Min: v.Min, Max: v.Max}.Canon(),
			Gravity: v.Gravity,
		})
	}
	return s, nil
}

func buildShape(sh config.ShapeConfig) (world.Shape, error) {
	switch sh.Kind {
	case "plane":
		if r3.Norm(sh.Normal) == 0 {
			return nil, errors.New("plane normal must not be zero")
		}
		return world.NewPlane(sh.Normal, sh.Point), nil
	case "sphere":
		if sh.Radius <= 0 {
			return nil, fmt.Errorf("radius must be positive: %v", sh.Radius)
		}
		return world.Sphere{Center: sh.Center, Radius: sh.Radius}, nil
	case "shell":
		if sh.Radius <= 0 {
			return nil, fmt.Errorf("radius must be positive: %v", sh.Radius)
		}
		return world.Shell{Center: sh.Center, Radius: sh.Radius}, nil
	default:
		return nil, fmt.Errorf("unknown shape kind %q", sh.Kind)
	}
}

// GravityAt is the gravity a body spawned at position should start with.
func (s *Scene) GravityAt(position r3.Vec) r3.Vec {
	if s.Field == nil {
		return s.Gravity
	}
	if g := s.Field.At(position); r3.Norm(g) > 0 {
		return g
	}
	return s.Gravity
}
