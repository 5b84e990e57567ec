// Package gravity holds the sources that decide which gravity vector a body
// is handed each frame. Sources do not coordinate: the body applies them in a
// fixed order and the last write before the controller's tick wins.
package gravity

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Field derives gravity from the body position, re-evaluated every frame.
type Field interface {
	At(position r3.Vec) r3.Vec
}

// Constant is a uniform field.
type Constant r3.Vec

func (c Constant) At(r3.Vec) r3.Vec {
	return r3.Vec(c)
}

// Spherical pulls along the line through Origin: (position - Origin) * Strength.
// A negative Strength attracts, a positive one repels. The magnitude grows
// with distance and vanishes at the origin itself.
type Spherical struct {
	Origin   r3.Vec
	Strength float64
}

func (s Spherical) At(position r3.Vec) r3.Vec {
	return r3.Scale(s.Strength, r3.Sub(position, s.Origin))
}

// Volume overwrites gravity with a fixed vector when a body enters Bounds.
// Leaving the volume restores nothing.
type Volume struct {
	Name    string
	Bounds  r3.Box
	Gravity r3.Vec
}

// Triggers tracks which volumes one body is inside so each fires only on entry.
type Triggers struct {
	volumes []Volume
	inside  []bool
}

func NewTriggers(volumes []Volume) *Triggers {
	return &Triggers{
		volumes: volumes,
		inside:  make([]bool, len(volumes)),
	}
}

// Reset records which volumes contain position without firing any of them.
// Used after spawning or teleporting.
func (t *Triggers) Reset(position r3.Vec) {
	for i, v := range t.volumes {
		t.inside[i] = v.Bounds.Contains(position)
	}
}

// Update fires every volume entered since the last call and returns the one
// evaluated last.
func (t *Triggers) Update(position r3.Vec) (Volume, bool) {
	var fired Volume
	ok := false
	for i, v := range t.volumes {
		in := v.Bounds.Contains(position)
		if in && !t.inside[i] {
			fired, ok = v, true
		}
		t.inside[i] = in
	}
	return fired, ok
}

func (t *Triggers) Volumes() []Volume {
	return t.volumes
}
