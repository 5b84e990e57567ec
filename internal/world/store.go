package world

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Versifine/gravwalk/internal/physics"
)

const DefaultLayer uint32 = 1

// Shape is a static solid the Store can query. Sweep is only called for
// capsules that do not already penetrate the shape.
type Shape interface {
	OverlapsBox(box physics.Box) bool
	Penetration(capsule physics.Capsule) (direction r3.Vec, distance float64, ok bool)
	Sweep(capsule physics.Capsule, direction r3.Vec, maxDistance float64) (physics.Hit, bool)
}

type entry struct {
	shape Shape
	layer uint32
}

// Store is an in-memory physics.QueryProvider over a fixed list of shapes.
type Store struct {
	mu      sync.RWMutex
	entries []entry
}

var _ physics.QueryProvider = (*Store)(nil)

func NewStore() *Store {
	return &Store{}
}

// Add registers shape on layer and returns its id.
func (s *Store) Add(shape Shape, layer uint32) physics.ShapeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{shape: shape, layer: layer})
	return physics.ShapeID(len(s.entries) - 1)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Shape(id physics.ShapeID) (Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id)
}

func (s *Store) lookup(id physics.ShapeID) (Shape, bool) {
	if id < 0 || int(id) >= len(s.entries) {
		return nil, false
	}
	return s.entries[id].shape, true
}

func (s *Store) OverlapBox(box physics.Box, mask uint32, results []physics.ShapeID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i, e := range s.entries {
		if n == len(results) {
			break
		}
		if e.layer&mask == 0 || !e.shape.OverlapsBox(box) {
			continue
		}
		results[n] = physics.ShapeID(i)
		n++
	}
	return n
}

func (s *Store) ComputePenetration(capsule physics.Capsule, id physics.ShapeID) (r3.Vec, float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shape, ok := s.lookup(id)
	if !ok {
		return r3.Vec{}, 0, false
	}
	return shape.Penetration(capsule)
}

func (s *Store) CapsuleCastAll(capsule physics.Capsule, direction r3.Vec, maxDistance float64, mask uint32, results []physics.Hit) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := r3.Unit(direction)
	n := 0
	for i, e := range s.entries {
		if n == len(results) {
			break
		}
		if e.layer&mask == 0 {
			continue
		}
		if _, _, overlapping := e.shape.Penetration(capsule); overlapping {
			results[n] = physics.Hit{Normal: r3.Scale(-1, dir), Shape: physics.ShapeID(i)}
			n++
			continue
		}
		hit, ok := e.shape.Sweep(capsule, dir, maxDistance)
		if !ok {
			continue
		}
		hit.Shape = physics.ShapeID(i)
		results[n] = hit
		n++
	}
	return n
}

func (s *Store) CapsuleCast(capsule physics.Capsule, direction r3.Vec, maxDistance float64, mask uint32) (physics.Hit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := r3.Unit(direction)
	var best physics.Hit
	found := false
	for i, e := range s.entries {
		if e.layer&mask == 0 {
			continue
		}
		if _, _, overlapping := e.shape.Penetration(capsule); overlapping {
			continue
		}
		hit, ok := e.shape.Sweep(capsule, dir, maxDistance)
		if !ok || (found && hit.Distance >= best.Distance) {
			continue
		}
		hit.Shape = physics.ShapeID(i)
		best = hit
		found = true
	}
	return best, found
}
