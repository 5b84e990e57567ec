package world

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Versifine/gravwalk/internal/physics"
)

// Plane is the solid half-space dot(Normal, x) < Offset. Normal is unit and
// points out of the solid.
type Plane struct {
	Normal r3.Vec
	Offset float64
}

// NewPlane builds the half-space whose surface passes through point.
func NewPlane(normal, point r3.Vec) Plane {
	n := unit(normal, physics.LocalUp)
	return Plane{Normal: n, Offset: r3.Dot(n, point)}
}

func (p Plane) distance(x r3.Vec) float64 {
	return r3.Dot(p.Normal, x) - p.Offset
}

func (p Plane) OverlapsBox(box physics.Box) bool {
	return p.distance(box.Center) <= boxRadius(box, p.Normal)
}

func (p Plane) Penetration(c physics.Capsule) (r3.Vec, float64, bool) {
	depth := c.Radius - math.Min(p.distance(c.P1), p.distance(c.P2))
	if depth <= physics.ContactTolerance {
		return r3.Vec{}, 0, false
	}
	return p.Normal, depth, true
}

func (p Plane) Sweep(c physics.Capsule, dir r3.Vec, maxDistance float64) (physics.Hit, bool) {
	closing := -r3.Dot(p.Normal, dir)
	if closing <= parallelEpsilon {
		return physics.Hit{}, false
	}
	s1, s2 := p.distance(c.P1), p.distance(c.P2)
	lowest := c.P1
	switch {
	case math.Abs(s1-s2) <= physics.ContactTolerance:
		lowest = r3.Scale(0.5, r3.Add(c.P1, c.P2))
	case s2 < s1:
		lowest = c.P2
	}
	t := math.Max(0, (math.Min(s1, s2)-c.Radius)/closing)
	if t > maxDistance {
		return physics.Hit{}, false
	}
	contact := r3.Sub(r3.Add(lowest, r3.Scale(t, dir)), r3.Scale(c.Radius, p.Normal))
	return physics.Hit{Point: contact, Normal: p.Normal, Distance: t}, true
}

// Sphere is a solid ball.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

func (s Sphere) OverlapsBox(box physics.Box) bool {
	return r3.Norm2(r3.Sub(closestOnBox(box, s.Center), s.Center)) <= s.Radius*s.Radius
}

func (s Sphere) Penetration(c physics.Capsule) (r3.Vec, float64, bool) {
	q := closestOnSegment(c.P1, c.P2, s.Center)
	away := r3.Sub(q, s.Center)
	depth := s.Radius + c.Radius - r3.Norm(away)
	if depth <= physics.ContactTolerance {
		return r3.Vec{}, 0, false
	}
	return unit(away, capsuleAxis(c)), depth, true
}

// Sweep casts the sphere centre backwards against the capsule inflated by
// the sphere radius, which is equivalent to moving the capsule forwards.
func (s Sphere) Sweep(c physics.Capsule, dir r3.Vec, maxDistance float64) (physics.Hit, bool) {
	t, ok := rayCapsule(s.Center, r3.Scale(-1, dir), c.P1, c.P2, s.Radius+c.Radius)
	if !ok || t > maxDistance {
		return physics.Hit{}, false
	}
	shift := r3.Scale(t, dir)
	q := closestOnSegment(r3.Add(c.P1, shift), r3.Add(c.P2, shift), s.Center)
	n := unit(r3.Sub(q, s.Center), r3.Scale(-1, dir))
	return physics.Hit{
		Point:    r3.Add(s.Center, r3.Scale(s.Radius, n)),
		Normal:   n,
		Distance: t,
	}, true
}

// Shell is solid everywhere outside Radius; bodies live inside it.
type Shell struct {
	Center r3.Vec
	Radius float64
}

func (s Shell) OverlapsBox(box physics.Box) bool {
	for _, v := range boxCorners(box) {
		if r3.Norm(r3.Sub(v, s.Center)) >= s.Radius {
			return true
		}
	}
	return false
}

func (s Shell) Penetration(c physics.Capsule) (r3.Vec, float64, bool) {
	far := c.P1
	if r3.Norm(r3.Sub(c.P2, s.Center)) > r3.Norm(r3.Sub(c.P1, s.Center)) {
		far = c.P2
	}
	out := r3.Sub(far, s.Center)
	depth := r3.Norm(out) + c.Radius - s.Radius
	if depth <= physics.ContactTolerance {
		return r3.Vec{}, 0, false
	}
	return r3.Scale(-1, unit(out, capsuleAxis(c))), depth, true
}

// Sweep finds the first endpoint sphere to reach the inner surface.
func (s Shell) Sweep(c physics.Capsule, dir r3.Vec, maxDistance float64) (physics.Hit, bool) {
	inner := s.Radius - c.Radius
	if inner <= 0 {
		return physics.Hit{}, false
	}
	best := math.Inf(1)
	var end r3.Vec
	for _, p := range [2]r3.Vec{c.P1, c.P2} {
		oc := r3.Sub(p, s.Center)
		b := r3.Dot(oc, dir)
		disc := b*b - (r3.Norm2(oc) - inner*inner)
		if disc < 0 {
			continue
		}
		t := math.Max(0, -b+math.Sqrt(disc))
		if t < best {
			best = t
			end = r3.Add(p, r3.Scale(t, dir))
		}
	}
	if math.IsInf(best, 1) || best > maxDistance {
		return physics.Hit{}, false
	}
	out := unit(r3.Sub(end, s.Center), dir)
	return physics.Hit{
		Point:    r3.Add(s.Center, r3.Scale(s.Radius, out)),
		Normal:   r3.Scale(-1, out),
		Distance: best,
	}, true
}
