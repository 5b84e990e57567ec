package world

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Versifine/gravwalk/internal/physics"
)

const parallelEpsilon = 1e-12

func orientation(r r3.Rotation) r3.Rotation {
	if quat.Abs(quat.Number(r)) == 0 {
		return physics.Identity
	}
	return r
}

func inverse(r r3.Rotation) r3.Rotation {
	q := quat.Number(orientation(r))
	return r3.Rotation(quat.Scale(1/quat.Abs(q), quat.Conj(q)))
}

// boxAxes returns the box's half-extent vectors in world space.
func boxAxes(box physics.Box) [3]r3.Vec {
	rot := orientation(box.Rotation)
	return [3]r3.Vec{
		rot.Rotate(r3.Vec{X: box.HalfExtents.X}),
		rot.Rotate(r3.Vec{Y: box.HalfExtents.Y}),
		rot.Rotate(r3.Vec{Z: box.HalfExtents.Z}),
	}
}

// boxRadius is the box's projected half length along n.
func boxRadius(box physics.Box, n r3.Vec) float64 {
	var r float64
	for _, a := range boxAxes(box) {
		r += math.Abs(r3.Dot(a, n))
	}
	return r
}

func boxCorners(box physics.Box) [8]r3.Vec {
	axes := boxAxes(box)
	var out [8]r3.Vec
	for i := range out {
		p := box.Center
		for k, a := range axes {
			if i&(1<<k) != 0 {
				p = r3.Add(p, a)
			} else {
				p = r3.Sub(p, a)
			}
		}
		out[i] = p
	}
	return out
}

// closestOnBox returns the point of the box nearest to p.
func closestOnBox(box physics.Box, p r3.Vec) r3.Vec {
	rot := orientation(box.Rotation)
	local := inverse(rot).Rotate(r3.Sub(p, box.Center))
	h := box.HalfExtents
	local = r3.Vec{
		X: clamp(local.X, -h.X, h.X),
		Y: clamp(local.Y, -h.Y, h.Y),
		Z: clamp(local.Z, -h.Z, h.Z),
	}
	return r3.Add(box.Center, rot.Rotate(local))
}

// closestOnSegment returns the point of segment a-b nearest to p.
func closestOnSegment(a, b, p r3.Vec) r3.Vec {
	ab := r3.Sub(b, a)
	den := r3.Norm2(ab)
	if den < parallelEpsilon {
		return a
	}
	t := clamp(r3.Dot(r3.Sub(p, a), ab)/den, 0, 1)
	return r3.Add(a, r3.Scale(t, ab))
}

// raySphere returns the entry distance of the ray o+t*d into the sphere, d unit.
func raySphere(o, d, center r3.Vec, radius float64) (float64, bool) {
	oc := r3.Sub(o, center)
	b := r3.Dot(oc, d)
	c := r3.Norm2(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		return 0, false
	}
	return t, true
}

// rayCapsule returns the entry distance of the ray o+t*d into the capsule
// a-b of the given radius. The ray must start outside the capsule.
func rayCapsule(o, d, a, b r3.Vec, radius float64) (float64, bool) {
	best := math.Inf(1)
	ba := r3.Sub(b, a)
	oa := r3.Sub(o, a)
	baba := r3.Dot(ba, ba)
	bard := r3.Dot(ba, d)
	baoa := r3.Dot(ba, oa)
	A := baba - bard*bard
	if baba > parallelEpsilon && A > parallelEpsilon {
		B := baba*r3.Dot(oa, d) - baoa*bard
		C := baba*r3.Dot(oa, oa) - baoa*baoa - radius*radius*baba
		if h := B*B - A*C; h >= 0 {
			t := (-B - math.Sqrt(h)) / A
			y := baoa + t*bard
			if t >= 0 && y > 0 && y < baba {
				best = t
			}
		}
	}
	for _, end := range [2]r3.Vec{a, b} {
		if t, ok := raySphere(o, d, end, radius); ok && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

func unit(v, fallback r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < parallelEpsilon {
		return fallback
	}
	return r3.Scale(1/n, v)
}

// capsuleAxis is the unit direction from P2 to P1, world up when degenerate.
func capsuleAxis(c physics.Capsule) r3.Vec {
	return unit(r3.Sub(c.P1, c.P2), physics.LocalUp)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
