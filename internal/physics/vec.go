package physics

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// LocalUp is the body-space axis that OrientationAligner keeps opposite gravity.
var LocalUp = r3.Vec{Y: 1}

// AntiGravity returns the unit vector opposite g, or the zero vector when g is
// too short to have a direction.
func AntiGravity(g r3.Vec) r3.Vec {
	return normalize(r3.Scale(-1, g))
}

// normalize behaves like r3.Unit but maps near-zero vectors to zero instead of NaN.
func normalize(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n <= NormalizeEpsilon {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

func isZero(v r3.Vec) bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

func project(v, onto r3.Vec) r3.Vec {
	d := r3.Norm2(onto)
	if d < collinearTolerance {
		return r3.Vec{}
	}
	return r3.Scale(r3.Dot(v, onto)/d, onto)
}

func projectOnPlane(v, normal r3.Vec) r3.Vec {
	return r3.Sub(v, project(v, normal))
}

// angleBetween returns the unsigned angle between a and b in degrees.
func angleBetween(a, b r3.Vec) float64 {
	d := math.Sqrt(r3.Norm2(a) * r3.Norm2(b))
	if d < collinearTolerance {
		return 0
	}
	c := clamp(r3.Dot(a, b)/d, -1, 1)
	return math.Acos(c) * 180 / math.Pi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Identity is the rotation that leaves every vector unchanged.
var Identity = r3.Rotation{Real: 1}

func mulRotation(a, b r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(a), quat.Number(b)))
}

func inverseRotation(r r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Conj(quat.Number(r)))
}

func rotationDot(a, b r3.Rotation) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

func normalizeRotation(r r3.Rotation) r3.Rotation {
	n := quat.Abs(quat.Number(r))
	if n < collinearTolerance {
		return Identity
	}
	return r3.Rotation(quat.Scale(1/n, quat.Number(r)))
}

// fromToRotation returns the shortest rotation taking direction from onto
// direction to. Degenerate inputs yield the identity.
func fromToRotation(from, to r3.Vec) r3.Rotation {
	f := normalize(from)
	t := normalize(to)
	if isZero(f) || isZero(t) {
		return Identity
	}
	d := r3.Dot(f, t)
	if d >= 1-collinearTolerance {
		return Identity
	}
	axis := r3.Cross(f, t)
	if r3.Norm(axis) < NormalizeEpsilon {
		if d > 0 {
			return Identity
		}
		axis = r3.Cross(f, r3.Vec{X: 1})
		if r3.Norm(axis) < NormalizeEpsilon {
			axis = r3.Cross(f, r3.Vec{Z: 1})
		}
		return r3.NewRotation(math.Pi, axis)
	}
	return r3.NewRotation(math.Atan2(r3.Norm(axis), d), axis)
}

// rotationAngle returns the angle in degrees needed to rotate a onto b.
func rotationAngle(a, b r3.Rotation) float64 {
	d := math.Min(math.Abs(rotationDot(a, b)), 1)
	if d > RotationEqualDot {
		return 0
	}
	return 2 * math.Acos(d) * 180 / math.Pi
}

func slerp(a, b r3.Rotation, t float64) r3.Rotation {
	cos := rotationDot(a, b)
	if cos < 0 {
		b = r3.Rotation(quat.Scale(-1, quat.Number(b)))
		cos = -cos
	}
	if cos > 0.9995 {
		mix := quat.Add(quat.Scale(1-t, quat.Number(a)), quat.Scale(t, quat.Number(b)))
		return normalizeRotation(r3.Rotation(mix))
	}
	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	mix := quat.Add(quat.Scale(wa, quat.Number(a)), quat.Scale(wb, quat.Number(b)))
	return normalizeRotation(r3.Rotation(mix))
}

// rotateTowards turns from toward to by at most maxDegrees, never overshooting.
func rotateTowards(from, to r3.Rotation, maxDegrees float64) r3.Rotation {
	angle := rotationAngle(from, to)
	if angle == 0 {
		return to
	}
	return slerp(from, to, math.Min(1, maxDegrees/angle))
}
