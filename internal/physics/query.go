package physics

import "gonum.org/v1/gonum/spatial/r3"

// ShapeID identifies a collider owned by a QueryProvider.
type ShapeID int

// Box is an oriented bounding box used for broadphase overlap queries.
type Box struct {
	Center      r3.Vec
	HalfExtents r3.Vec
	Rotation    r3.Rotation
}

// Capsule is a world-space capsule: the segment P1-P2 inflated by Radius.
type Capsule struct {
	P1     r3.Vec
	P2     r3.Vec
	Radius float64
}

// Hit is a single contact reported by a capsule sweep. Normal points out of
// the surface that was hit.
type Hit struct {
	Point    r3.Vec
	Normal   r3.Vec
	Distance float64
	Shape    ShapeID
}

// QueryProvider answers the shape queries the controller consumes. Result
// buffers are owned by the caller; implementations fill at most len(results)
// entries and return how many were written. Empty results are normal.
type QueryProvider interface {
	OverlapBox(box Box, mask uint32, results []ShapeID) int
	// ComputePenetration returns the direction and distance that would move the
	// capsule out of the shape, or ok=false when they do not intersect.
	ComputePenetration(capsule Capsule, shape ShapeID) (direction r3.Vec, distance float64, ok bool)
	// CapsuleCastAll reports every shape the capsule touches while travelling
	// maxDistance along direction. Shapes overlapping at the start are reported
	// with zero distance, a zero point and a normal opposite direction.
	CapsuleCastAll(capsule Capsule, direction r3.Vec, maxDistance float64, mask uint32, results []Hit) int
	// CapsuleCast reports the nearest hit only and ignores shapes overlapping
	// at the start.
	CapsuleCast(capsule Capsule, direction r3.Vec, maxDistance float64, mask uint32) (Hit, bool)
}
