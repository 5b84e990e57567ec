package physics

const (
	DefaultMaxSpeed          = 1.0
	DefaultGroundFriction    = 5.0
	DefaultAirFriction       = 0.1
	DefaultJumpHeight        = 2.0
	DefaultMaxGroundAngle    = 25.0
	DefaultGravityAlignSpeed = 90.0
	DefaultCollisionMask     = ^uint32(0)

	DefaultRadius = 0.5
	DefaultHeight = 2.0

	MaxOverlapResults = 16
	MaxGroundHits     = 4

	// GroundSkin shortens the probe capsule at both ends so a body resting on a
	// surface starts its ground sweeps just clear of it.
	GroundSkin          = 0.05
	GroundProbeDistance = 0.051
	GroundSnapDistance  = 0.5

	CoyoteGroundFrames = 1
	CoyoteJumpFrames   = 2

	InvertedAlignTolerance = 1.0 // degrees

	NormalizeEpsilon   = 1e-5
	ContactTolerance   = 1e-9
	RotationEqualDot   = 1 - 1e-6
	collinearTolerance = 1e-12
)
