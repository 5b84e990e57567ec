package physics

import "gonum.org/v1/gonum/spatial/r3"

// resolveCollisions pushes the body out of every shape overlapping its
// bounds and strips the velocity driving it into them. Each penetration is
// measured against the pose the body had on entry, and the corrections add
// up. It returns the number of shapes that needed correcting.
func (c *Controller) resolveCollisions() int {
	n := c.query.OverlapBox(c.body.bounds(), c.settings.CollisionMask, c.overlaps[:])
	if n > len(c.overlaps) {
		n = len(c.overlaps)
	}
	if n == 0 {
		return 0
	}

	up := AntiGravity(c.settings.Gravity)
	capsule := c.body.capsule(0)
	contacts := 0
	for i := 0; i < n; i++ {
		direction, distance, ok := c.query.ComputePenetration(capsule, c.overlaps[i])
		if !ok {
			continue
		}
		move, stop := depenetrate(direction, distance, c.velocity, up, c.frameAxis(up), c.minGroundDot)
		c.body.Position = r3.Add(c.body.Position, move)
		c.velocity = r3.Sub(c.velocity, stop)
		contacts++
	}
	return contacts
}

// depenetrate classifies one contact and returns the position correction and
// the velocity to remove. Walkable contacts are resolved fully; steeper ones
// only within the plane orthogonal to yAxis, so walls never lift or sink the
// body.
func depenetrate(direction r3.Vec, distance float64, velocity, up, yAxis r3.Vec, minGroundDot float64) (move, stop r3.Vec) {
	move = r3.Scale(distance, direction)
	stop = project(velocity, r3.Scale(-1, direction))
	if r3.Dot(normalize(direction), up) > minGroundDot {
		return move, stop
	}
	return projectOnPlane(move, yAxis), projectOnPlane(stop, yAxis)
}
