package physics

import "gonum.org/v1/gonum/spatial/r3"

// detectGround rebuilds the ground state from a short sweep along gravity,
// then runs the snap pass when grounded or within the coyote window. It
// returns the number of primary sweep hits and whether the snap pass hit.
func (c *Controller) detectGround() (int, bool) {
	up := AntiGravity(c.settings.Gravity)
	down := r3.Scale(-1, up)
	probe := c.body.capsule(GroundSkin)

	n := c.query.CapsuleCastAll(probe, down, GroundProbeDistance, c.settings.CollisionMask, c.groundHits[:])
	if n > len(c.groundHits) {
		n = len(c.groundHits)
	}
	c.ground.Grounded, c.ground.Normal, c.ground.Point = classifyGround(c.groundHits[:n], up, c.minGroundDot)

	snapped := false
	if c.ground.Grounded || withinCoyoteWindow(c.ground) {
		hit, ok := c.query.CapsuleCast(probe, down, GroundSnapDistance, c.settings.CollisionMask)
		if ok && r3.Dot(hit.Normal, up) >= c.minGroundDot {
			c.ground.Point = hit.Point
			c.ground.Normal = unitOr(hit.Normal, up)
			c.ground.Grounded = true
			c.velocity = followSurface(c.velocity, hit.Normal)
			snapped = true
		}
	}

	if c.ground.Grounded {
		c.ground.FramesSinceGrounded = 0
	}
	return n, snapped
}

// classifyGround folds sweep hits into a grounded flag and averaged contact.
// Any walkable hit grounds the body; every hit contributes to the average.
// Without hits the normal falls back to up and the point to the origin.
func classifyGround(hits []Hit, up r3.Vec, minGroundDot float64) (grounded bool, normal, point r3.Vec) {
	if len(hits) == 0 {
		return false, up, r3.Vec{}
	}
	var sumNormal, sumPoint r3.Vec
	for _, h := range hits {
		grounded = grounded || r3.Dot(h.Normal, up) >= minGroundDot
		sumNormal = r3.Add(sumNormal, h.Normal)
		sumPoint = r3.Add(sumPoint, h.Point)
	}
	inv := 1 / float64(len(hits))
	return grounded, unitOr(r3.Scale(inv, sumNormal), up), r3.Scale(inv, sumPoint)
}

// withinCoyoteWindow: grounded at most CoyoteGroundFrames ago and not jumping
// in the last CoyoteJumpFrames.
func withinCoyoteWindow(g GroundState) bool {
	return g.FramesSinceGrounded <= CoyoteGroundFrames && g.FramesSinceJump > CoyoteJumpFrames
}

// followSurface removes the part of v leaving the surface with the given
// normal while keeping |v|.
func followSurface(v, normal r3.Vec) r3.Vec {
	d := r3.Dot(v, normal)
	if d <= 0 {
		return v
	}
	speed := r3.Norm(v)
	return r3.Scale(speed, normalize(r3.Sub(v, r3.Scale(d, normal))))
}

func unitOr(v, fallback r3.Vec) r3.Vec {
	if u := normalize(v); !isZero(u) {
		return u
	}
	return fallback
}
