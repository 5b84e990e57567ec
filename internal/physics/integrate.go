package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// integrate applies intent, jump, gravity, motion and drag in that order and
// returns the jump speed added this frame, if any.
func (c *Controller) integrate(in Input, dt float64) float64 {
	up := AntiGravity(c.settings.Gravity)
	grounded := c.ground.Grounded

	c.velocity = retarget(c.velocity, c.frameAxis(up), in.CameraForward, r2.Scale(c.settings.MaxSpeed, in.Move))

	var jumpSpeed float64
	if grounded && in.Jump {
		c.ground.FramesSinceJump = 0
		jumpSpeed = math.Sqrt(2 * r3.Norm(c.settings.Gravity) * c.settings.JumpHeight)
		c.velocity = r3.Add(c.velocity, r3.Scale(jumpSpeed, up))
	}

	c.velocity = r3.Add(c.velocity, r3.Scale(dt, c.settings.Gravity))
	c.body.Position = r3.Add(c.body.Position, r3.Scale(dt, c.velocity))

	friction := c.settings.AirFriction
	if grounded {
		friction = c.settings.GroundFriction
	}
	c.velocity = r3.Sub(c.velocity, r3.Scale(friction*dt, c.velocity))
	return jumpSpeed
}

// frameAxis is the reference up axis: the ground normal while grounded,
// otherwise the anti-gravity direction.
func (c *Controller) frameAxis(up r3.Vec) r3.Vec {
	if c.ground.Grounded {
		return c.ground.Normal
	}
	return up
}

// retarget replaces the velocity's components across yAxis with desired,
// expressed in the basis built from yAxis and the camera forward direction.
// Only the component along yAxis survives.
func retarget(v, yAxis, cameraForward r3.Vec, desired r2.Vec) r3.Vec {
	xAxis := normalize(r3.Cross(yAxis, cameraForward))
	zAxis := normalize(r3.Cross(xAxis, yAxis))
	currentY := r3.Dot(v, yAxis)
	return r3.Add(
		r3.Add(r3.Scale(desired.X, xAxis), r3.Scale(currentY, yAxis)),
		r3.Scale(desired.Y, zAxis),
	)
}
