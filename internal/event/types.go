package event

import "gonum.org/v1/gonum/spatial/r3"

const (
	EventLanded         = "ground.landed"
	EventLeftGround     = "ground.left"
	EventJumped         = "jump"
	EventGravityChanged = "gravity.changed"
	EventSceneLoaded    = "scene.loaded"
	EventConfigReloaded = "config.reloaded"
)

// All lists every event name published by the simulation.
var All = []string{
	EventLanded,
	EventLeftGround,
	EventJumped,
	EventGravityChanged,
	EventSceneLoaded,
	EventConfigReloaded,
}

type LandedEvent struct {
	Frame  int64
	Point  r3.Vec
	Normal r3.Vec
	Speed  float64
}

type LeftGroundEvent struct {
	Frame  int64
	Jumped bool
}

type JumpEvent struct {
	Frame int64
	Speed float64
}

type GravitySource string

const (
	SourceField  GravitySource = "field"
	SourceVolume GravitySource = "volume"
	SourceScript GravitySource = "script"
	SourceUser   GravitySource = "user"
	SourceScene  GravitySource = "scene"
)

type GravityEvent struct {
	Frame   int64
	Gravity r3.Vec
	Source  GravitySource
	Volume  string
}

type SceneEvent struct {
	Name  string
	Spawn r3.Vec
}

type ReloadEvent struct {
	MaxGroundAngle float64
	MinGroundDot   float64
}
