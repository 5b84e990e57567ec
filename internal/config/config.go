package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/Versifine/gravwalk/internal/physics"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrUnknownScene = errors.New("unknown scene")

type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Controller ControllerConfig `yaml:"controller"`
	Body       BodyConfig       `yaml:"body"`
	Simulation SimulationConfig `yaml:"simulation"`
	Trace      TraceConfig      `yaml:"trace"`
	Scenes     []SceneConfig    `yaml:"scenes"`

	Derived DerivedConfig `yaml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

type ControllerConfig struct {
	Gravity           r3.Vec  `yaml:"gravity"`
	MaxSpeed          float64 `yaml:"max_speed"`
	GroundFriction    float64 `yaml:"ground_friction"`
	AirFriction       float64 `yaml:"air_friction"`
	JumpHeight        float64 `yaml:"jump_height"`
	MaxGroundAngle    float64 `yaml:"max_ground_angle"`   // degrees
	GravityAlignSpeed float64 `yaml:"gravity_align_speed"` // degrees per second
	CollisionMask     uint32  `yaml:"collision_mask"`
}

type BodyConfig struct {
	Radius float64 `yaml:"radius"`
	Height float64 `yaml:"height"`
}

type SimulationConfig struct {
	DT     float64      `yaml:"dt"`
	Frames int          `yaml:"frames"`
	Scene  string       `yaml:"scene"`
	Script []StepConfig `yaml:"script"`
}

// StepConfig is one scripted input held for Frames frames. Jump is pressed on
// the first frame of the step only.
type StepConfig struct {
	Frames  int     `yaml:"frames"`
	Move    r2.Vec  `yaml:"move"`
	Jump    bool    `yaml:"jump"`
	Yaw     float64 `yaml:"yaw"`
	Pitch   float64 `yaml:"pitch"`
	Gravity *r3.Vec `yaml:"gravity,omitempty"`
}

type TraceConfig struct {
	Path string `yaml:"path"`
}

type SceneConfig struct {
	Name    string         `yaml:"name"`
	Spawn   r3.Vec         `yaml:"spawn"`
	Gravity r3.Vec         `yaml:"gravity"`
	Field   FieldConfig    `yaml:"field"`
	Shapes  []ShapeConfig  `yaml:"shapes"`
	Volumes []VolumeConfig `yaml:"volumes"`
}

// FieldConfig selects a per-frame gravity source: "" or "none", "constant"
// (Vector) or "spherical" (Origin, Strength).
type FieldConfig struct {
	Kind     string  `yaml:"kind"`
	Vector   r3.Vec  `yaml:"vector"`
	Origin   r3.Vec  `yaml:"origin"`
	Strength float64 `yaml:"strength"`
}

// ShapeConfig describes one static collider: "plane" (Normal, Point),
// "sphere" or "shell" (Center, Radius).
type ShapeConfig struct {
	Kind   string  `yaml:"kind"`
	Normal r3.Vec  `yaml:"normal"`
	Point  r3.Vec  `yaml:"point"`
	Center r3.Vec  `yaml:"center"`
	Radius float64 `yaml:"radius"`
	Layer  uint32  `yaml:"layer"`
}

type VolumeConfig struct {
	Name    string `yaml:"name"`
	Min     r3.Vec `yaml:"min"`
	Max     r3.Vec `yaml:"max"`
	Gravity r3.Vec `yaml:"gravity"`
}

type DerivedConfig struct {
	MinGroundDot float64        // cos(controller.max_ground_angle)
	SceneIndex   map[string]int // scene name -> index into Scenes
}

// Load reads the embedded defaults and overlays the YAML file at path. Keys
// absent from the file keep their default. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) computeDerived() {
	c.Derived.MinGroundDot = c.Controller.Settings().MinGroundDot()
	c.Derived.SceneIndex = make(map[string]int, len(c.Scenes))
	for i, s := range c.Scenes {
		c.Derived.SceneIndex[s.Name] = i
	}
}

func (c *Config) Validate() error {
	if err := c.Controller.Settings().Validate(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	if err := c.Body.Shape().Validate(); err != nil {
		return fmt.Errorf("body: %w", err)
	}
	if c.Simulation.DT <= 0 {
		return fmt.Errorf("simulation: dt must be positive: %v", c.Simulation.DT)
	}
	if c.Simulation.Frames < 0 {
		return fmt.Errorf("simulation: frames must not be negative: %d", c.Simulation.Frames)
	}
	for i, step := range c.Simulation.Script {
		if step.Frames <= 0 {
			return fmt.Errorf("simulation: script step %d: frames must be positive", i)
		}
		if step.Gravity != nil && r3.Norm(*step.Gravity) == 0 {
			return fmt.Errorf("simulation: script step %d: %w", i, physics.ErrZeroGravity)
		}
	}
	if len(c.Derived.SceneIndex) != len(c.Scenes) {
		return fmt.Errorf("scenes: duplicate scene name")
	}
	for _, s := range c.Scenes {
		if err := s.validate(); err != nil {
			return fmt.Errorf("scene %q: %w", s.Name, err)
		}
	}
	if _, err := c.Scene(c.Simulation.Scene); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	return nil
}

// Scene returns the named scene definition.
func (c *Config) Scene(name string) (SceneConfig, error) {
	i, ok := c.Derived.SceneIndex[name]
	if !ok {
		return SceneConfig{}, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return c.Scenes[i], nil
}

func (s SceneConfig) validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if r3.Norm(s.Gravity) == 0 {
		return fmt.Errorf("gravity: %w", physics.ErrZeroGravity)
	}
	switch s.Field.Kind {
	case "", "none", "spherical":
	case "constant":
		if r3.Norm(s.Field.Vector) == 0 {
			return fmt.Errorf("field: %w", physics.ErrZeroGravity)
		}
	default:
		return fmt.Errorf("field: unknown kind %q", s.Field.Kind)
	}
	for i, sh := range s.Shapes {
		switch sh.Kind {
		case "plane":
			if r3.Norm(sh.Normal) == 0 {
				return fmt.Errorf("shape %d: plane normal must not be zero", i)
			}
		case "sphere", "shell":
			if sh.Radius <= 0 {
				return fmt.Errorf("shape %d: radius must be positive: %v", i, sh.Radius)
			}
		default:
			return fmt.Errorf("shape %d: unknown kind %q", i, sh.Kind)
		}
	}
	for _, v := range s.Volumes {
		if r3.Norm(v.Gravity) == 0 {
			return fmt.Errorf("volume %q: %w", v.Name, physics.ErrZeroGravity)
		}
	}
	return nil
}

func (c ControllerConfig) Settings() physics.Settings {
	return physics.Settings{
		Gravity:           c.Gravity,
		MaxSpeed:          c.MaxSpeed,
		GroundFriction:    c.GroundFriction,
		AirFriction:       c.AirFriction,
		JumpHeight:        c.JumpHeight,
		MaxGroundAngle:    c.MaxGroundAngle,
		GravityAlignSpeed: c.GravityAlignSpeed,
		CollisionMask:     c.CollisionMask,
	}
}

func (b BodyConfig) Shape() physics.CapsuleShape {
	return physics.CapsuleShape{Radius: b.Radius, Height: b.Height}
}

// WriteYAML writes the effective configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
