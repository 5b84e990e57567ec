package body

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Versifine/gravwalk/internal/config"
	"github.com/Versifine/gravwalk/internal/event"
	"github.com/Versifine/gravwalk/internal/physics"
)

// Script replays configured input steps one frame at a time. Each step holds
// its input for Frames frames; jump is pressed on the step's first frame only
// and an optional gravity override is applied once as the step starts.
type Script struct {
	steps []config.StepConfig
	step  int
	frame int
}

func NewScript(steps []config.StepConfig) *Script {
	return &Script{steps: steps}
}

// Next returns the input for the coming frame. ok is false once every step
// has been played; the returned input is then idle.
func (s *Script) Next() (in InputState, gravity *r3.Vec, ok bool) {
	if s.Done() {
		return InputState{}, nil, false
	}

	st := s.steps[s.step]
	in = InputState{
		Move:  st.Move,
		Jump:  st.Jump && s.frame == 0,
		Yaw:   st.Yaw,
		Pitch: st.Pitch,
	}
	if s.frame == 0 {
		gravity = st.Gravity
	}
	s.frame++
	return in, gravity, true
}

// Done reports whether every step has been played.
func (s *Script) Done() bool {
	for s.step < len(s.steps) && s.frame >= s.steps[s.step].Frames {
		s.step++
		s.frame = 0
	}
	return s.step >= len(s.steps)
}

// Run ticks b with the script's input for frames frames, idling once the
// script ends. With frames <= 0 it runs until the script is exhausted.
// onFrame may be nil; an error from it stops the run. Run returns the number
// of frames simulated.
func Run(b *Body, script *Script, frames int, dt float64, onFrame func(physics.Frame) error) (int, error) {
	n := 0
	for {
		if frames > 0 && n >= frames || frames <= 0 && script.Done() {
			return n, nil
		}
		in, g, _ := script.Next()
		if g != nil {
			if err := b.SetGravity(*g, event.SourceScript); err != nil {
				return n, err
			}
		}
		f, err := b.Tick(in, dt)
		if err != nil {
			return n, err
		}
		n++
		if onFrame != nil {
			if err := onFrame(f); err != nil {
				return n, err
			}
		}
	}
}
