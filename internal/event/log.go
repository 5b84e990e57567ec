package event

import "log/slog"

// LogTo subscribes lg to every simulation event at debug level.
func LogTo(bus *Bus, lg *slog.Logger) {
	for _, name := range All {
		bus.Subscribe(name, func(raw any) {
			lg.Debug("Event", append([]any{"event", name}, attrs(raw)...)...)
		})
	}
}

func attrs(raw any) []any {
	switch e := raw.(type) {
	case *LandedEvent:
		return []any{"frame", e.Frame, "point", e.Point, "normal", e.Normal, "speed", e.Speed}
	case *LeftGroundEvent:
		return []any{"frame", e.Frame, "jumped", e.Jumped}
	case *JumpEvent:
		return []any{"frame", e.Frame, "speed", e.Speed}
	case *GravityEvent:
		a := []any{"frame", e.Frame, "gravity", e.Gravity, "source", string(e.Source)}
		if e.Volume != "" {
			a = append(a, "volume", e.Volume)
		}
		return a
	case *SceneEvent:
		return []any{"scene", e.Name, "spawn", e.Spawn}
	case *ReloadEvent:
		return []any{"max_ground_angle", e.MaxGroundAngle, "min_ground_dot", e.MinGroundDot}
	default:
		return []any{"payload", raw}
	}
}
