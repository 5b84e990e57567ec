package scene

import (
	"fmt"

	"github.com/Versifine/gravwalk/internal/config"
)

// Switcher builds scenes on first use and keeps them for later swaps.
type Switcher struct {
	defs    []config.SceneConfig
	built   map[string]*Scene
	current *Scene
}

func NewSwitcher(defs []config.SceneConfig) *Switcher {
	return &Switcher{
		defs:  defs,
		built: make(map[string]*Scene, len(defs)),
	}
}

// Load makes the named scene current, building it if needed.
func (s *Switcher) Load(name string) (*Scene, error) {
	if sc, ok := s.built[name]; ok {
		s.current = sc
		return sc, nil
	}
	for _, def := range s.defs {
		if def.Name != name {
			continue
		}
		sc, err := Build(def)
		if err != nil {
			return nil, err
		}
		s.built[name] = sc
		s.current = sc
		return sc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}

// ByHotkey maps the 1-based hotkey n to a scene name.
func (s *Switcher) ByHotkey(n int) (string, bool) {
	if n < 1 || n > len(s.defs) {
		return "", false
	}
	return s.defs[n-1].Name, true
}

func (s *Switcher) Current() *Scene {
	return s.current
}

func (s *Switcher) Names() []string {
	names := make([]string, len(s.defs))
	for i, def := range s.defs {
		names[i] = def.Name
	}
	return names
}
