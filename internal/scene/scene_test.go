package scene

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Versifine/gravwalk/internal/config"
	"github.com/Versifine/gravwalk/internal/gravity"
)

func defaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestSwitcherLoadsDefaultScenes(t *testing.T) {
	sw := NewSwitcher(defaults(t).Scenes)

	tests := []struct {
		name      string
		shapes    int
		volumes   int
		spherical bool
	}{
		{name: "slopes", shapes: 5, volumes: 2},
		{name: "planet", shapes: 1, spherical: true},
		{name: "planet-hollow", shapes: 1, spherical: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := sw.Load(tt.name)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if sw.Current() != sc {
				t.Fatal("loaded scene should become current")
			}
			if sc.Store.Len() != tt.shapes {
				t.Fatalf("shapes = %d, want %d", sc.Store.Len(), tt.shapes)
			}
			if len(sc.Volumes) != tt.volumes {
				t.Fatalf("volumes = %d, want %d", len(sc.Volumes), tt.volumes)
			}
			_, spherical := sc.Field.(gravity.Spherical)
			if spherical != tt.spherical {
				t.Fatalf("field = %T", sc.Field)
			}
		})
	}
}

func TestSwitcherCachesAndRejectsUnknown(t *testing.T) {
	sw := NewSwitcher(defaults(t).Scenes)
	a, err := sw.Load("planet")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, _ := sw.Load("planet")
	if a != b {
		t.Fatal("second load should reuse the built scene")
	}

	if _, err := sw.Load("moon"); !errors.Is(err, ErrUnknownScene) {
		t.Fatalf("err = %v, want ErrUnknownScene", err)
	}
	if sw.Current() != a {
		t.Fatal("failed load must keep the current scene")
	}
}

func TestHotkeys(t *testing.T) {
	sw := NewSwitcher(defaults(t).Scenes)
	for i, want := range []string{"slopes", "planet", "planet-hollow"} {
		got, ok := sw.ByHotkey(i + 1)
		if !ok || got != want {
			t.Fatalf("ByHotkey(%d) = %q, %v; want %q", i+1, got, ok, want)
		}
	}
	if _, ok := sw.ByHotkey(4); ok {
		t.Fatal("hotkey 4 should be unbound")
	}
	if _, ok := sw.ByHotkey(0); ok {
		t.Fatal("hotkey 0 should be unbound")
	}
}

func TestGravityAt(t *testing.T) {
	planet := &Scene{Gravity: r3.Vec{Y: -9.8}, Field: gravity.Spherical{Strength: -1}}
	if g := planet.GravityAt(r3.Vec{Y: 12}); g != (r3.Vec{Y: -12}) {
		t.Fatalf("GravityAt = %v", g)
	}
	if g := planet.GravityAt(r3.Vec{}); g != (r3.Vec{Y: -9.8}) {
		t.Fatalf("zero field should fall back to scene gravity, got %v", g)
	}
	flat := &Scene{Gravity: r3.Vec{X: 2}}
	if g := flat.GravityAt(r3.Vec{Y: 100}); g != (r3.Vec{X: 2}) {
		t.Fatalf("GravityAt = %v", g)
	}
}

func TestBuildRejectsBadShape(t *testing.T) {
	_, err := Build(config.SceneConfig{
		Name:    "bad",
		Gravity: r3.Vec{Y: -1},
		Shapes:  []config.ShapeConfig{{Kind: "sphere"}},
	})
	if err == nil {
		t.Fatal("sphere without radius should be rejected")
	}
}
