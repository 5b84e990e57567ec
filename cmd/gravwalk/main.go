package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Versifine/gravwalk/internal/body"
	"github.com/Versifine/gravwalk/internal/config"
	"github.com/Versifine/gravwalk/internal/debug"
	"github.com/Versifine/gravwalk/internal/event"
	"github.com/Versifine/gravwalk/internal/logger"
	"github.com/Versifine/gravwalk/internal/physics"
	"github.com/Versifine/gravwalk/internal/scene"
	"github.com/Versifine/gravwalk/internal/trace"
)

var CLI struct {
	ConfigFile string `help:"Configuration file overlaid on the built-in defaults." name:"config" short:"c" type:"path"`
	Debug      bool   `help:"Whether to enable debug logging."`

	Run struct {
		Scene  string `help:"Scene to simulate (default from config)."`
		Frames int    `help:"Frames to simulate; 0 plays the script once."`
		Trace  string `help:"Write a per-frame CSV trace to this file." type:"path"`
	} `cmd:"" default:"1" help:"Run the configured input script headlessly."`

	Play struct {
		Scene string `help:"Scene to start in (default from config)."`
		Trace string `help:"Write a per-frame CSV trace to this file." type:"path"`
	} `cmd:"" help:"Drive the body interactively from the terminal."`

	Config struct {
	} `cmd:"" help:"Write the effective configuration to standard output."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("gravwalk"),
		kong.Description("a kinematic capsule controller under arbitrary gravity"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	cfg, err := config.Load(CLI.ConfigFile)
	if err != nil {
		writeError(fmt.Errorf("load config: %w", err))
	}

	switch ctx.Command() {
	case "config":
		data, err := cfg.Marshal()
		if err != nil {
			writeError(err)
		}
		os.Stdout.Write(data)
		return
	case "play":
		err = playCommand(cfg)
	default:
		err = runCommand(cfg)
	}
	if err != nil {
		writeError(err)
	}
}

// app holds what both commands share: one body in its starting scene, the
// event bus and the optional trace.
type app struct {
	body    *body.Body
	scenes  *scene.Switcher
	bus     *event.Bus
	trace   *trace.Recorder
	logFile *os.File
}

// newApp initialises logging and spawns the body. Interactive sessions keep
// the terminal for the console, so their logs only go to the log file.
func newApp(cfg *config.Config, sceneName, tracePath string, interactive bool) (*app, error) {
	a := &app{}

	var out io.Writer = os.Stdout
	if interactive {
		out = io.Discard
	}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		out = f
	}
	level := cfg.Logging.Level
	if CLI.Debug {
		level = "debug"
	}
	logger.Init(logger.Config{Level: level, Format: cfg.Logging.Format, Output: out})

	a.bus = event.NewBus()
	event.LogTo(a.bus, logger.L())

	b, err := body.New(cfg.Controller.Settings(), cfg.Body.Shape(), a.bus)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.body = b

	if sceneName == "" {
		sceneName = cfg.Simulation.Scene
	}
	a.scenes = scene.NewSwitcher(cfg.Scenes)
	sc, err := a.scenes.Load(sceneName)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := b.Load(sc); err != nil {
		a.Close()
		return nil, err
	}

	if tracePath == "" {
		tracePath = cfg.Trace.Path
	}
	if a.trace, err = trace.Create(tracePath); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) record(f physics.Frame) error {
	return a.trace.Write(trace.NewRow(a.body.SceneName(), f))
}

func (a *app) Close() {
	a.bus.Wait()
	if err := a.trace.Close(); err != nil {
		slog.Error("Failed to close trace", "error", err)
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func runCommand(cfg *config.Config) error {
	a, err := newApp(cfg, CLI.Run.Scene, CLI.Run.Trace, false)
	if err != nil {
		return err
	}
	defer a.Close()

	frames := CLI.Run.Frames
	if frames == 0 && len(cfg.Simulation.Script) == 0 {
		frames = cfg.Simulation.Frames
	}
	slog.Info("Simulation started", "scene", a.body.SceneName(), "frames", frames, "dt", cfg.Simulation.DT)

	n, err := body.Run(a.body, body.NewScript(cfg.Simulation.Script), frames, cfg.Simulation.DT, a.record)
	if err != nil {
		return fmt.Errorf("simulation stopped at frame %d: %w", n, err)
	}

	f := a.body.Frame()
	slog.Info("Simulation finished",
		"frames", n,
		"position", f.Position,
		"up", f.Up,
		"grounded", f.Ground.Grounded,
		"trace_rows", a.trace.Rows(),
	)
	return nil
}

func playCommand(cfg *config.Config) error {
	a, err := newApp(cfg, CLI.Play.Scene, CLI.Play.Trace, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := debug.NewConsole(a.body, a.scenes, cfg.Simulation.DT)
	console.OnFrame(func(f physics.Frame) {
		if err := a.record(f); err != nil {
			slog.Warn("Trace write failed", "error", err)
		}
	})

	if CLI.ConfigFile != "" {
		w, err := config.Watch(CLI.ConfigFile)
		if err != nil {
			return err
		}
		defer w.Close()
		console.WatchReloads(w.Updates, a.bus)
		go logReloadErrors(ctx, w.Errors)
	}

	return console.Start(ctx)
}

func logReloadErrors(ctx context.Context, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			slog.Warn("Config reload failed", "error", err)
		}
	}
}
