package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"golang.org/x/term"

	"github.com/Versifine/gravwalk/internal/body"
	"github.com/Versifine/gravwalk/internal/config"
	"github.com/Versifine/gravwalk/internal/event"
	"github.com/Versifine/gravwalk/internal/physics"
	"github.com/Versifine/gravwalk/internal/scene"
)

const (
	defaultMovePulse = 180 * time.Millisecond
	yawStep          = 5.0
	pitchStep        = 5.0
)

type ControlledBody interface {
	Tick(in body.InputState, dt float64) (physics.Frame, error)
	Frame() physics.Frame
	Load(sc *scene.Scene) error
	Teleport(pos r3.Vec) error
	SetGravity(g r3.Vec, source event.GravitySource) error
	SetMaxGroundAngle(degrees float64) error
	ApplySettings(s physics.Settings) error
	Settings() physics.Settings
	SceneName() string
	GroundContact() (point, normal r3.Vec, ok bool)
}

type SceneLoader interface {
	Load(name string) (*scene.Scene, error)
	ByHotkey(n int) (string, bool)
	Names() []string
}

// Console drives a body from a raw terminal. Terminals report no key
// releases, so movement and jump keys hold their input for a short pulse.
type Console struct {
	body         ControlledBody
	scenes       SceneLoader
	dt           float64
	tickInterval time.Duration
	movePulse    time.Duration
	out          io.Writer

	reloads <-chan *config.Config
	bus     *event.Bus
	onFrame func(physics.Frame)

	mu            sync.Mutex
	currentInput  body.InputState
	forwardUntil  time.Time
	backwardUntil time.Time
	leftUntil     time.Time
	rightUntil    time.Time
	jumpUntil     time.Time
	commandMode   bool
	commandBuf    []rune
	statusWidth   int
}

// NewConsole ticks b every dt seconds of wall time.
func NewConsole(b ControlledBody, scenes SceneLoader, dt float64) *Console {
	return &Console{
		body:         b,
		scenes:       scenes,
		dt:           dt,
		tickInterval: time.Duration(dt * float64(time.Second)),
		movePulse:    defaultMovePulse,
		out:          os.Stdout,
	}
}

// WatchReloads applies configurations received on ch at the next frame
// boundary and announces them on bus, which may be nil.
func (c *Console) WatchReloads(ch <-chan *config.Config, bus *event.Bus) {
	c.reloads = ch
	c.bus = bus
}

// OnFrame registers fn to receive every simulated frame.
func (c *Console) OnFrame(fn func(physics.Frame)) {
	c.onFrame = fn
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.body == nil {
		return fmt.Errorf("console body is nil")
	}
	if c.scenes == nil {
		return fmt.Errorf("console scene loader is nil")
	}
	if c.tickInterval <= 0 {
		return fmt.Errorf("console tick interval must be positive: %v", c.tickInterval)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(c.out, "\r\n")
	}()

	fmt.Fprint(c.out, "[debug] console started (W/A/S/D pulse, Space, arrows, G, 1-9, X, :)\r\n")
	c.renderStatusLine()

	go c.tickLoop(ctx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		if b == 3 { // Ctrl+C, raw mode swallows SIGINT
			return nil
		}
		c.handleKey(reader, b)
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-c.reloads:
			if !ok {
				c.reloads = nil
				continue
			}
			c.applyConfig(cfg)
		case <-ticker.C:
			c.step(time.Now())
			c.renderStatusLine()
		}
	}
}

func (c *Console) step(now time.Time) {
	frame, err := c.body.Tick(c.inputAt(now), c.dt)
	if err != nil {
		slog.Debug("debug body tick failed", "error", err)
		return
	}
	if c.onFrame != nil {
		c.onFrame(frame)
	}
}

func (c *Console) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if err := c.body.ApplySettings(cfg.Controller.Settings()); err != nil {
		slog.Warn("Config reload rejected", "error", err)
		return
	}
	slog.Info("Config reloaded", "max_ground_angle", cfg.Controller.MaxGroundAngle)
	if c.bus != nil {
		c.bus.Publish(event.EventConfigReloaded, &event.ReloadEvent{
			MaxGroundAngle: cfg.Controller.MaxGroundAngle,
			MinGroundDot:   cfg.Derived.MinGroundDot,
		})
	}
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
		return
	case 'w', 'W':
		c.pulse(&c.forwardUntil, &c.backwardUntil)
	case 's', 'S':
		c.pulse(&c.backwardUntil, &c.forwardUntil)
	case 'a', 'A':
		c.pulse(&c.leftUntil, &c.rightUntil)
	case 'd', 'D':
		c.pulse(&c.rightUntil, &c.leftUntil)
	case ' ':
		c.pulse(&c.jumpUntil, nil)
	case 'g', 'G':
		c.flipGravity()
	case 'x', 'X':
		c.clearInput()
	case 27: // ESC + arrow sequence
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			c.adjustYaw(-yawStep)
		case 'C': // right
			c.adjustYaw(yawStep)
		case 'A': // up
			c.adjustPitch(-pitchStep)
		case 'B': // down
			c.adjustPitch(pitchStep)
		}
	default:
		if b >= '1' && b <= '9' {
			if name, ok := c.scenes.ByHotkey(int(b - '0')); ok {
				c.loadScene(name)
			}
		}
	}
	c.renderStatusLine()
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	fmt.Fprint(c.out, "\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		fmt.Fprint(c.out, "\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		c.renderStatusLine()
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		fmt.Fprint(c.out, "\r\n[debug] command cancelled\r\n")
		c.renderStatusLine()
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s ", buf)
		fmt.Fprintf(c.out, "\r:%s", buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		f := c.body.Frame()
		fmt.Fprintf(c.out, "[debug] frame=%d pos=%s vel=%s up=%s gravity=%s ground=%t since_ground=%d since_jump=%d\r\n",
			f.Index, vec(f.Position), vec(f.Velocity), vec(f.Up), vec(f.Gravity),
			f.Ground.Grounded, f.Ground.FramesSinceGrounded, f.Ground.FramesSinceJump,
		)
	case "tp":
		v, ok := c.parseVec(parts, "tp")
		if !ok {
			return
		}
		if err := c.body.Teleport(v); err != nil {
			fmt.Fprintf(c.out, "[debug] tp failed: %v\r\n", err)
			return
		}
		fmt.Fprintf(c.out, "[debug] teleported to %s\r\n", vec(v))
	case "gravity":
		v, ok := c.parseVec(parts, "gravity")
		if !ok {
			return
		}
		if err := c.body.SetGravity(v, event.SourceUser); err != nil {
			fmt.Fprintf(c.out, "[debug] gravity rejected: %v\r\n", err)
			return
		}
		fmt.Fprintf(c.out, "[debug] gravity set to %s\r\n", vec(v))
	case "angle":
		if len(parts) != 2 {
			fmt.Fprint(c.out, "[debug] usage: :angle <degrees>\r\n")
			return
		}
		deg, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			fmt.Fprint(c.out, "[debug] invalid angle\r\n")
			return
		}
		if err := c.body.SetMaxGroundAngle(deg); err != nil {
			fmt.Fprintf(c.out, "[debug] angle rejected: %v\r\n", err)
			return
		}
		fmt.Fprintf(c.out, "[debug] max ground angle %.1f (min dot %.4f)\r\n", deg, c.body.Settings().MinGroundDot())
	case "scene":
		if len(parts) != 2 {
			fmt.Fprintf(c.out, "[debug] usage: :scene <name>  (%s)\r\n", strings.Join(c.scenes.Names(), ", "))
			return
		}
		c.loadScene(parts[1])
	case "scenes":
		for i, name := range c.scenes.Names() {
			fmt.Fprintf(c.out, "  %d: %s\r\n", i+1, name)
		}
	default:
		fmt.Fprintf(c.out, "[debug] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) parseVec(parts []string, name string) (r3.Vec, bool) {
	if len(parts) != 4 {
		fmt.Fprintf(c.out, "[debug] usage: :%s <x> <y> <z>\r\n", name)
		return r3.Vec{}, false
	}
	x, err1 := strconv.ParseFloat(parts[1], 64)
	y, err2 := strconv.ParseFloat(parts[2], 64)
	z, err3 := strconv.ParseFloat(parts[3], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Fprintf(c.out, "[debug] invalid %s args\r\n", name)
		return r3.Vec{}, false
	}
	return r3.Vec{X: x, Y: y, Z: z}, true
}

func (c *Console) loadScene(name string) {
	sc, err := c.scenes.Load(name)
	if err != nil {
		fmt.Fprintf(c.out, "\r\n[debug] %v\r\n", err)
		return
	}
	if err := c.body.Load(sc); err != nil {
		fmt.Fprintf(c.out, "\r\n[debug] load %s: %v\r\n", name, err)
		return
	}
	c.clearInput()
	slog.Info("Scene switched", "scene", name)
}

func (c *Console) flipGravity() {
	g := r3.Scale(-1, c.body.Settings().Gravity)
	if err := c.body.SetGravity(g, event.SourceUser); err != nil {
		slog.Debug("debug gravity flip failed", "error", err)
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, "[debug] keys:\r\n")
	fmt.Fprint(c.out, "  W/S/A/D: pulse movement (~180ms)\r\n")
	fmt.Fprint(c.out, "  Space: jump\r\n")
	fmt.Fprint(c.out, "  Arrow Left/Right: yaw +/-5\r\n")
	fmt.Fprint(c.out, "  Arrow Up/Down: pitch +/-5\r\n")
	fmt.Fprint(c.out, "  G: flip gravity\r\n")
	fmt.Fprint(c.out, "  1-9: switch scene\r\n")
	fmt.Fprint(c.out, "  X: clear all input\r\n")
	fmt.Fprint(c.out, "  : enter command mode\r\n")
	fmt.Fprint(c.out, "[debug] commands:\r\n")
	fmt.Fprint(c.out, "  :tp <x> <y> <z>\r\n")
	fmt.Fprint(c.out, "  :gravity <x> <y> <z>\r\n")
	fmt.Fprint(c.out, "  :angle <degrees>\r\n")
	fmt.Fprint(c.out, "  :scene <name>\r\n")
	fmt.Fprint(c.out, "  :scenes\r\n")
	fmt.Fprint(c.out, "  :state\r\n")
	fmt.Fprint(c.out, "  :help\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	input := c.currentInput
	input.Move = c.moveLocked(time.Now())
	width := c.statusWidth
	c.mu.Unlock()

	f := c.body.Frame()
	ground := "air"
	if point, normal, ok := c.body.GroundContact(); ok {
		ground = fmt.Sprintf("ground@%s n=%s", vec(point), vec(normal))
	}

	line := fmt.Sprintf(
		"[%s | MOV:%.0f,%.0f YAW:%.1f PIT:%.1f | pos=%s up=%s | %s]",
		c.body.SceneName(),
		input.Move.X,
		input.Move.Y,
		input.Yaw,
		input.Pitch,
		vec(f.Position),
		vec(f.Up),
		ground,
	)

	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	fmt.Fprintf(c.out, "\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

// pulse holds a key until movePulse from now and cancels its opposite.
func (c *Console) pulse(until, opposite *time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*until = time.Now().Add(c.movePulse)
	if opposite != nil {
		*opposite = time.Time{}
	}
}

func (c *Console) adjustYaw(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentInput.Yaw = normalizeYaw(c.currentInput.Yaw + delta)
}

func (c *Console) adjustPitch(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentInput.Pitch = clampPitch(c.currentInput.Pitch + delta)
}

// inputAt builds the input held at now from the active pulses.
func (c *Console) inputAt(now time.Time) body.InputState {
	c.mu.Lock()
	defer c.mu.Unlock()
	in := c.currentInput
	in.Move = c.moveLocked(now)
	in.Jump = now.Before(c.jumpUntil)
	return in
}

func (c *Console) moveLocked(now time.Time) r2.Vec {
	var m r2.Vec
	if now.Before(c.forwardUntil) {
		m.Y++
	}
	if now.Before(c.backwardUntil) {
		m.Y--
	}
	if now.Before(c.rightUntil) {
		m.X++
	}
	if now.Before(c.leftUntil) {
		m.X--
	}
	return m
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func (c *Console) clearInput() {
	c.mu.Lock()
	c.currentInput = body.InputState{}
	c.forwardUntil = time.Time{}
	c.backwardUntil = time.Time{}
	c.leftUntil = time.Time{}
	c.rightUntil = time.Time{}
	c.jumpUntil = time.Time{}
	c.mu.Unlock()
}

func vec(v r3.Vec) string {
	return fmt.Sprintf("(%.2f,%.2f,%.2f)", v.X, v.Y, v.Z)
}

func normalizeYaw(yaw float64) float64 {
	for yaw <= -180 {
		yaw += 360
	}
	for yaw > 180 {
		yaw -= 360
	}
	return yaw
}

func clampPitch(pitch float64) float64 {
	if pitch < -90 {
		return -90
	}
	if pitch > 90 {
		return 90
	}
	return pitch
}
