// Package game drives a Simulation from the host loop: window input, texture
// presentation, the parameter panel and periodic telemetry output.
package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collide/camera"
	"github.com/pthm-cable/collide/config"
	"github.com/pthm-cable/collide/renderer"
	"github.com/pthm-cable/collide/sim"
	"github.com/pthm-cable/collide/telemetry"
	"github.com/pthm-cable/collide/ui"
)

// Screen dimensions
const (
	ScreenWidth  = 1280
	ScreenHeight = 720
)

// Panel layout
const (
	panelWidth = 320
	perfWidth  = 260
)

// Radius step for the [ and ] keys, in normalized units.
const radiusStep = 0.01

// Options configures a Game.
type Options struct {
	Seed           int64 // Overrides particles.seed when non-zero
	LogStats       bool
	OutputDir      string
	Headless       bool
	StepsPerUpdate int // Headless steps per UpdateHeadless call
}

// Game holds the simulation and its host collaborators.
type Game struct {
	sim       *sim.Simulation
	collector *telemetry.Collector
	logger    *slog.Logger

	outputManager *telemetry.OutputManager
	logStats      bool

	headless       bool
	stepsPerUpdate int
	frame          int

	// Graphics (nil in headless mode)
	texture   *renderer.TextureRenderer
	camera    *camera.Camera
	controls  *ui.ControlsPanel
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	framePerf *telemetry.PerfCollector
	showPerf  bool

	screenWidth, screenHeight float32
}

// NewGameWithOptions creates a game for cfg and resets the simulation.
// In graphics mode the raylib window must already be open.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	cfg = cfg.Clone()
	if opts.Seed != 0 {
		cfg.Particles.Seed = opts.Seed
	}
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}

	g := &Game{
		collector:      telemetry.NewCollector(cfg.Telemetry.StatsInterval),
		logger:         slog.Default(),
		logStats:       opts.LogStats,
		headless:       opts.Headless,
		stepsPerUpdate: opts.StepsPerUpdate,
	}

	s, err := sim.New(cfg, sim.WithLogger(g.logger), sim.WithCollector(g.collector))
	if err != nil {
		return nil, err
	}
	if err := s.Reset(); err != nil {
		return nil, fmt.Errorf("initial reset: %w", err)
	}
	g.sim = s

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		s.Dispose()
		return nil, err
	}
	g.outputManager = om
	if om != nil {
		g.logger.Info("writing output", "dir", om.Dir())
	}
	if err := om.WriteConfig(cfg); err != nil {
		g.logger.Error("failed to write config", "error", err)
	}

	if !g.headless {
		g.initGraphics(cfg)
	}
	return g, nil
}

func (g *Game) initGraphics(cfg *config.Config) {
	g.screenWidth = float32(rl.GetScreenWidth())
	g.screenHeight = float32(rl.GetScreenHeight())

	g.texture = renderer.NewTextureRenderer()
	g.camera = camera.New(g.screenWidth, g.screenHeight, float32(cfg.Output.Aspect))
	g.controls = ui.NewControlsPanel(10, 10, panelWidth)
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-perfWidth-10, 120, perfWidth)
	g.framePerf = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow, telemetry.FramePhases...)
}

// Sim returns the simulation.
func (g *Game) Sim() *sim.Simulation {
	return g.sim
}

// Update runs one host frame in graphics mode: input, then the scheduled
// steps for this frame.
func (g *Game) Update() {
	g.framePerf.StartTick()
	g.framePerf.StartPhase(telemetry.FrameInput)
	g.handleInput()

	g.framePerf.StartPhase(telemetry.FrameSimulate)
	if g.sim.State() == sim.Ready {
		if _, err := g.sim.Tick(g.frame); err != nil {
			g.logger.Error("tick failed", "frame", g.frame, "error", err)
		}
	}
	g.frame++

	g.flushTelemetry()
}

// UpdateHeadless runs stepsPerUpdate steps regardless of the play state.
func (g *Game) UpdateHeadless() error {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.sim.Step(); err != nil {
			return err
		}
	}
	g.flushTelemetry()
	return nil
}

// Tick returns the number of steps completed since the last reset.
func (g *Game) Tick() int64 {
	return g.sim.StepCount()
}

// Unload releases the simulation and GPU resources and closes output files.
func (g *Game) Unload() {
	if g.texture != nil {
		g.texture.Unload()
	}
	if err := g.sim.Dispose(); err != nil {
		g.logger.Error("dispose failed", "error", err)
	}
	if err := g.outputManager.Close(); err != nil {
		g.logger.Error("failed to close output", "error", err)
	}
}
