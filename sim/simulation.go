// Package sim owns the simulation resources and sequences the kernel passes
// that make up a step.
package sim

import (
	"image"
	"log/slog"

	"github.com/pthm-cable/collide/components"
	"github.com/pthm-cable/collide/config"
	"github.com/pthm-cable/collide/renderer"
	"github.com/pthm-cable/collide/systems"
	"github.com/pthm-cable/collide/telemetry"
)

// State is the controller lifecycle state.
type State int

const (
	Uninitialized State = iota
	Ready
	Stepping
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Stepping:
		return "stepping"
	case Disposed:
		return "disposed"
	}
	return "unknown"
}

// Simulation is the controller. It is driven from a single goroutine; the
// kernels it dispatches fan out over the device workers internally.
type Simulation struct {
	cfg     *config.Config // committed by the host
	active  *config.Config // latched for the running step
	pending bool
	state   State
	logger  *slog.Logger

	dev       *systems.Device
	buf       *systems.ParticleBuffer
	index     *systems.SpatialIndex
	obstacles *systems.ObstacleLayer
	canvas    *renderer.Canvas
	physics   *systems.PhysicsKernel
	render    *renderer.RenderKernel

	// domain is fixed at reset; resolution changes only rescale the canvas.
	domain components.Domain

	pointer  components.Pointer // latest host input
	params   systems.PhysicsParams
	rparams  renderer.RenderParams
	steps    int64
	perf     *telemetry.PerfCollector
	recorder *telemetry.Collector
	stats    []telemetry.StepStats // flushed records not yet taken by the host
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		s.logger = l
	}
}

// WithCollector records resets, parameter updates and painted cells, and
// measures a StepStats record every time the collector is due.
func WithCollector(c *telemetry.Collector) Option {
	return func(s *Simulation) {
		s.recorder = c
	}
}

// New validates cfg and returns an uninitialized simulation. cfg is copied.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	cp := cfg.Clone()
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		cfg:     cp,
		active:  cp.Clone(),
		logger:  slog.Default(),
		physics: systems.NewPhysicsKernel(),
		render:  renderer.NewRenderKernel(),
		perf:    telemetry.NewPerfCollector(cp.Telemetry.PerfWindow, telemetry.StepPhases...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// State returns the lifecycle state.
func (s *Simulation) State() State {
	return s.state
}

// Config returns a copy of the committed configuration.
func (s *Simulation) Config() *config.Config {
	return s.cfg.Clone()
}

// StepCount returns the steps completed since the last reset.
func (s *Simulation) StepCount() int64 {
	return s.steps
}

// Image returns the output image, or nil before the first reset.
// The image is rewritten in place by every step.
func (s *Simulation) Image() *image.RGBA {
	if s.canvas == nil {
		return nil
	}
	return s.canvas.Image()
}

// Particles returns the current particle role. The slice is only valid until
// the next step.
func (s *Simulation) Particles() []components.Particle {
	if s.buf == nil {
		return nil
	}
	return s.buf.Current()
}

// Index returns the spatial index as of the last rebuild.
func (s *Simulation) Index() *systems.SpatialIndex {
	return s.index
}

// Obstacles returns the obstacle layer.
func (s *Simulation) Obstacles() *systems.ObstacleLayer {
	return s.obstacles
}

// Domain returns the world dimensions fixed at the last reset.
func (s *Simulation) Domain() components.Domain {
	return s.domain
}

// Bounds returns the wall rectangle the physics kernel contains particles in.
func (s *Simulation) Bounds() components.Bounds {
	return s.params.Bounds
}

// Perf returns the step phase timings.
func (s *Simulation) Perf() *telemetry.PerfCollector {
	return s.perf
}

// Device returns the execution device, or nil before the first reset.
func (s *Simulation) Device() *systems.Device {
	return s.dev
}
