package sim

import (
	"fmt"

	"github.com/pthm-cable/collide/renderer"
	"github.com/pthm-cable/collide/systems"
	"github.com/pthm-cable/collide/telemetry"
)

// Step advances the simulation by one step: latch parameters, apply pointer
// paint, rebuild the spatial index, integrate, swap roles and render.
func (s *Simulation) Step() error {
	switch s.state {
	case Disposed:
		return ErrDisposed
	case Uninitialized:
		return ErrNotInitialized
	}

	if err := s.latch(); err != nil {
		return err
	}

	s.state = Stepping
	defer func() { s.state = Ready }()

	perf := s.perf
	perf.StartTick()

	perf.StartPhase(telemetry.PhaseObstacles)
	s.paint()

	var index *systems.SpatialIndex
	if s.active.Spatial.Enabled {
		perf.StartPhase(telemetry.PhaseSpatialIndex)
		s.index.Rebuild(s.buf.Current())
		index = s.index
	}

	perf.StartPhase(telemetry.PhasePhysics)
	s.physics.Bind(s.params, s.buf, index, s.obstacles)
	s.physics.Dispatch(s.dev)

	perf.StartPhase(telemetry.PhaseSwap)
	s.buf.Swap()

	perf.StartPhase(telemetry.PhaseRender)
	s.render.Render(s.dev, s.canvas, s.buf.Current(), s.obstacles, s.rparams)

	s.steps++
	if s.recorder != nil && s.recorder.ShouldFlush(s.steps) {
		perf.StartPhase(telemetry.PhaseTelemetry)
		s.stats = append(s.stats, s.recorder.Flush(s.steps, s.Measure()))
	}
	perf.EndTick()
	return nil
}

// Tick is the host per-frame entry. When playing and frame is a multiple of
// run.step_interval it runs run.steps_per_tick steps. Returns the number of
// steps run.
func (s *Simulation) Tick(frame int) (int, error) {
	switch s.state {
	case Disposed:
		return 0, ErrDisposed
	case Uninitialized:
		return 0, ErrNotInitialized
	}

	run := s.cfg.Run
	if !run.Playing || frame%run.StepInterval != 0 {
		return 0, nil
	}
	for i := 0; i < run.StepsPerTick; i++ {
		if err := s.Step(); err != nil {
			return i, err
		}
	}
	return run.StepsPerTick, nil
}

// latch picks up committed parameters. Pending changes always apply; in
// dynamic mode the uniforms are rebuilt every step so pointer input is
// resampled.
func (s *Simulation) latch() error {
	if s.pending {
		next := s.cfg.Clone()
		if err := s.resizeOutput(next.Output.Width, next.Derived.Height); err != nil {
			// Keep the previous resolution so later steps do not retry.
			s.cfg.Output = s.active.Output
			if verr := s.cfg.Validate(); verr != nil {
				return fmt.Errorf("restoring output config: %w", verr)
			}
			next = s.cfg.Clone()
			s.logger.Error("output resize failed", "error", err)
			s.active = next
			s.pending = false
			s.refreshUniforms()
			return err
		}
		s.active = next
		s.pending = false
		s.refreshUniforms()
		return nil
	}
	if s.active.Run.Dynamic {
		s.refreshUniforms()
	}
	return nil
}

// refreshUniforms rebuilds the kernel parameters from the latched config and
// the latest pointer. The domain stays at its reset value.
func (s *Simulation) refreshUniforms() {
	p := systems.NewPhysicsParams(s.active, s.pointer)
	p.Domain = s.domain
	p.Bounds = s.domain.Bounds(float32(s.active.Physics.WallPortion))
	s.params = p

	r := renderer.NewRenderParams(s.active)
	r.Domain = s.domain
	s.rparams = r
}

// paint applies pointer paint mode to the obstacle layer: primary paints,
// secondary erases. Runs strictly before the physics pass.
func (s *Simulation) paint() {
	p := &s.params
	if !p.PaintMode || !p.Pointer.Engaged() {
		return
	}
	radius := p.PointerRadius
	switch {
	case p.Pointer.Primary:
		n := s.obstacles.Paint(p.Pointer.Pos, radius, s.active.Derived.ObstacleColor)
		if s.recorder != nil {
			s.recorder.RecordPaint(n)
		}
	case p.Pointer.Secondary:
		s.obstacles.Erase(p.Pointer.Pos, radius)
	}
}
