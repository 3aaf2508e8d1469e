package sim

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/collide/config"
	"github.com/pthm-cable/collide/renderer"
	"github.com/pthm-cable/collide/systems"
)

// Bytes per texel charged for the float frame plus its 8-bit view, and for
// the obstacle layer.
const (
	canvasTexelBytes   = 20
	obstacleTexelBytes = 17
)

// Reset releases everything, reallocates buffers for the committed
// configuration and populates the particles. On failure the simulation is
// left Uninitialized with nothing allocated.
func (s *Simulation) Reset() error {
	if s.state == Disposed {
		return ErrDisposed
	}
	s.release()

	cfg := s.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := s.allocate(cfg); err != nil {
		s.release()
		s.logger.Error("reset failed", "error", err, "particles", cfg.Particles.Count)
		return err
	}

	s.active = cfg.Clone()
	s.pending = false
	s.domain = cfg.Derived.Domain
	s.steps = 0
	s.stats = nil

	rng := rand.New(rand.NewSource(cfg.Particles.Seed))
	systems.Initialize(s.buf, s.active, rng)
	s.refreshUniforms()

	if s.active.Spatial.Enabled {
		s.index.Rebuild(s.buf.Current())
	}
	s.render.Render(s.dev, s.canvas, s.buf.Current(), s.obstacles, s.rparams)

	s.state = Ready
	if s.recorder != nil {
		s.recorder.RecordReset()
		s.recorder.Restart()
	}
	s.logger.Info("reset",
		"particles", s.buf.Len(),
		"layout", s.active.Derived.Layout.String(),
		"resolution", fmt.Sprintf("%dx%d", cfg.Output.Width, cfg.Derived.Height),
		"domain", fmt.Sprintf("%gx%g", s.domain.Width, s.domain.Height),
		"divisions", s.index.Divisions(),
		"workers", s.dev.Workers(),
		"allocated_bytes", s.dev.Allocated(),
	)
	return nil
}

// ResetWith commits cfg and resets. An invalid cfg is rejected before
// anything is released.
func (s *Simulation) ResetWith(cfg *config.Config) error {
	if s.state == Disposed {
		return ErrDisposed
	}
	cp := cfg.Clone()
	if err := cp.Validate(); err != nil {
		return err
	}
	s.cfg = cp
	return s.Reset()
}

// Dispose releases every resource and stops the device workers.
func (s *Simulation) Dispose() error {
	if s.state == Disposed {
		return ErrDisposed
	}
	s.release()
	s.state = Disposed
	s.logger.Info("disposed", "steps", s.steps)
	return nil
}

// allocate charges and creates the device, particle buffer, spatial index,
// obstacle layer and canvas for cfg.
func (s *Simulation) allocate(cfg *config.Config) error {
	gpu := cfg.GPU
	s.dev = systems.NewDevice(gpu.Workers, gpu.ParallelThreshold, systems.DeviceLimits{
		MaxBufferBytes: gpu.MaxBufferBytes,
		MaxTextureSize: gpu.MaxTextureSize,
	})

	n := cfg.Particles.Count
	w, h := cfg.Output.Width, cfg.Derived.Height
	div, capacity := cfg.Spatial.Divisions, cfg.Spatial.CellCapacity

	// Charge everything before allocating so an oversized request fails fast.
	if err := s.dev.Reserve("particle buffer", systems.BufferBytes(n)); err != nil {
		return allocationError(err)
	}
	if err := s.dev.Reserve("spatial index", systems.IndexBytes(div, capacity)); err != nil {
		return allocationError(err)
	}
	if err := s.dev.ReserveTexture("obstacle layer", w, h, obstacleTexelBytes); err != nil {
		return allocationError(err)
	}
	if err := s.dev.ReserveTexture("output image", w, h, canvasTexelBytes); err != nil {
		return allocationError(err)
	}

	s.buf = systems.NewParticleBuffer(n)
	s.index = systems.NewSpatialIndex(div, capacity, cfg.Derived.Domain)
	s.obstacles = systems.NewObstacleLayer(w, h, cfg.Derived.Domain)
	s.canvas = renderer.NewCanvas(w, h)
	return nil
}

// release drops every resource. Safe to call with nothing allocated.
func (s *Simulation) release() {
	if s.dev != nil {
		s.dev.ReleaseAll()
		s.dev.Stop()
	}
	s.dev = nil
	s.buf = nil
	s.index = nil
	s.obstacles = nil
	s.canvas = nil
	s.state = Uninitialized
}

// resizeOutput reallocates the canvas and resamples the obstacle layer when
// the latched resolution differs from the current one. On failure the old
// resources are kept.
func (s *Simulation) resizeOutput(w, h int) error {
	cw, ch := s.canvas.Size()
	if cw == w && ch == h {
		return nil
	}

	old := int64(cw) * int64(ch) * (canvasTexelBytes + obstacleTexelBytes)
	s.dev.Release(old)
	if err := s.dev.ReserveTexture("obstacle layer", w, h, obstacleTexelBytes); err != nil {
		s.restoreCharge(old)
		return allocationError(err)
	}
	if err := s.dev.ReserveTexture("output image", w, h, canvasTexelBytes); err != nil {
		s.dev.Release(int64(w) * int64(h) * obstacleTexelBytes)
		s.restoreCharge(old)
		return allocationError(err)
	}

	s.obstacles = s.obstacles.Resample(w, h)
	s.canvas = renderer.NewCanvas(w, h)
	s.logger.Info("output resized", "from", fmt.Sprintf("%dx%d", cw, ch), "to", fmt.Sprintf("%dx%d", w, h))
	return nil
}

// restoreCharge re-reserves bytes that were released a moment ago.
func (s *Simulation) restoreCharge(bytes int64) {
	if err := s.dev.Reserve("restored", bytes); err != nil {
		s.logger.Error("restoring device charge", "error", err)
	}
}
