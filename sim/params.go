package sim

import (
	"github.com/pthm-cable/collide/components"
	"github.com/pthm-cable/collide/config"
)

// SetParameters applies fn to a copy of the committed configuration and
// commits it if it validates. Nothing changes on error. The new values are
// latched at the start of the next step; particle count, layout, seed, grid
// shape and domain wait for the next reset.
func (s *Simulation) SetParameters(fn func(*config.Config)) error {
	if s.state == Disposed {
		return ErrDisposed
	}
	next := s.cfg.Clone()
	fn(next)
	if err := next.Validate(); err != nil {
		return err
	}
	s.commit(next)
	return nil
}

// ApplyPatch merges a YAML fragment into the committed configuration.
// Only fields present in the patch change.
func (s *Simulation) ApplyPatch(patch []byte) error {
	if s.state == Disposed {
		return ErrDisposed
	}
	next, err := s.cfg.Merge(patch)
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

func (s *Simulation) commit(next *config.Config) {
	s.cfg = next
	s.pending = true
	if s.recorder != nil {
		s.recorder.RecordParamUpdate()
	}
}

// SetPointer records the host pointer state. It reaches the kernels at the
// next step in dynamic mode, otherwise with the next parameter change.
func (s *Simulation) SetPointer(p components.Pointer) error {
	if s.state == Disposed {
		return ErrDisposed
	}
	s.pointer = p
	return nil
}

// Pointer returns the last pointer state set by the host.
func (s *Simulation) Pointer() components.Pointer {
	return s.pointer
}

// TogglePaint switches the pointer between applying forces and painting
// obstacles.
func (s *Simulation) TogglePaint() error {
	return s.SetParameters(func(c *config.Config) {
		c.Interaction.PaintObstacles = !c.Interaction.PaintObstacles
	})
}

// AdjustRadius changes the pointer radius by delta. A result outside the
// accepted range is a *config.ConfigurationError.
func (s *Simulation) AdjustRadius(delta float64) error {
	return s.SetParameters(func(c *config.Config) {
		c.Interaction.Radius += delta
	})
}

// Resize changes the output aspect ratio. The canvas and obstacle layer are
// reallocated at the next step.
func (s *Simulation) Resize(aspect float64) error {
	return s.SetParameters(func(c *config.Config) {
		c.Output.Aspect = aspect
	})
}

// ClearObstacles removes every painted obstacle.
func (s *Simulation) ClearObstacles() error {
	switch s.state {
	case Disposed:
		return ErrDisposed
	case Uninitialized:
		return ErrNotInitialized
	}
	s.obstacles.Clear()
	return nil
}
