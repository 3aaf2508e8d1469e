package sim

import (
	"github.com/pthm-cable/collide/telemetry"
)

// Measure computes StepStats for the current particle role. The spatial
// index is rebuilt from that role first so occupancy and close pairs describe
// the same snapshot; the next step rebuilds it again anyway. Close pairs are
// only counted when spacing fits in one cell, otherwise they are reported as
// telemetry.NotMeasured.
func (s *Simulation) Measure() telemetry.StepStats {
	if s.buf == nil {
		return telemetry.StepStats{}
	}
	particles := s.buf.Current()
	spacing := s.params.Spacing

	s.index.Rebuild(particles)
	if cw, ch := s.index.CellSize(); spacing > cw || spacing > ch {
		stats := telemetry.Measure(particles, s.index, s.params.Bounds, 0)
		stats.ClosePairs = telemetry.NotMeasured
		stats.CloseFraction = telemetry.NotMeasured
		stats.Obstacles = s.obstacles.Count()
		return stats
	}

	stats := telemetry.Measure(particles, s.index, s.params.Bounds, spacing)
	stats.Obstacles = s.obstacles.Count()
	return stats
}

// TakeStats returns the records flushed since the last call, oldest first.
func (s *Simulation) TakeStats() []telemetry.StepStats {
	out := s.stats
	s.stats = nil
	return out
}
