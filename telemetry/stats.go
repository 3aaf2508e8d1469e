package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/collide/components"
	"github.com/pthm-cable/collide/systems"
)

// StepStats holds aggregate measurements of the particle state after a step.
type StepStats struct {
	Step      int64   `csv:"step"`
	Particles int     `csv:"particles"`
	Kinetic   float64 `csv:"kinetic_energy"` // Sum of 0.5 * |v|²

	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	OutOfBounds  int `csv:"out_of_bounds"`
	Overflow     int `csv:"index_overflow"`
	MaxOccupancy int `csv:"max_occupancy"`

	// Pairs closer than the minimum spacing; NotMeasured when skipped
	ClosePairs    int     `csv:"close_pairs"`
	CloseFraction float64 `csv:"close_fraction"` // ClosePairs / Particles

	Obstacles int `csv:"obstacle_cells"`

	// Host events since the previous record
	WindowSteps  int64 `csv:"window_steps"`
	Resets       int   `csv:"resets"`
	ParamUpdates int   `csv:"param_updates"`
	Painted      int   `csv:"painted_cells"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// NotMeasured marks ClosePairs and CloseFraction in a record whose close
// pairs were not counted.
const NotMeasured = -1

// Measure computes StepStats for a particle snapshot. A non-nil index must
// have been rebuilt from the same snapshot and have cells no smaller than
// spacing. With a nil index close pairs are counted by brute force, which is
// quadratic in the particle count; a spacing of 0 skips them.
func Measure(particles []components.Particle, index *systems.SpatialIndex, bounds components.Bounds, spacing float32) StepStats {
	s := StepStats{Particles: len(particles)}
	if len(particles) == 0 {
		return s
	}

	speeds := make([]float64, len(particles))
	for i := range particles {
		p := &particles[i]
		v := float64(p.Vel.Len())
		speeds[i] = v
		s.Kinetic += 0.5 * v * v
		if !bounds.Contains(p.Pos) {
			s.OutOfBounds++
		}
	}

	s.SpeedMean, s.SpeedStd = stat.PopMeanStdDev(speeds, nil)
	sort.Float64s(speeds)
	s.SpeedP50 = Percentile(speeds, 0.5)
	s.SpeedP90 = Percentile(speeds, 0.9)
	s.SpeedMax = speeds[len(speeds)-1]

	if index != nil {
		s.Overflow = index.Overflow()
		s.MaxOccupancy = index.MaxOccupancy()
	}
	if spacing > 0 {
		s.ClosePairs = closePairs(particles, index, spacing)
		s.CloseFraction = float64(s.ClosePairs) / float64(len(particles))
	}
	return s
}

// closePairs counts unordered pairs closer than spacing. With an index, only
// the 3×3 cell neighborhood is searched, so spacing should not exceed a cell.
func closePairs(particles []components.Particle, index *systems.SpatialIndex, spacing float32) int {
	limit := spacing * spacing
	n := 0
	if index == nil {
		for i := range particles {
			for j := i + 1; j < len(particles); j++ {
				if particles[i].Pos.Sub(particles[j].Pos).LenSq() < limit {
					n++
				}
			}
		}
		return n
	}

	for i := range particles {
		cx, cy := index.CellOf(particles[i].Pos)
		for j := range index.Neighbors(cx, cy, 1) {
			if int(j) <= i {
				continue
			}
			if particles[i].Pos.Sub(particles[j].Pos).LenSq() < limit {
				n++
			}
		}
	}
	return n
}

// LogValue implements slog.LogValuer for structured logging.
func (s StepStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("step", s.Step),
		slog.Int("particles", s.Particles),
		slog.Float64("kinetic_energy", s.Kinetic),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Int("out_of_bounds", s.OutOfBounds),
		slog.Int("index_overflow", s.Overflow),
		slog.Int("max_occupancy", s.MaxOccupancy),
		slog.Int("close_pairs", s.ClosePairs),
		slog.Int("obstacle_cells", s.Obstacles),
		slog.Int("resets", s.Resets),
		slog.Int("param_updates", s.ParamUpdates),
	)
}

// LogStats logs the step stats using slog.
func (s StepStats) LogStats() {
	slog.Info("stats",
		"step", s.Step,
		"particles", s.Particles,
		"kinetic_energy", s.Kinetic,
		"speed_mean", s.SpeedMean,
		"speed_std", s.SpeedStd,
		"speed_p50", s.SpeedP50,
		"speed_p90", s.SpeedP90,
		"speed_max", s.SpeedMax,
		"out_of_bounds", s.OutOfBounds,
		"index_overflow", s.Overflow,
		"max_occupancy", s.MaxOccupancy,
		"close_pairs", s.ClosePairs,
		"close_fraction", s.CloseFraction,
		"obstacle_cells", s.Obstacles,
		"resets", s.Resets,
		"param_updates", s.ParamUpdates,
		"painted_cells", s.Painted,
	)
}
