package telemetry

import (
	"log/slog"
	"sort"
	"time"
)

// Simulation step phases.
const (
	PhaseObstacles    = "obstacles"
	PhaseSpatialIndex = "spatial_index"
	PhasePhysics      = "physics"
	PhaseSwap         = "swap"
	PhaseRender       = "render"
	PhaseTelemetry    = "telemetry"
)

// StepPhases lists the step phases in execution order.
var StepPhases = []string{
	PhaseObstacles, PhaseSpatialIndex, PhasePhysics, PhaseSwap, PhaseRender, PhaseTelemetry,
}

// Host frame sections.
const (
	FrameInput    = "input"
	FrameSimulate = "simulate"
	FrameUpload   = "upload"
	FrameDraw     = "draw"
)

// FramePhases lists the host frame sections in execution order.
var FramePhases = []string{FrameInput, FrameSimulate, FrameUpload, FrameDraw}

// PerfCollector times a fixed, ordered set of phases over a rolling window
// of ticks. A tick is one simulation step or one host frame. Time spent in a
// phase the collector was not created with counts toward the tick only.
type PerfCollector struct {
	phases []string
	slot   map[string]int
	window int

	ticks []time.Duration // ring of tick durations
	spans []time.Duration // ring of window*len(phases) phase durations
	next  int
	count int

	current    []time.Duration
	active     int
	tickStart  time.Time
	phaseStart time.Time

	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over window ticks.
func NewPerfCollector(window int, phases ...string) *PerfCollector {
	if window < 1 {
		window = 60
	}
	p := &PerfCollector{
		phases:  phases,
		slot:    make(map[string]int, len(phases)),
		window:  window,
		ticks:   make([]time.Duration, window),
		spans:   make([]time.Duration, window*len(phases)),
		current: make([]time.Duration, len(phases)),
		active:  -1,
	}
	for i, name := range phases {
		p.slot[name] = i
	}
	return p
}

// Phases returns the phase names in order.
func (p *PerfCollector) Phases() []string {
	return p.phases
}

// StartTick begins a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	clear(p.current)
	p.active = -1
}

// StartPhase closes the running phase and opens the named one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	if i, ok := p.slot[phase]; ok {
		p.active = i
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.active >= 0 {
		p.current[p.active] += now.Sub(p.phaseStart)
	}
	p.active = -1
}

// EndTick closes the running phase and records the tick.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)

	p.ticks[p.next] = now.Sub(p.tickStart)
	copy(p.spans[p.next*len(p.phases):], p.current)
	p.next = (p.next + 1) % p.window
	if p.count < p.window {
		p.count++
	}
}

// RecordFrame marks a presented frame; the interval between calls gives FPS.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats holds aggregated timings over the collector window.
type PerfStats struct {
	Phases []string

	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Average duration and share of the average tick, by phase.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Phases:        p.phases,
		PhaseAvg:      make(map[string]time.Duration, len(p.phases)),
		PhasePct:      make(map[string]float64, len(p.phases)),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.count == 0 {
		return s
	}

	sorted := make([]float64, p.count)
	sums := make([]time.Duration, len(p.phases))
	var total time.Duration
	for i := 0; i < p.count; i++ {
		d := p.ticks[i]
		total += d
		sorted[i] = float64(d)
		for j := range sums {
			sums[j] += p.spans[i*len(p.phases)+j]
		}
	}
	sort.Float64s(sorted)

	n := time.Duration(p.count)
	s.AvgTickDuration = total / n
	s.MinTickDuration = time.Duration(sorted[0])
	s.MaxTickDuration = time.Duration(sorted[len(sorted)-1])
	s.P95TickDuration = time.Duration(Percentile(sorted, 0.95))
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}

	for j, name := range p.phases {
		avg := sums[j] / n
		s.PhaseAvg[name] = avg
		if s.AvgTickDuration > 0 {
			s.PhasePct[name] = float64(avg) / float64(s.AvgTickDuration) * 100
		}
	}
	return s
}

// LogStats logs the tick summary and per-phase averages under msg.
func (s PerfStats) LogStats(msg string, extra ...any) {
	attrs := append([]any{}, extra...)
	attrs = append(attrs,
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	)
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range s.Phases {
		if avg := s.PhaseAvg[phase]; avg > 0 {
			attrs = append(attrs, phase+"_us", avg.Microseconds())
		}
	}
	slog.Info(msg, attrs...)
}

// PerfStatsCSV is one row of perf.csv: step phase shares plus host frame
// timings when a window is open.
type PerfStatsCSV struct {
	Step         int64   `csv:"step"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	ObstaclesPct float64 `csv:"obstacles_pct"`
	SpatialPct   float64 `csv:"spatial_index_pct"`
	PhysicsPct   float64 `csv:"physics_pct"`
	SwapPct      float64 `csv:"swap_pct"`
	RenderPct    float64 `csv:"render_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
	FPS          float64 `csv:"fps"`
	FrameUS      int64   `csv:"frame_us"`
	UploadUS     int64   `csv:"upload_us"`
	DrawUS       int64   `csv:"draw_us"`
}

// ToCSV flattens step timings and, if non-zero, host frame timings.
func (s PerfStats) ToCSV(step int64, frame PerfStats) PerfStatsCSV {
	return PerfStatsCSV{
		Step:         step,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		ObstaclesPct: s.PhasePct[PhaseObstacles],
		SpatialPct:   s.PhasePct[PhaseSpatialIndex],
		PhysicsPct:   s.PhasePct[PhasePhysics],
		SwapPct:      s.PhasePct[PhaseSwap],
		RenderPct:    s.PhasePct[PhaseRender],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
		FPS:          frame.FPS,
		FrameUS:      frame.AvgTickDuration.Microseconds(),
		UploadUS:     frame.PhaseAvg[FrameUpload].Microseconds(),
		DrawUS:       frame.PhaseAvg[FrameDraw].Microseconds(),
	}
}
