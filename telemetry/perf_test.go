package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_PhaseTiming(t *testing.T) {
	pc := NewPerfCollector(10, StepPhases...)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialIndex)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhasePhysics)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	for _, phase := range []string{PhaseSpatialIndex, PhasePhysics} {
		if stats.PhaseAvg[phase] <= 0 {
			t.Errorf("%s: expected a positive average", phase)
		}
	}
	if stats.PhaseAvg[PhaseRender] != 0 {
		t.Errorf("render was never started, got %v", stats.PhaseAvg[PhaseRender])
	}
	if len(stats.Phases) != len(StepPhases) {
		t.Errorf("Phases = %v", stats.Phases)
	}
}

func TestPerfCollector_UnknownPhase(t *testing.T) {
	pc := NewPerfCollector(4, "known")
	pc.StartTick()
	pc.StartPhase("known")
	time.Sleep(50 * time.Microsecond)
	pc.StartPhase("other")
	time.Sleep(50 * time.Microsecond)
	pc.EndTick()

	stats := pc.Stats()
	if _, ok := stats.PhaseAvg["other"]; ok {
		t.Error("unregistered phase should not be reported")
	}
	if stats.PhaseAvg["known"] >= stats.AvgTickDuration {
		t.Errorf("known %v should be below tick %v", stats.PhaseAvg["known"], stats.AvgTickDuration)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5, PhaseSpatialIndex)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSpatialIndex)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
	if stats.MinTickDuration > stats.P95TickDuration || stats.P95TickDuration > stats.MaxTickDuration {
		t.Errorf("min %v, p95 %v, max %v out of order", stats.MinTickDuration, stats.P95TickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10, "fast", "slow")

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(1 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
	if sum := fastPct + slowPct; sum > 100.0001 {
		t.Errorf("phase shares sum to %v%%", sum)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10, FramePhases...)

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10, FramePhases...)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	// Sleep overshoots, so only bound from above
	if stats.FPS <= 0 || stats.FPS > 67 {
		t.Errorf("FPS = %v for a >=16ms frame", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	step := PerfStats{
		AvgTickDuration: 1500 * time.Microsecond,
		P95TickDuration: 2000 * time.Microsecond,
		PhasePct: map[string]float64{
			PhasePhysics: 60,
			PhaseRender:  30,
		},
	}
	frame := PerfStats{
		AvgTickDuration: 16 * time.Millisecond,
		PhaseAvg:        map[string]time.Duration{FrameDraw: 3 * time.Millisecond},
		FPS:             60,
	}

	tests := []struct {
		name  string
		frame PerfStats
		fps   float64
		draw  int64
	}{
		{"headless", PerfStats{}, 0, 0},
		{"window", frame, 60, 3000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := step.ToCSV(42, tt.frame)
			if row.Step != 42 || row.AvgTickUS != 1500 || row.P95TickUS != 2000 {
				t.Errorf("tick columns = %d/%d/%d", row.Step, row.AvgTickUS, row.P95TickUS)
			}
			if row.PhysicsPct != 60 || row.RenderPct != 30 || row.SpatialPct != 0 {
				t.Errorf("phase pct = %v/%v/%v", row.PhysicsPct, row.RenderPct, row.SpatialPct)
			}
			if row.FPS != tt.fps || row.DrawUS != tt.draw {
				t.Errorf("frame columns = %v fps, %d draw_us", row.FPS, row.DrawUS)
			}
		})
	}
}
