package sim

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/pthm-cable/collide/components"
	"github.com/pthm-cable/collide/config"
	"github.com/pthm-cable/collide/systems"
	"github.com/pthm-cable/collide/telemetry"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// testConfig returns a small valid configuration.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Particles.Count = 200
	cfg.Output.Width = 64
	cfg.Output.Aspect = 1
	cfg.Spatial.Divisions = 8
	return cfg
}

func newReady(t *testing.T, cfg *config.Config) *Simulation {
	t.Helper()
	s, err := New(cfg, WithLogger(quietLogger))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	t.Cleanup(func() {
		if s.State() != Disposed {
			s.Dispose()
		}
	})
	return s
}

func TestStepBeforeReset(t *testing.T) {
	s, err := New(testConfig(), WithLogger(quietLogger))
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != Uninitialized {
		t.Fatalf("State = %v, want uninitialized", s.State())
	}
	if err := s.Step(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Step = %v, want ErrNotInitialized", err)
	}
	if _, err := s.Tick(0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Tick = %v, want ErrNotInitialized", err)
	}
	if err := s.ClearObstacles(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ClearObstacles = %v, want ErrNotInitialized", err)
	}
	if s.Image() != nil {
		t.Error("Image should be nil before reset")
	}
}

func TestDisposeRejectsFurtherCalls(t *testing.T) {
	s := newReady(t, testConfig())
	if err := s.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	calls := map[string]func() error{
		"Step":    s.Step,
		"Reset":   s.Reset,
		"Dispose": s.Dispose,
		"ResetWith": func() error {
			return s.ResetWith(testConfig())
		},
		"SetParameters": func() error {
			return s.SetParameters(func(*config.Config) {})
		},
		"ApplyPatch": func() error {
			return s.ApplyPatch([]byte("physics: {gravity: 0.1}"))
		},
		"SetPointer": func() error {
			return s.SetPointer(components.Pointer{})
		},
		"ClearObstacles": s.ClearObstacles,
		"Tick": func() error {
			_, err := s.Tick(0)
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, ErrDisposed) {
				t.Errorf("%s after Dispose = %v, want ErrDisposed", name, err)
			}
		})
	}
	if s.Image() != nil || s.Particles() != nil {
		t.Error("resources still reachable after Dispose")
	}
}

func TestParticleCountBounds(t *testing.T) {
	tests := []struct {
		name  string
		count int
	}{
		{"below minimum", 10},
		{"zero", 0},
		{"above maximum", config.MaxParticles + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Particles.Count = tt.count

			var cerr *config.ConfigurationError
			if _, err := New(cfg); !errors.As(err, &cerr) {
				t.Fatalf("New = %v, want *ConfigurationError", err)
			}
			if cerr.Field != "particles.count" {
				t.Errorf("Field = %q, want particles.count", cerr.Field)
			}

			s := newReady(t, testConfig())
			if err := s.ResetWith(cfg); !errors.As(err, &cerr) {
				t.Fatalf("ResetWith = %v, want *ConfigurationError", err)
			}
			// Rejected before anything was released
			if s.State() != Ready || len(s.Particles()) != 200 {
				t.Errorf("state %v with %d particles after rejected reset", s.State(), len(s.Particles()))
			}
		})
	}
}

func TestResetAllocationFailureRollsBack(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		resource string
	}{
		{
			name:     "buffer budget",
			mutate:   func(c *config.Config) { c.GPU.MaxBufferBytes = 1024 },
			resource: "particle buffer",
		},
		{
			name: "index budget",
			mutate: func(c *config.Config) {
				c.GPU.MaxBufferBytes = systems.BufferBytes(c.Particles.Count) + 16
			},
			resource: "spatial index",
		},
		{
			name:     "texture size",
			mutate:   func(c *config.Config) { c.GPU.MaxTextureSize = 32 },
			resource: "obstacle layer 64x64",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newReady(t, testConfig())

			cfg := testConfig()
			tt.mutate(cfg)
			err := s.ResetWith(cfg)

			var rerr *ResourceAllocationError
			if !errors.As(err, &rerr) {
				t.Fatalf("ResetWith = %v, want *ResourceAllocationError", err)
			}
			if rerr.Resource != tt.resource {
				t.Errorf("Resource = %q, want %q", rerr.Resource, tt.resource)
			}
			var aerr *systems.AllocationError
			if !errors.As(err, &aerr) {
				t.Error("device allocation error not wrapped")
			}

			if s.State() != Uninitialized {
				t.Errorf("State = %v, want uninitialized", s.State())
			}
			if s.Particles() != nil || s.Index() != nil || s.Obstacles() != nil || s.Image() != nil || s.Device() != nil {
				t.Error("partial allocation survived the failed reset")
			}
			if err := s.Step(); !errors.Is(err, ErrNotInitialized) {
				t.Errorf("Step after failed reset = %v, want ErrNotInitialized", err)
			}

			// A valid reset recovers.
			if err := s.ResetWith(testConfig()); err != nil {
				t.Fatalf("recovery reset: %v", err)
			}
			if s.State() != Ready {
				t.Errorf("State = %v after recovery, want ready", s.State())
			}
		})
	}
}

func TestResetIsReproducible(t *testing.T) {
	for _, layout := range []string{"random", "grid", "noise"} {
		t.Run(layout, func(t *testing.T) {
			cfg := testConfig()
			cfg.Particles.Layout = layout
			cfg.Particles.RandomSize = true
			cfg.Particles.RandomColor = true
			s := newReady(t, cfg)

			first := append([]components.Particle(nil), s.Particles()...)
			for i := 0; i < 5; i++ {
				if err := s.Step(); err != nil {
					t.Fatal(err)
				}
			}
			if s.StepCount() != 5 {
				t.Errorf("StepCount = %d, want 5", s.StepCount())
			}

			if err := s.Reset(); err != nil {
				t.Fatal(err)
			}
			if s.StepCount() != 0 {
				t.Errorf("StepCount = %d after reset, want 0", s.StepCount())
			}
			second := s.Particles()
			if len(second) != len(first) {
				t.Fatalf("len = %d after second reset, want %d", len(second), len(first))
			}
			for i := range first {
				if first[i] != second[i] {
					t.Fatalf("particle %d differs across resets: %+v vs %+v", i, first[i], second[i])
				}
			}
		})
	}
}

func TestStepsKeepParticlesInBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"defaults", func(*config.Config) {}},
		{"heavy gravity elastic walls", func(c *config.Config) {
			c.Physics.Gravity = 0.3
			c.Physics.GravityScale = 10
			c.Physics.BounceWall = 1
		}},
		{"dense collisions", func(c *config.Config) {
			c.Particles.Count = 2000
			c.Physics.Spacing = 2
			c.Physics.BounceParticle = 0.5
			c.Physics.Friction = 0.05
		}},
		{"no index windowed", func(c *config.Config) {
			c.Spatial.Enabled = false
			c.Spatial.FallbackWindow = 16
		}},
		{"inner walls", func(c *config.Config) {
			c.Physics.WallPortion = 0.5
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			s := newReady(t, cfg)

			for step := 0; step < 100; step++ {
				if err := s.Step(); err != nil {
					t.Fatal(err)
				}
			}
			b := s.Bounds()
			for i, p := range s.Particles() {
				if !b.Contains(p.Pos) {
					t.Fatalf("particle %d at %+v outside %+v", i, p.Pos, b)
				}
				if isNaN(p.Vel.X) || isNaN(p.Vel.Y) {
					t.Fatalf("particle %d has NaN velocity", i)
				}
			}
		})
	}
}

// With no friction, no collisions and elastic walls, total mechanical energy
// never grows.
func TestEnergyNonIncreasing(t *testing.T) {
	cfg := testConfig()
	cfg.Particles.Count = 100
	cfg.Output.DomainWidth = 1
	cfg.Output.DomainHeight = 1
	cfg.Physics.Gravity = 0.1
	cfg.Physics.GravityScale = 1
	cfg.Physics.Friction = 0
	cfg.Physics.Spacing = 0
	cfg.Physics.BounceWall = 1
	s := newReady(t, cfg)

	g := s.params.Gravity
	height := s.Domain().Height
	energy := func() float64 {
		var e float64
		for _, p := range s.Particles() {
			e += 0.5*float64(p.Vel.LenSq()) + float64(g)*float64(height-p.Pos.Y)
		}
		return e
	}

	prev := energy()
	start := prev
	const tol = 1e-4
	for step := 0; step < 1000; step++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
		e := energy()
		if e > prev+tol {
			t.Fatalf("step %d: energy rose from %v to %v", step, prev, e)
		}
		prev = e
	}
	if prev > start {
		t.Errorf("final energy %v above initial %v", prev, start)
	}
}

// Overlapping particles relax to the minimum spacing.
func TestSpacingRelaxation(t *testing.T) {
	cfg := testConfig()
	cfg.Particles.Count = 400
	cfg.Physics.Gravity = 0
	cfg.Physics.Friction = 0
	cfg.Physics.Spacing = 2
	cfg.Physics.BounceParticle = 1
	cfg.Spatial.Divisions = 16
	s := newReady(t, cfg)

	// Count below 90% of the spacing so exact contacts are not counted.
	const probe = 1.8
	before := telemetry.Measure(s.Particles(), nil, s.Bounds(), probe).ClosePairs
	if before == 0 {
		t.Fatal("initial layout has no overlapping pairs")
	}

	for step := 0; step < 200; step++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	after := telemetry.Measure(s.Particles(), nil, s.Bounds(), probe).ClosePairs
	if after*10 > before {
		t.Errorf("close pairs %d -> %d, want at least a 10x reduction", before, after)
	}
}

func TestDeterministicAcrossWorkers(t *testing.T) {
	run := func(workers int) []components.Particle {
		cfg := testConfig()
		cfg.Particles.Count = 1000
		cfg.Physics.Spacing = 2
		cfg.GPU.Workers = workers
		cfg.GPU.ParallelThreshold = 1
		s := newReady(t, cfg)
		for i := 0; i < 20; i++ {
			if err := s.Step(); err != nil {
				t.Fatal(err)
			}
		}
		return append([]components.Particle(nil), s.Particles()...)
	}

	serial := run(1)
	parallel := run(4)
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Fatalf("particle %d differs: %+v vs %+v", i, serial[i], parallel[i])
		}
	}
}

func TestSetParametersValidation(t *testing.T) {
	s := newReady(t, testConfig())

	err := s.SetParameters(func(c *config.Config) { c.Physics.Gravity = 0.5 })
	var cerr *config.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("SetParameters = %v, want *ConfigurationError", err)
	}
	if got := s.Config().Physics.Gravity; got != testConfig().Physics.Gravity {
		t.Errorf("gravity = %v after rejected update", got)
	}

	if err := s.ApplyPatch([]byte("physics:\n  friction: 0.2\n")); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if got := s.Config().Physics.Friction; got != 0.2 {
		t.Errorf("friction = %v, want 0.2", got)
	}
	// Committed but not latched until the next step
	if s.params.Friction == 0.2 {
		t.Error("parameter applied before the next step")
	}
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if s.params.Friction != 0.2 {
		t.Errorf("latched friction = %v, want 0.2", s.params.Friction)
	}

	if err := s.AdjustRadius(5); !errors.As(err, &cerr) {
		t.Errorf("AdjustRadius out of range = %v, want *ConfigurationError", err)
	}
}

func TestTickSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Run.StepInterval = 2
	cfg.Run.StepsPerTick = 3
	s := newReady(t, cfg)

	tests := []struct {
		frame   int
		playing bool
		want    int
	}{
		{1, true, 0},
		{2, true, 3},
		{4, false, 0},
	}
	for _, tt := range tests {
		if err := s.SetParameters(func(c *config.Config) { c.Run.Playing = tt.playing }); err != nil {
			t.Fatal(err)
		}
		n, err := s.Tick(tt.frame)
		if err != nil {
			t.Fatal(err)
		}
		if n != tt.want {
			t.Errorf("Tick(%d) playing=%v ran %d steps, want %d", tt.frame, tt.playing, n, tt.want)
		}
	}
	if s.StepCount() != 3 {
		t.Errorf("StepCount = %d, want 3", s.StepCount())
	}
}

func TestPaintObstacles(t *testing.T) {
	rec := telemetry.NewCollector(1)
	s, err := New(testConfig(), WithLogger(quietLogger), WithCollector(rec))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	defer s.Dispose()

	if err := s.TogglePaint(); err != nil {
		t.Fatal(err)
	}
	center := components.Vec2{X: 0.5, Y: 0.5}
	if err := s.SetPointer(components.Pointer{Pos: center, Primary: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}

	painted := s.Obstacles().Count()
	if painted == 0 {
		t.Fatal("no obstacle cells painted")
	}
	if occ, _ := s.Obstacles().At(32, 32); !occ {
		t.Error("center cell not painted")
	}
	batch := s.TakeStats()
	if len(batch) != 1 {
		t.Fatalf("got %d stats records after one step, want 1", len(batch))
	}
	stats := batch[0]
	if stats.Painted != painted || stats.Resets != 1 || stats.ParamUpdates != 1 {
		t.Errorf("recorded %+v, want %d painted, 1 reset, 1 update", stats, painted)
	}
	if stats.Step != 1 || stats.Particles != 200 || stats.Obstacles != painted {
		t.Errorf("record step=%d particles=%d obstacles=%d", stats.Step, stats.Particles, stats.Obstacles)
	}

	// Secondary erases
	if err := s.SetPointer(components.Pointer{Pos: center, Secondary: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if s.Obstacles().Count() >= painted {
		t.Errorf("erase left %d of %d cells", s.Obstacles().Count(), painted)
	}

	if err := s.ClearObstacles(); err != nil {
		t.Fatal(err)
	}
	if s.Obstacles().Count() != 0 {
		t.Errorf("Count = %d after clear", s.Obstacles().Count())
	}
}

func TestResizeOutput(t *testing.T) {
	s := newReady(t, testConfig())

	if err := s.Resize(2); err != nil {
		t.Fatal(err)
	}
	if b := s.Image().Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("image resized before the next step: %v", b)
	}
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if b := s.Image().Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("image = %v, want 64x32", b)
	}
	if w, h := s.Obstacles().Size(); w != 64 || h != 32 {
		t.Errorf("obstacle layer = %dx%d, want 64x32", w, h)
	}
	// Domain is kept until reset
	if d := s.Domain(); d.Width != 64 || d.Height != 64 {
		t.Errorf("domain = %+v, want 64x64", d)
	}
}

func TestResizeOverTextureLimit(t *testing.T) {
	cfg := testConfig()
	cfg.GPU.MaxTextureSize = 64
	s := newReady(t, cfg)

	if err := s.SetParameters(func(c *config.Config) { c.Output.Width = 128 }); err != nil {
		t.Fatal(err)
	}
	var rerr *ResourceAllocationError
	if err := s.Step(); !errors.As(err, &rerr) {
		t.Fatalf("Step = %v, want *ResourceAllocationError", err)
	}
	if s.State() != Ready {
		t.Errorf("State = %v, want ready", s.State())
	}
	if got := s.Config().Output.Width; got != 64 {
		t.Errorf("width = %d, want previous 64 restored", got)
	}
	if err := s.Step(); err != nil {
		t.Errorf("Step after failed resize: %v", err)
	}
}

func isNaN(v float32) bool {
	return math.IsNaN(float64(v))
}

func TestStatsRecords(t *testing.T) {
	rec := telemetry.NewCollector(5)
	s, err := New(testConfig(), WithLogger(quietLogger), WithCollector(rec))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	defer s.Dispose()

	for i := 0; i < 12; i++ {
		if err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}
	batch := s.TakeStats()
	if len(batch) != 2 {
		t.Fatalf("got %d records, want 2", len(batch))
	}
	for i, st := range batch {
		if st.Step != int64(5*(i+1)) || st.WindowSteps != 5 {
			t.Errorf("record %d: step=%d window=%d", i, st.Step, st.WindowSteps)
		}
		if st.OutOfBounds != 0 {
			t.Errorf("record %d: %d particles out of bounds", i, st.OutOfBounds)
		}
	}
	if len(s.TakeStats()) != 0 {
		t.Error("TakeStats should drain the queue")
	}
}

func TestMeasureClosePairsNeedSpacingWithinCell(t *testing.T) {
	tests := []struct {
		name     string
		domain   float64
		spacing  float64
		measured bool
	}{
		// 64px domain, 8 divisions: 8px cells
		{"spacing fits a cell", 0, 2, true},
		// unit domain, 8 divisions: 0.125 cells
		{"spacing wider than a cell", 1, 0.5, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Output.DomainWidth = tc.domain
			cfg.Output.DomainHeight = tc.domain
			cfg.Physics.Spacing = tc.spacing
			rec := telemetry.NewCollector(1)
			s, err := New(cfg, WithLogger(quietLogger), WithCollector(rec))
			if err != nil {
				t.Fatal(err)
			}
			if err := s.Reset(); err != nil {
				t.Fatal(err)
			}
			defer s.Dispose()

			if err := s.Step(); err != nil {
				t.Fatal(err)
			}
			batch := s.TakeStats()
			if len(batch) != 1 {
				t.Fatalf("got %d records, want 1", len(batch))
			}
			for _, st := range []telemetry.StepStats{batch[0], s.Measure()} {
				if tc.measured {
					if st.ClosePairs < 0 || st.CloseFraction < 0 {
						t.Errorf("close pairs = %d (%v), want counted", st.ClosePairs, st.CloseFraction)
					}
				} else if st.ClosePairs != telemetry.NotMeasured || st.CloseFraction != telemetry.NotMeasured {
					t.Errorf("close pairs = %d (%v), want NotMeasured", st.ClosePairs, st.CloseFraction)
				}
				if st.MaxOccupancy < 1 || st.MaxOccupancy != s.Index().MaxOccupancy() {
					t.Errorf("MaxOccupancy = %d, index reports %d", st.MaxOccupancy, s.Index().MaxOccupancy())
				}
				if st.Overflow != s.Index().Overflow() {
					t.Errorf("Overflow = %d, index reports %d", st.Overflow, s.Index().Overflow())
				}
			}
		})
	}
}
