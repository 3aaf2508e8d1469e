package main

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/pthm-cable/collide/config"
)

func TestNormalizeRoundtrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(raw[i]-back[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Default()

	values := []float64{-1, 99, 0.05, 2.5}
	if err := pv.ApplyToConfig(cfg, values); err != nil {
		t.Fatalf("clamped values should validate: %v", err)
	}
	ph := cfg.Physics
	if ph.BounceParticle != 0 || ph.DirMult != 3 || ph.Friction != 0.05 || ph.Spacing != 2.5 {
		t.Errorf("applied %+v", ph)
	}
}

func TestEvaluateScoresRun(t *testing.T) {
	cfg := config.Default()
	cfg.Particles.Count = 100
	cfg.Output.Width = 64
	cfg.Output.Aspect = 1
	cfg.Spatial.Divisions = 8
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fe := NewFitnessEvaluator(NewParamVector(), 50, 0, []int64{1, 2}, cfg, logger)

	fitness := fe.Evaluate(fe.params.DefaultVector())
	if math.IsInf(fitness, 0) || math.IsNaN(fitness) || fitness < 0 {
		t.Fatalf("fitness = %v", fitness)
	}
	last := fe.Last()
	if last.failed != 0 {
		t.Errorf("%d seeds failed", last.failed)
	}
	want := last.closeFraction + defaultEnergyWeight*last.kinetic
	if math.Abs(fitness-want) > 1e-12 {
		t.Errorf("fitness %v != close %v + kinetic %v", fitness, last.closeFraction, last.kinetic)
	}
}
