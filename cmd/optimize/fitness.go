package main

import (
	"log/slog"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/collide/config"
	"github.com/pthm-cable/collide/sim"
	"github.com/pthm-cable/collide/telemetry"
)

// Default fitness weights.
const (
	defaultEnergyWeight = 1.0
	sampleEvery         = 10 // steps between settle-window samples
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	steps      int
	settle     int     // trailing steps averaged into the score
	target     float32 // distance below which a pair counts as overlapping
	seeds      []int64
	baseConfig *config.Config
	logger     *slog.Logger

	energyWeight float64

	mu       sync.Mutex
	lastEval evalResult
}

// evalResult holds the seed-averaged components of one evaluation.
type evalResult struct {
	fitness       float64
	closeFraction float64
	kinetic       float64 // per particle
	failed        int     // seeds that errored
}

// NewFitnessEvaluator creates a new evaluator. Close pairs are measured at
// target, or at the base config's spacing when target is not positive, so
// shrinking the spacing parameter cannot hide overlap.
func NewFitnessEvaluator(params *ParamVector, steps int, target float64, seeds []int64, baseCfg *config.Config, logger *slog.Logger) *FitnessEvaluator {
	settle := steps / 5
	if settle < sampleEvery {
		settle = sampleEvery
	}
	if target <= 0 {
		target = baseCfg.Physics.Spacing
	}
	return &FitnessEvaluator{
		params:       params,
		steps:        steps,
		settle:       settle,
		target:       float32(target),
		seeds:        seeds,
		baseConfig:   baseCfg,
		logger:       logger,
		energyWeight: defaultEnergyWeight,
	}
}

// Last returns the components of the most recent evaluation.
func (fe *FitnessEvaluator) Last() evalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastEval
}

// Evaluate computes fitness for a raw parameter vector (lower = better):
// the settled close-pair fraction plus weighted residual kinetic energy per
// particle, averaged over seeds. A run that cannot be configured or
// allocated scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]evalResult, len(fe.seeds))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, seed := range fe.seeds {
		g.Go(func() error {
			results[i] = fe.runSimulation(x, seed)
			return nil
		})
	}
	_ = g.Wait() // failures are counted per seed

	var agg evalResult
	for _, r := range results {
		if r.failed > 0 {
			agg.failed++
			continue
		}
		agg.closeFraction += r.closeFraction
		agg.kinetic += r.kinetic
	}

	ok := len(results) - agg.failed
	if ok == 0 {
		agg.fitness = math.Inf(1)
	} else {
		agg.closeFraction /= float64(ok)
		agg.kinetic /= float64(ok)
		agg.fitness = agg.closeFraction + fe.energyWeight*agg.kinetic
	}

	fe.mu.Lock()
	fe.lastEval = agg
	fe.mu.Unlock()
	return agg.fitness
}

// runSimulation executes a single headless run and averages the settle
// window samples.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) evalResult {
	cfg := fe.baseConfig.Clone()
	cfg.Particles.Seed = seed
	cfg.GPU.Workers = 1 // seeds already run in parallel
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		fe.logger.Warn("invalid parameters", "error", err)
		return evalResult{failed: 1}
	}

	s, err := sim.New(cfg, sim.WithLogger(fe.logger))
	if err != nil {
		fe.logger.Warn("creating simulation", "error", err)
		return evalResult{failed: 1}
	}
	defer s.Dispose()
	if err := s.Reset(); err != nil {
		fe.logger.Warn("reset failed", "seed", seed, "error", err)
		return evalResult{failed: 1}
	}

	var res evalResult
	samples := 0
	for step := 1; step <= fe.steps; step++ {
		if err := s.Step(); err != nil {
			fe.logger.Warn("step failed", "seed", seed, "step", step, "error", err)
			return evalResult{failed: 1}
		}
		if step <= fe.steps-fe.settle || step%sampleEvery != 0 {
			continue
		}
		st := telemetry.Measure(s.Particles(), nil, s.Bounds(), fe.target)
		res.closeFraction += st.CloseFraction
		res.kinetic += st.Kinetic / float64(st.Particles)
		samples++
	}

	if samples > 0 {
		res.closeFraction /= float64(samples)
		res.kinetic /= float64(samples)
	}
	return res
}
