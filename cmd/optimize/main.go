// Command optimize searches collision parameters with CMA-ES for a dense
// particle pile that settles without overlap or residual jitter.
//
// Usage: go run ./cmd/optimize -output runs/opt1 [-config base.yaml]
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/collide/config"
)

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval           int     `csv:"eval"`
	Fitness        float64 `csv:"fitness"`
	CloseFraction  float64 `csv:"close_fraction"`
	Kinetic        float64 `csv:"kinetic_per_particle"`
	FailedSeeds    int     `csv:"failed_seeds"`
	BounceParticle float64 `csv:"bounce_particle"`
	DirMult        float64 `csv:"dir_mult"`
	Friction       float64 `csv:"friction"`
	Spacing        float64 `csv:"spacing"`
	ElapsedSec     float64 `csv:"elapsed_sec"`
}

type options struct {
	configPath string
	steps      int
	seeds      int
	maxEvals   int
	population int
	target     float64
	outputDir  string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&o.steps, "steps", 2000, "Steps per evaluation run")
	flag.IntVar(&o.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&o.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = 4 + 3 ln n)")
	flag.Float64Var(&o.target, "target-spacing", 0, "Overlap distance scored by the fitness (0 = config spacing)")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	if o.outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := run(o); err != nil {
		log.Fatal(err)
	}
}

func run(o options) error {
	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(o.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	baseCfg := config.Cfg()

	// Per-run simulation logs are noise here
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	params := NewParamVector()
	seeds := make([]int64, o.seeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, o.steps, o.target, seeds, baseCfg, logger)

	logFile, err := os.Create(filepath.Join(o.outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	tr := &tracker{params: params, evaluator: evaluator, out: logFile, maxEvals: o.maxEvals, best: math.Inf(1), start: time.Now()}

	popSize := o.population
	if popSize == 0 {
		popSize = 4 + int(3*math.Log(float64(params.Dim())))
	}
	problem := optimize.Problem{Func: tr.evaluate}
	settings := &optimize.Settings{FuncEvaluations: o.maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}

	fmt.Printf("CMA-ES over %d parameters, population=%d, max_evals=%d, seeds=%d, steps=%d\n",
		params.Dim(), popSize, o.maxEvals, o.seeds, o.steps)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	// The best evaluation can come from any generation, not only the last
	best := tr.bestParams
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return fmt.Errorf("no evaluation completed")
	}

	fmt.Printf("\n%d evaluations in %s, best fitness %.4f\n", tr.evals, formatDuration(time.Since(tr.start)), tr.best)
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, best[i])
	}

	bestCfg := baseCfg.Clone()
	if err := params.ApplyToConfig(bestCfg, best); err != nil {
		return fmt.Errorf("best parameters do not validate: %w", err)
	}
	out := filepath.Join(o.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(out); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	fmt.Printf("Best config saved to: %s\n", out)
	return nil
}

// tracker wraps the evaluator as the optimizer objective, keeping the best
// point and appending every evaluation to the CSV log.
type tracker struct {
	params    *ParamVector
	evaluator *FitnessEvaluator
	out       *os.File
	header    bool
	maxEvals  int

	evals      int
	best       float64
	bestParams []float64
	start      time.Time
}

func (t *tracker) evaluate(x []float64) float64 {
	raw := t.params.Denormalize(x)
	fitness := t.evaluator.Evaluate(raw)
	t.evals++

	used := t.params.Clamp(raw)
	if fitness < t.best {
		t.best = fitness
		t.bestParams = used
	}

	last := t.evaluator.Last()
	elapsed := time.Since(t.start)
	rec := EvalRecord{
		Eval:           t.evals,
		Fitness:        fitness,
		CloseFraction:  last.closeFraction,
		Kinetic:        last.kinetic,
		FailedSeeds:    last.failed,
		BounceParticle: used[0],
		DirMult:        used[1],
		Friction:       used[2],
		Spacing:        used[3],
		ElapsedSec:     elapsed.Seconds(),
	}
	if err := t.write(rec); err != nil {
		log.Printf("failed to write log row: %v", err)
	}

	eta := time.Duration(t.maxEvals-t.evals) * (elapsed / time.Duration(t.evals))
	fmt.Printf("Eval %d/%d: fitness=%.4f close=%.4f kinetic=%.5f (best=%.4f) | %s, ETA %s\n",
		t.evals, t.maxEvals, fitness, last.closeFraction, last.kinetic, t.best,
		formatDuration(elapsed), formatDuration(eta))
	return fitness
}

func (t *tracker) write(rec EvalRecord) error {
	rows := []EvalRecord{rec}
	if t.header {
		return gocsv.MarshalWithoutHeaders(rows, t.out)
	}
	if err := gocsv.Marshal(rows, t.out); err != nil {
		return err
	}
	t.header = true
	return nil
}

// formatDuration prints d as 1h02m03s, or 2m03s below an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
