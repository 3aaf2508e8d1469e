package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/collide/config"
)

// csvLog appends gocsv records to one file, writing the header on the
// first append only.
type csvLog[T any] struct {
	f      *os.File
	header bool
}

func openCSVLog[T any](path string) (*csvLog[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	return &csvLog[T]{f: f}, nil
}

func (l *csvLog[T]) append(records ...T) error {
	if l.header {
		return gocsv.MarshalWithoutHeaders(records, l.f)
	}
	if err := gocsv.Marshal(records, l.f); err != nil {
		return err
	}
	l.header = true
	return nil
}

func (l *csvLog[T]) close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}

// OutputManager writes a run's artifacts into one directory: telemetry.csv,
// perf.csv and the effective config.yaml. A nil manager discards everything.
type OutputManager struct {
	dir       string
	telemetry *csvLog[StepStats]
	perf      *csvLog[PerfStatsCSV]
}

// NewOutputManager creates dir and opens the CSV logs. An empty dir disables
// output and returns nil.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	tl, err := openCSVLog[StepStats](filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, err
	}
	pl, err := openCSVLog[PerfStatsCSV](filepath.Join(dir, "perf.csv"))
	if err != nil {
		tl.close()
		return nil, err
	}
	return &OutputManager{dir: dir, telemetry: tl, perf: pl}, nil
}

// WriteConfig snapshots cfg as config.yaml.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends a stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats StepStats) error {
	if om == nil {
		return nil
	}
	if err := om.telemetry.append(stats); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf appends one perf.csv row for the step timings at step. frame is
// the host frame timing, zero when headless.
func (om *OutputManager) WritePerf(stepPerf, frame PerfStats, step int64) error {
	if om == nil {
		return nil
	}
	if err := om.perf.append(stepPerf.ToCSV(step, frame)); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory, or "" when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes the CSV logs.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	return errors.Join(om.telemetry.close(), om.perf.close())
}
