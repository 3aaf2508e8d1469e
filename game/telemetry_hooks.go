package game

import "github.com/pthm-cable/collide/telemetry"

// flushTelemetry drains the stats records the simulation measured since the
// last call, logs them if enabled and appends them to the CSV output.
func (g *Game) flushTelemetry() {
	records := g.sim.TakeStats()
	if len(records) == 0 {
		return
	}
	perfStats := g.sim.Perf().Stats()

	for _, stats := range records {
		// Log stats if enabled (console output)
		if g.logStats {
			stats.LogStats()
		}

		// Write to CSV if output manager is enabled
		if g.outputManager != nil {
			if err := g.outputManager.WriteTelemetry(stats); err != nil {
				g.logger.Error("failed to write telemetry", "error", err)
			}
		}
	}

	// Perf is a rolling window; one row per flush is enough
	last := records[len(records)-1]
	if g.logStats {
		perfStats.LogStats("perf", "step", last.Step)
		if !g.headless {
			g.logPerfStats()
		}
	}
	if g.outputManager != nil {
		var frame telemetry.PerfStats
		if g.framePerf != nil {
			frame = g.framePerf.Stats()
		}
		if err := g.outputManager.WritePerf(perfStats, frame, last.Step); err != nil {
			g.logger.Error("failed to write perf", "error", err)
		}
	}
}
