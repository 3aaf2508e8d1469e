package telemetry

// Collector counts host events between stats records and decides when a
// record is due.
type Collector struct {
	intervalSteps int64
	windowStart   int64

	resets       int
	paramUpdates int
	painted      int
}

// NewCollector creates a collector that flushes every intervalSteps steps.
// An interval below 1 disables flushing.
func NewCollector(intervalSteps int) *Collector {
	return &Collector{intervalSteps: int64(intervalSteps)}
}

// RecordReset records a state reset.
func (c *Collector) RecordReset() {
	c.resets++
}

// RecordParamUpdate records an applied parameter change.
func (c *Collector) RecordParamUpdate() {
	c.paramUpdates++
}

// RecordPaint records obstacle cells newly painted.
func (c *Collector) RecordPaint(cells int) {
	c.painted += cells
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(step int64) bool {
	return c.intervalSteps > 0 && step-c.windowStart >= c.intervalSteps
}

// Flush stamps the window's event counts onto stats and starts a new window.
func (c *Collector) Flush(step int64, stats StepStats) StepStats {
	stats.Step = step
	stats.WindowSteps = step - c.windowStart
	stats.Resets = c.resets
	stats.ParamUpdates = c.paramUpdates
	stats.Painted = c.painted

	c.windowStart = step
	c.resets = 0
	c.paramUpdates = 0
	c.painted = 0
	return stats
}

// Restart moves the window start after the step counter went back to zero.
func (c *Collector) Restart() {
	c.windowStart = 0
}
