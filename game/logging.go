package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// logPerfStats logs the host frame section timings.
func (g *Game) logPerfStats() {
	if g.framePerf == nil {
		return
	}
	g.framePerf.Stats().LogStats("frame", "step", g.sim.StepCount(), "raylib_fps", rl.GetFPS())
}
