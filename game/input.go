package game

import (
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collide/components"
	"github.com/pthm-cable/collide/config"
)

// handleInput processes keyboard, mouse and panel input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.apply("play/pause", func(c *config.Config) { c.Run.Playing = !c.Run.Playing })
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.reset()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.report("toggle paint", g.sim.TogglePaint())
	}
	if rl.IsKeyPressed(rl.KeyC) {
		g.report("clear obstacles", g.sim.ClearObstacles())
	}
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		g.adjustRadius(-radiusStep)
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		g.adjustRadius(radiusStep)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		g.showPerf = !g.showPerf
	}

	g.handleCameraInput()
	g.handlePointer()
}

// adjustRadius nudges the pointer radius, stopping at the accepted range
// instead of tripping validation.
func (g *Game) adjustRadius(delta float64) {
	r := g.sim.Config().Interaction.Radius
	switch {
	case r+delta < 0:
		delta = -r
	case r+delta > 1:
		delta = 1 - r
	}
	if delta == 0 {
		return
	}
	g.report("adjust radius", g.sim.AdjustRadius(delta))
}

// apply routes a parameter edit through the simulation.
func (g *Game) apply(what string, fn func(*config.Config)) {
	g.report(what, g.sim.SetParameters(fn))
}

func (g *Game) reset() {
	if err := g.sim.Reset(); err != nil {
		g.logger.Error("reset failed", "error", err)
		return
	}
	g.frame = 0
}

// report logs a rejected host action. Configuration errors leave the
// simulation unchanged and are not fatal.
func (g *Game) report(what string, err error) {
	if err == nil {
		return
	}
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		g.logger.Warn("rejected parameter change", "action", what, "field", cfgErr.Field, "error", err)
		return
	}
	g.logger.Error("host action failed", "action", what, "error", err)
}

// handlePointer maps the mouse into normalized image coordinates. Buttons
// held over the panel or outside the image do not engage the pointer.
func (g *Game) handlePointer() {
	mouse := rl.GetMousePosition()
	u, v, inside := g.camera.ScreenToNormalized(mouse.X, mouse.Y)
	engaged := inside && !g.controls.Contains(mouse.X, mouse.Y)

	p := components.Pointer{
		Pos:       components.Vec2{X: u, Y: v},
		Primary:   engaged && rl.IsMouseButtonDown(rl.MouseButtonLeft),
		Secondary: engaged && rl.IsMouseButtonDown(rl.MouseButtonRight),
	}
	g.report("pointer", g.sim.SetPointer(p))
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.perfPanel.SetPosition(int32(w)-perfWidth-10, 120)

	// The output follows the window shape; the canvas is reallocated at the
	// next step.
	g.report("resize", g.sim.Resize(float64(w)/float64(h)))
}

// handleCameraInput processes zoom and pan. The middle button drags.
func (g *Game) handleCameraInput() {
	wheelMove := rl.GetMouseWheelMove()
	if wheelMove != 0 {
		g.camera.ZoomBy(1 + wheelMove*0.1)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		d := rl.GetMouseDelta()
		g.camera.Pan(-d.X, -d.Y)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
