package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collide/config"
	"github.com/pthm-cable/collide/telemetry"
	"github.com/pthm-cable/collide/ui"
)

const controlsLegend = "Space: play/pause | R: reset | P: paint | [ ]: radius | C: clear | Tab: panel | F3: perf | wheel/middle: zoom/pan"

// Draw presents the output image and the UI, closing the frame opened by
// Update.
func (g *Game) Draw() {
	g.framePerf.StartPhase(telemetry.FrameUpload)
	img := g.sim.Image()
	if img != nil {
		b := img.Bounds()
		g.camera.SetAspect(float32(b.Dx()) / float32(b.Dy()))
		g.texture.Update(img)
	}

	g.framePerf.StartPhase(telemetry.FrameDraw)
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.texture.Draw(g.camera)
	g.drawUI()

	rl.EndDrawing()
	g.framePerf.EndTick()
	g.framePerf.RecordFrame()
}

// drawUI draws the HUD, the parameter panel and the perf panel, and applies
// whatever the user changed on the panel.
func (g *Game) drawUI() {
	cfg := g.sim.Config()

	g.hud.Draw(g.hudData(cfg), int32(g.screenWidth))
	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)

	action := g.controls.Draw(cfg)
	if action.Edit != nil {
		g.apply("panel", action.Edit)
	}
	if action.ClearObstacles {
		g.report("clear obstacles", g.sim.ClearObstacles())
	}
	if action.Reset {
		g.reset()
	}

	if g.showPerf {
		g.perfPanel.Draw(g.sim.Perf().Stats(), g.framePerf.Stats())
	}
}

func (g *Game) hudData(cfg *config.Config) ui.HUDData {
	obstacles := 0
	if o := g.sim.Obstacles(); o != nil {
		obstacles = o.Count()
	}
	w, h := 0, 0
	if img := g.sim.Image(); img != nil {
		w, h = img.Bounds().Dx(), img.Bounds().Dy()
	}
	return ui.HUDData{
		Title:      "Collide",
		Particles:  len(g.sim.Particles()),
		Step:       g.sim.StepCount(),
		FPS:        rl.GetFPS(),
		Playing:    cfg.Run.Playing,
		PaintMode:  cfg.Interaction.PaintObstacles,
		Radius:     cfg.Interaction.Radius,
		Obstacles:  obstacles,
		Resolution: fmt.Sprintf("%dx%d", w, h),
	}
}
