package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collide/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title      string
	Particles  int
	Step       int64
	FPS        int32
	Playing    bool
	PaintMode  bool
	Radius     float64
	Obstacles  int
	Resolution string
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD at the top right of the screen.
func (h *HUD) Draw(data HUDData, screenWidth int32) {
	x := screenWidth - 300

	rl.DrawText(data.Title, x, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Particles: %d | %s", data.Particles, data.Resolution),
		x, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Step: %d | FPS: %d", data.Step, data.FPS),
		x, 55, 16, rl.LightGray,
	)

	mode := "Force"
	if data.PaintMode {
		mode = fmt.Sprintf("Paint (%d cells)", data.Obstacles)
	}
	rl.DrawText(fmt.Sprintf("Pointer: %s r=%.2f", mode, data.Radius), x, 75, 16, rl.LightGray)

	if !data.Playing {
		rl.DrawText("PAUSED", x, 95, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the step phase breakdown and host frame timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the step phase breakdown followed by the host frame sections.
func (p *PerfPanel) Draw(step, frame telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Padding
	lines := int32(len(step.Phases) + len(frame.Phases) + 4)
	r.DrawPanel(p.x, p.y, p.width, lines*(r.Theme.LineHeight+2)+padding*2)

	x := p.x + padding
	y := p.y + padding
	inner := p.width - padding*2

	rl.DrawText("Performance", x, y, 14, rl.White)
	y += r.Theme.LineHeight + 2

	y = r.DrawLabelValue(x, y, "Step", fmt.Sprintf("%s p95 %s", step.AvgTickDuration.Round(time.Microsecond), step.P95TickDuration.Round(time.Microsecond)))
	for _, phase := range step.Phases {
		y = r.DrawBar(x, y, phase, step.PhasePct[phase], inner)
	}

	y = r.DrawLabelValue(x, y+2, "Frame", fmt.Sprintf("%s (%.0f fps)", frame.AvgTickDuration.Round(time.Microsecond), frame.FPS))
	for _, phase := range frame.Phases {
		y = r.DrawBar(x, y, phase, frame.PhasePct[phase], inner)
	}
}
