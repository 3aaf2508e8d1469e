package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collide/config"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a labelled bar for a percentage in [0, 100].
func (r *Renderer) DrawBar(x, y int32, label string, pct float64, width int32) int32 {
	value := float32(pct / 100)
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	fill := r.Theme.BarFill
	if pct > 50 {
		fill = r.Theme.BarFillHigh
	}
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*value), r.Theme.BarHeight, fill)

	rl.DrawText(fmt.Sprintf("%.1f%%", pct), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawSlider draws a raygui slider for sd and returns the new Y position and
// the value to commit, with changed false when the user left it alone.
func (r *Renderer) DrawSlider(x, y int32, sd SliderDescriptor, cfg *config.Config, width int32) (int32, float64, bool) {
	current := sd.Get(cfg)
	rl.DrawText(sd.Label, x, y, r.Theme.FontSize, r.Theme.LabelColor)

	sliderX := x + r.Theme.LabelWidth
	sliderW := width - r.Theme.LabelWidth - 50
	bounds := rl.Rectangle{
		X:      float32(sliderX),
		Y:      float32(y),
		Width:  float32(sliderW),
		Height: float32(r.Theme.SliderHeight),
	}
	next := gui.SliderBar(bounds, "", "", float32(current), sd.Range.Min, sd.Range.Max)
	next = sd.Range.Clamp(next)
	if sd.Integer {
		next = float32(math.Round(float64(next)))
	}

	rl.DrawText(fmt.Sprintf(sd.Format, current), sliderX+sliderW+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	y += r.Theme.SliderHeight + 4
	if next == float32(current) {
		return y, current, false
	}
	return y, float64(next), true
}

// DrawToggle draws a raygui checkbox for td and returns the new Y position and
// the value to commit, with changed false when it was not clicked.
func (r *Renderer) DrawToggle(x, y int32, td ToggleDescriptor, cfg *config.Config) (int32, bool, bool) {
	current := td.Get(cfg)
	size := float32(r.Theme.SliderHeight)
	next := gui.CheckBox(rl.Rectangle{X: float32(x), Y: float32(y), Width: size, Height: size}, td.Label, current)
	return y + r.Theme.SliderHeight + 4, next, next != current
}
