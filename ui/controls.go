package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collide/config"
)

// PanelAction reports what the user did on the controls panel this frame.
type PanelAction struct {
	// Edit applies every changed control to a config copy; nil when nothing
	// changed.
	Edit           func(*config.Config)
	Reset          bool
	ClearObstacles bool
}

// ControlsPanel renders the live parameter panel.
type ControlsPanel struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		sections: DefaultSections(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the panel, so pointer
// input there does not reach the simulation.
func (c *ControlsPanel) Contains(x, y float32) bool {
	if !c.visible {
		return false
	}
	return x >= float32(c.x) && x <= float32(c.x+c.width) &&
		y >= float32(c.y) && y <= float32(c.y+c.height())
}

func (c *ControlsPanel) height() int32 {
	t := c.renderer.Theme
	h := t.Padding*2 + t.LineHeight + 4
	for _, sec := range c.sections {
		h += t.LineHeight
		h += int32(len(sec.Sliders)+len(sec.Toggles)) * (t.SliderHeight + 4)
		h += 4
	}
	return h + 2*(t.SliderHeight+8)
}

// Draw renders the panel for cfg and returns the user's changes.
func (c *ControlsPanel) Draw(cfg *config.Config) PanelAction {
	var action PanelAction
	if !c.visible {
		return action
	}

	r := c.renderer
	padding := r.Theme.Padding
	inner := c.width - padding*2

	r.DrawPanel(c.x, c.y, c.width, c.height())

	x := c.x + padding
	y := c.y + padding
	rl.DrawText("Parameters", x, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	var edits []func(*config.Config)
	for _, sec := range c.sections {
		y = r.DrawSectionHeader(x, y, sec.Title)

		for _, sd := range sec.Sliders {
			var v float64
			var changed bool
			y, v, changed = r.DrawSlider(x, y, sd, cfg, inner)
			if changed {
				set := sd.Set
				edits = append(edits, func(c *config.Config) { set(c, v) })
			}
		}
		for _, td := range sec.Toggles {
			var v, changed bool
			y, v, changed = r.DrawToggle(x, y, td, cfg)
			if changed {
				set := td.Set
				edits = append(edits, func(c *config.Config) { set(c, v) })
			}
		}
		y += 4
	}

	// Style cycles through the render styles
	btnW := float32(inner-8) / 2
	btnH := float32(r.Theme.SliderHeight + 4)
	style := cfg.Derived.Style
	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: btnW, Height: btnH}, fmt.Sprintf("Style: %s", style)) {
		next := NextStyle(style)
		edits = append(edits, func(c *config.Config) { c.Visual.Style = next.String() })
	}
	if gui.Button(rl.Rectangle{X: float32(x) + btnW + 8, Y: float32(y), Width: btnW, Height: btnH}, toggleText(cfg.Run.Playing, "Pause", "Play")) {
		playing := !cfg.Run.Playing
		edits = append(edits, func(c *config.Config) { c.Run.Playing = playing })
	}
	y += int32(btnH) + 4

	action.Reset = gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: btnW, Height: btnH}, "Reset")
	action.ClearObstacles = gui.Button(rl.Rectangle{X: float32(x) + btnW + 8, Y: float32(y), Width: btnW, Height: btnH}, "Clear Obstacles")

	if len(edits) > 0 {
		action.Edit = func(c *config.Config) {
			for _, e := range edits {
				e(c)
			}
		}
	}
	return action
}

// NextStyle returns the render style after s, wrapping around.
func NextStyle(s config.RenderStyle) config.RenderStyle {
	if s >= config.StyleSquare {
		return config.StyleSolid
	}
	return s + 1
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// DefaultSections returns the control layout for the live parameters.
// Slider ranges stay inside the validated bounds.
func DefaultSections() []SectionDescriptor {
	return []SectionDescriptor{
		{
			ID:    "physics",
			Title: "Physics",
			Sliders: []SliderDescriptor{
				{ID: "physics.gravity", Label: "Gravity", Format: "%.3f", Range: FieldRange{0, 0.3},
					Get: func(c *config.Config) float64 { return c.Physics.Gravity },
					Set: func(c *config.Config, v float64) { c.Physics.Gravity = v }},
				{ID: "physics.friction", Label: "Friction", Format: "%.3f", Range: FieldRange{0, 0.3},
					Get: func(c *config.Config) float64 { return c.Physics.Friction },
					Set: func(c *config.Config, v float64) { c.Physics.Friction = v }},
				{ID: "physics.bounce_wall", Label: "Wall bounce", Format: "%.2f", Range: FieldRange{0, 2},
					Get: func(c *config.Config) float64 { return c.Physics.BounceWall },
					Set: func(c *config.Config, v float64) { c.Physics.BounceWall = v }},
				{ID: "physics.bounce_particle", Label: "Particle bounce", Format: "%.2f", Range: FieldRange{0, 2},
					Get: func(c *config.Config) float64 { return c.Physics.BounceParticle },
					Set: func(c *config.Config, v float64) { c.Physics.BounceParticle = v }},
				{ID: "physics.bounce_obstacles", Label: "Obstacle bounce", Format: "%.2f", Range: FieldRange{0, 2},
					Get: func(c *config.Config) float64 { return c.Physics.BounceObstacles },
					Set: func(c *config.Config, v float64) { c.Physics.BounceObstacles = v }},
				{ID: "physics.spacing", Label: "Spacing", Format: "%.2f", Range: FieldRange{0, 5},
					Get: func(c *config.Config) float64 { return c.Physics.Spacing },
					Set: func(c *config.Config, v float64) { c.Physics.Spacing = v }},
				{ID: "physics.dir_mult", Label: "Push strength", Format: "%.2f", Range: FieldRange{0, 5},
					Get: func(c *config.Config) float64 { return c.Physics.DirMult },
					Set: func(c *config.Config, v float64) { c.Physics.DirMult = v }},
				{ID: "physics.mass_matters", Label: "Mass matters", Format: "%.2f", Range: DefaultRange(),
					Get: func(c *config.Config) float64 { return c.Physics.MassMatters },
					Set: func(c *config.Config, v float64) { c.Physics.MassMatters = v }},
			},
			Toggles: []ToggleDescriptor{
				{ID: "obstacles.collide", Label: "Collide with obstacles",
					Get: func(c *config.Config) bool { return c.Obstacles.Collide },
					Set: func(c *config.Config, v bool) { c.Obstacles.Collide = v }},
			},
		},
		{
			ID:    "visual",
			Title: "Visual",
			Sliders: []SliderDescriptor{
				{ID: "visual.particle_size", Label: "Size (px)", Format: "%.0f", Range: FieldRange{1, 20}, Integer: true,
					Get: func(c *config.Config) float64 { return float64(c.Visual.ParticleSize) },
					Set: func(c *config.Config, v float64) { c.Visual.ParticleSize = int(v) }},
				{ID: "visual.color_decay", Label: "Color decay", Format: "%.2f", Range: DefaultRange(),
					Get: func(c *config.Config) float64 { return c.Visual.ColorDecay },
					Set: func(c *config.Config, v float64) { c.Visual.ColorDecay = v }},
				{ID: "visual.circle_smooth", Label: "Edge smoothing", Format: "%.2f", Range: DefaultRange(),
					Get: func(c *config.Config) float64 { return c.Visual.CircleSmooth },
					Set: func(c *config.Config, v float64) { c.Visual.CircleSmooth = v }},
				{ID: "visual.outline_percent", Label: "Outline", Format: "%.2f", Range: DefaultRange(),
					Get: func(c *config.Config) float64 { return c.Visual.OutlinePercent },
					Set: func(c *config.Config, v float64) { c.Visual.OutlinePercent = v }},
				{ID: "visual.trail", Label: "Trail", Format: "%.2f", Range: DefaultRange(),
					Get: func(c *config.Config) float64 { return c.Visual.Trail },
					Set: func(c *config.Config, v float64) { c.Visual.Trail = v }},
			},
			Toggles: []ToggleDescriptor{
				{ID: "particles.random_color", Label: "Random color",
					Get: func(c *config.Config) bool { return c.Particles.RandomColor },
					Set: func(c *config.Config, v bool) { c.Particles.RandomColor = v }},
			},
		},
		{
			ID:    "interaction",
			Title: "Pointer",
			Sliders: []SliderDescriptor{
				{ID: "interaction.radius", Label: "Radius", Format: "%.2f", Range: DefaultRange(),
					Get: func(c *config.Config) float64 { return c.Interaction.Radius },
					Set: func(c *config.Config, v float64) { c.Interaction.Radius = v }},
				{ID: "interaction.strength_x", Label: "Attract", Format: "%.2f", Range: FieldRange{0, 5},
					Get: func(c *config.Config) float64 { return c.Interaction.StrengthX },
					Set: func(c *config.Config, v float64) { c.Interaction.StrengthX = v }},
				{ID: "interaction.strength_y", Label: "Repel", Format: "%.2f", Range: FieldRange{0, 5},
					Get: func(c *config.Config) float64 { return c.Interaction.StrengthY },
					Set: func(c *config.Config, v float64) { c.Interaction.StrengthY = v }},
			},
			Toggles: []ToggleDescriptor{
				{ID: "interaction.paint_obstacles", Label: "Paint obstacles",
					Get: func(c *config.Config) bool { return c.Interaction.PaintObstacles },
					Set: func(c *config.Config, v bool) { c.Interaction.PaintObstacles = v }},
			},
		},
		{
			ID:    "run",
			Title: "Run",
			Sliders: []SliderDescriptor{
				{ID: "run.steps_per_tick", Label: "Steps per frame", Format: "%.0f", Range: FieldRange{0, 10}, Integer: true,
					Get: func(c *config.Config) float64 { return float64(c.Run.StepsPerTick) },
					Set: func(c *config.Config, v float64) { c.Run.StepsPerTick = int(v) }},
			},
			Toggles: []ToggleDescriptor{
				{ID: "run.dynamic", Label: "Dynamic pointer",
					Get: func(c *config.Config) bool { return c.Run.Dynamic },
					Set: func(c *config.Config, v bool) { c.Run.Dynamic = v }},
			},
		},
	}
}
