// Package ui provides a descriptor-driven UI system for the simulation.
// Instead of hard-coding field names and layouts, controls are defined
// through metadata that reads and writes the simulation configuration.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collide/config"
)

// FieldRange defines the value range for slider widgets.
type FieldRange struct {
	Min float32
	Max float32
}

// DefaultRange returns a [0, 1] range.
func DefaultRange() FieldRange {
	return FieldRange{Min: 0, Max: 1}
}

// Clamp restricts v to the range.
func (r FieldRange) Clamp(v float32) float32 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// SliderDescriptor binds a slider to one numeric config field.
type SliderDescriptor struct {
	ID      string     // Config path, e.g. "physics.gravity"
	Label   string     // Display label
	Format  string     // Printf format for the value
	Range   FieldRange // Slider bounds; always inside the validated bounds
	Integer bool       // Round to whole numbers
	Get     func(*config.Config) float64
	Set     func(*config.Config, float64)
}

// ToggleDescriptor binds a checkbox to one boolean config field.
type ToggleDescriptor struct {
	ID    string
	Label string
	Get   func(*config.Config) bool
	Set   func(*config.Config, bool)
}

// SectionDescriptor defines a group of controls with a header.
type SectionDescriptor struct {
	ID      string
	Title   string
	Sliders []SliderDescriptor
	Toggles []ToggleDescriptor
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	BarFillHigh    rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	SliderHeight   int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		BarFillHigh:    rl.Color{R: 200, G: 100, B: 100, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     110,
		BarHeight:      12,
		SliderHeight:   14,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
