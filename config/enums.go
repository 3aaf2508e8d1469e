package config

import "fmt"

// RenderStyle selects how a particle footprint is shaded.
type RenderStyle uint8

const (
	StyleSolid RenderStyle = iota
	StyleOutline
	StyleSolidOutline
	StyleGlow
	StyleSquare
)

var styleNames = map[string]RenderStyle{
	"solid":         StyleSolid,
	"outline":       StyleOutline,
	"solid_outline": StyleSolidOutline,
	"glow":          StyleGlow,
	"square":        StyleSquare,
}

// ParseRenderStyle maps a config name to a RenderStyle.
func ParseRenderStyle(s string) (RenderStyle, error) {
	if st, ok := styleNames[s]; ok {
		return st, nil
	}
	return 0, fmt.Errorf("unknown render style %q", s)
}

func (s RenderStyle) String() string {
	for name, st := range styleNames {
		if st == s {
			return name
		}
	}
	return fmt.Sprintf("RenderStyle(%d)", s)
}

// Layout selects the initial particle placement.
type Layout uint8

const (
	LayoutRandom Layout = iota // Seeded uniform
	LayoutGrid                 // Deterministic lattice
	LayoutNoise                // Seeded simplex density
)

// ParseLayout maps a config name to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "random", "":
		return LayoutRandom, nil
	case "grid":
		return LayoutGrid, nil
	case "noise":
		return LayoutNoise, nil
	}
	return 0, fmt.Errorf("unknown layout %q", s)
}

func (l Layout) String() string {
	switch l {
	case LayoutRandom:
		return "random"
	case LayoutGrid:
		return "grid"
	case LayoutNoise:
		return "noise"
	}
	return fmt.Sprintf("Layout(%d)", l)
}
