// Package components defines the plain data records shared by the simulation kernels.
package components

import "math"

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X, Y float32
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * s.
func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float32 { return v.X*o.X + v.Y*o.Y }

// LenSq returns the squared length.
func (v Vec2) LenSq() float32 { return v.X*v.X + v.Y*v.Y }

// Len returns the length.
func (v Vec2) Len() float32 { return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y))) }

// RGBA is a linear float color. Channels are nominally in [0,1].
type RGBA struct {
	R, G, B, A float32
}

// Lerp blends c toward o by t.
func (c RGBA) Lerp(o RGBA, t float32) RGBA {
	return RGBA{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// Scale multiplies the color channels (not alpha) by s.
func (c RGBA) Scale(s float32) RGBA {
	return RGBA{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A}
}

// Particle is one fixed-size simulation record.
// Identity is the index into the particle buffer.
type Particle struct {
	Pos   Vec2
	Vel   Vec2
	Color RGBA
	Size  float32 // Scale factor in (0,1] applied to the configured particle size
	Seed  float32 // Per-particle uniform value in [0,1) drawn at reset
}

// Domain is the simulation area, anchored at the origin.
type Domain struct {
	Width, Height float32
}

// Bounds is an axis-aligned rectangle.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float32
}

// Bounds returns the domain scaled around its center by portion.
// A portion of 1 is the full domain.
func (d Domain) Bounds(portion float32) Bounds {
	if portion <= 0 || portion > 1 {
		portion = 1
	}
	padX := d.Width * (1 - portion) / 2
	padY := d.Height * (1 - portion) / 2
	return Bounds{MinX: padX, MinY: padY, MaxX: d.Width - padX, MaxY: d.Height - padY}
}

// Contains reports whether p lies inside b (edges inclusive).
func (b Bounds) Contains(p Vec2) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Clamp returns p clamped into b.
func (b Bounds) Clamp(p Vec2) Vec2 {
	if p.X < b.MinX {
		p.X = b.MinX
	} else if p.X > b.MaxX {
		p.X = b.MaxX
	}
	if p.Y < b.MinY {
		p.Y = b.MinY
	} else if p.Y > b.MaxY {
		p.Y = b.MaxY
	}
	return p
}

// Pointer is host pointer state for one tick.
// Pos is normalized to [0,1] on both axes with y pointing down.
type Pointer struct {
	Pos       Vec2
	Primary   bool
	Secondary bool
}

// Engaged reports whether any button is held.
func (p Pointer) Engaged() bool {
	return p.Primary || p.Secondary
}
