// Package renderer rasterizes particle state into the output image and
// presents it on the host display.
package renderer

import (
	"image"
	"math"
	"unsafe"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/collide/components"
	"github.com/pthm-cable/collide/config"
	"github.com/pthm-cable/collide/systems"
)

// bandsPerWorker controls how finely the splat pass splits the frame.
const bandsPerWorker = 2

// Canvas is the render target: a float frame plus its 8-bit image view.
type Canvas struct {
	width, height int
	frame         []components.RGBA
	img           *image.RGBA
}

// CanvasBytes returns the memory a canvas of the given size needs.
func CanvasBytes(w, h int) int64 {
	return int64(w) * int64(h) * (16 + 4)
}

// NewCanvas allocates a w×h canvas.
func NewCanvas(w, h int) *Canvas {
	return &Canvas{
		width:  w,
		height: h,
		frame:  make([]components.RGBA, w*h),
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

// Size returns the canvas resolution.
func (c *Canvas) Size() (w, h int) {
	return c.width, c.height
}

// Image returns the 8-bit output image. It is rewritten by every render pass.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// At returns the float color of one pixel.
func (c *Canvas) At(x, y int) components.RGBA {
	return c.frame[y*c.width+x]
}

// RenderParams is the uniform set the render kernel reads for one pass.
type RenderParams struct {
	Domain         components.Domain
	Style          config.RenderStyle
	ParticleSize   float32 // Diameter in pixels at Size = 1
	CircleSmooth   float32 // Edge smoothing as a fraction of the radius
	OutlinePercent float32 // Outline width as a fraction of the radius
	OutlineShade   components.RGBA
	Background     components.RGBA
	Trail          float32
}

// NewRenderParams builds render uniforms from a config.
func NewRenderParams(cfg *config.Config) RenderParams {
	v := cfg.Visual
	return RenderParams{
		Domain:         cfg.Derived.Domain,
		Style:          cfg.Derived.Style,
		ParticleSize:   float32(v.ParticleSize),
		CircleSmooth:   float32(v.CircleSmooth),
		OutlinePercent: float32(v.OutlinePercent),
		OutlineShade:   cfg.Derived.OutlineShade,
		Background:     cfg.Derived.Background,
		Trail:          float32(v.Trail),
	}
}

// RenderKernel draws the background/obstacle layer and splats particles.
type RenderKernel struct {
	params    RenderParams
	canvas    *Canvas
	particles []components.Particle
	obstacles *systems.ObstacleLayer
	scaleX    float32
	scaleY    float32

	// bgRow is one row of background color as flat channels for the trail blend.
	bgRow   []float32
	bgColor components.RGBA

	background Kernel
	splat      Kernel
	quantize   Kernel
}

// Kernel aliases the device kernel signature.
type Kernel = systems.Kernel

// NewRenderKernel creates a render kernel.
func NewRenderKernel() *RenderKernel {
	k := &RenderKernel{}
	k.background = k.backgroundRows
	k.splat = k.splatBand
	k.quantize = k.quantizeRows
	return k
}

// Render runs the three passes: background, particle splat, quantize.
// obstacles may be nil; otherwise it must match the canvas resolution.
func (k *RenderKernel) Render(dev *systems.Device, canvas *Canvas, particles []components.Particle, obstacles *systems.ObstacleLayer, params RenderParams) {
	k.params = params
	k.canvas = canvas
	k.particles = particles
	k.obstacles = obstacles
	k.scaleX = float32(canvas.width) / params.Domain.Width
	k.scaleY = float32(canvas.height) / params.Domain.Height
	if params.Trail > 0 {
		k.prepareBackgroundRow(canvas.width, params.Background)
	}

	dev.Dispatch(canvas.height, k.background)

	// Each band walks particles in index order and only writes its own rows,
	// so the last particle covering a pixel wins without write races.
	bands := max(dev.Workers()*bandsPerWorker, 1)
	dev.DispatchChunks(canvas.height, bands, k.splat)

	dev.Dispatch(canvas.height, k.quantize)
}

func (k *RenderKernel) prepareBackgroundRow(w int, bg components.RGBA) {
	if len(k.bgRow) == w*4 && k.bgColor == bg {
		return
	}
	k.bgRow = make([]float32, w*4)
	for x := 0; x < w; x++ {
		k.bgRow[x*4] = bg.R
		k.bgRow[x*4+1] = bg.G
		k.bgRow[x*4+2] = bg.B
		k.bgRow[x*4+3] = bg.A
	}
	k.bgColor = bg
}

func (k *RenderKernel) backgroundRows(y0, y1, _ int) {
	c := k.canvas
	bg := k.params.Background
	keep := k.params.Trail
	obs := k.obstacles
	for y := y0; y < y1; y++ {
		row := c.frame[y*c.width : (y+1)*c.width]
		if keep > 0 {
			// row = keep*row + (1-keep)*bg over the flat channels
			flat := unsafe.Slice((*float32)(unsafe.Pointer(&row[0])), len(row)*4)
			v := blas32.Vector{N: len(flat), Inc: 1, Data: flat}
			blas32.Scal(keep, v)
			blas32.Axpy(1-keep, blas32.Vector{N: len(k.bgRow), Inc: 1, Data: k.bgRow}, v)
		} else {
			for x := range row {
				row[x] = bg
			}
		}
		if obs == nil || obs.Count() == 0 {
			continue
		}
		for x := range row {
			if occ, col := obs.At(x, y); occ {
				row[x] = col
			}
		}
	}
}

func (k *RenderKernel) splatBand(y0, y1, _ int) {
	for i := range k.particles {
		k.splatParticle(&k.particles[i], y0, y1)
	}
}

// splatParticle writes the clipped footprint of one particle inside rows [y0, y1).
func (k *RenderKernel) splatParticle(p *components.Particle, y0, y1 int) {
	prm := &k.params
	c := k.canvas

	r := prm.ParticleSize * p.Size / 2
	if r < 0.5 {
		r = 0.5
	}
	cx := p.Pos.X * k.scaleX
	cy := p.Pos.Y * k.scaleY

	top := max(int(cy-r), y0)
	bottom := min(int(cy+r), y1-1)
	if top > bottom {
		return
	}
	left := max(int(cx-r), 0)
	right := min(int(cx+r), c.width-1)
	if left > right {
		return
	}

	fill := p.Color
	fill.A = 1
	outline := components.RGBA{
		R: fill.R * prm.OutlineShade.R,
		G: fill.G * prm.OutlineShade.G,
		B: fill.B * prm.OutlineShade.B,
		A: 1,
	}
	edge := prm.CircleSmooth * r
	inner := r - max(prm.OutlinePercent*r, 1)

	for y := top; y <= bottom; y++ {
		dy := float32(y) + 0.5 - cy
		row := c.frame[y*c.width : (y+1)*c.width]
		for x := left; x <= right; x++ {
			dx := float32(x) + 0.5 - cx

			var d float32
			if prm.Style == config.StyleSquare {
				d = max(abs32(dx), abs32(dy))
			} else {
				d = sqrt32(dx*dx + dy*dy)
			}

			color, alpha := shade(prm.Style, d, r, inner, edge, fill, outline)
			if alpha <= 0 {
				continue
			}
			if alpha >= 1 {
				row[x] = color
			} else {
				row[x] = row[x].Lerp(color, alpha)
			}
		}
	}
}

// shade returns the color and coverage of a pixel at distance d from the
// particle center for the given style.
func shade(style config.RenderStyle, d, r, inner, edge float32, fill, outline components.RGBA) (components.RGBA, float32) {
	switch style {
	case config.StyleOutline:
		return outline, coverage(d, r, edge) * (1 - coverage(d, inner, edge))
	case config.StyleSolidOutline:
		a := coverage(d, r, edge)
		if a <= 0 {
			return fill, 0
		}
		// Inner disc blends from outline to fill across the smoothing band
		return outline.Lerp(fill, coverage(d, inner, edge)), a
	case config.StyleGlow:
		if d >= r {
			return fill, 0
		}
		f := 1 - d/r
		return fill, f * f
	default:
		return fill, coverage(d, r, edge)
	}
}

// coverage is 1 inside radius r-edge, 0 outside r and linear between.
func coverage(d, r, edge float32) float32 {
	if r <= 0 || d >= r {
		return 0
	}
	if edge <= 0 || d <= r-edge {
		return 1
	}
	return (r - d) / edge
}

func (k *RenderKernel) quantizeRows(y0, y1, _ int) {
	c := k.canvas
	pix := c.img.Pix
	stride := c.img.Stride
	for y := y0; y < y1; y++ {
		row := c.frame[y*c.width : (y+1)*c.width]
		o := y * stride
		for x, col := range row {
			pix[o+x*4] = toByte(col.R)
			pix[o+x*4+1] = toByte(col.G)
			pix[o+x*4+2] = toByte(col.B)
			pix[o+x*4+3] = 255
		}
	}
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
