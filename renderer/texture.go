package renderer

import (
	"image"
	"image/color"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collide/camera"
)

// TextureRenderer presents the simulation output image on the raylib window.
type TextureRenderer struct {
	tex         rl.Texture2D
	texW, texH  int
	initialized bool
}

// NewTextureRenderer creates a presenter. The texture is created on the
// first Update.
func NewTextureRenderer() *TextureRenderer {
	return &TextureRenderer{}
}

// Init creates the GPU texture (must be called after the raylib window is created).
func (r *TextureRenderer) Init(w, h int) {
	if r.initialized && w == r.texW && h == r.texH {
		return
	}
	if r.initialized {
		rl.UnloadTexture(r.tex)
	}

	r.texW = w
	r.texH = h

	img := rl.GenImageColor(w, h, rl.Black)
	r.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.tex, rl.FilterPoint)
	rl.UnloadImage(img)

	r.initialized = true
}

// Update uploads the output image. The texture is recreated when the
// image resolution changes.
func (r *TextureRenderer) Update(img *image.RGBA) {
	b := img.Bounds()
	r.Init(b.Dx(), b.Dy())

	// image.RGBA stores tightly packed RGBA bytes, the same layout as color.RGBA
	n := b.Dx() * b.Dy()
	if len(img.Pix) < n*4 || img.Stride != b.Dx()*4 {
		return
	}
	pixels := unsafe.Slice((*color.RGBA)(unsafe.Pointer(&img.Pix[0])), n)
	rl.UpdateTexture(r.tex, pixels)
}

// Draw presents the part of the image visible through cam, letterboxed
// into the window.
func (r *TextureRenderer) Draw(cam *camera.Camera) {
	if !r.initialized {
		return
	}
	u0, v0, u1, v1 := cam.SourceRect()
	srcRect := rl.Rectangle{
		X:      u0 * float32(r.texW),
		Y:      v0 * float32(r.texH),
		Width:  (u1 - u0) * float32(r.texW),
		Height: (v1 - v0) * float32(r.texH),
	}
	x, y, w, h := cam.DestRect()
	dstRect := rl.Rectangle{X: x, Y: y, Width: w, Height: h}
	rl.DrawTexturePro(r.tex, srcRect, dstRect, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *TextureRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.tex)
	r.initialized = false
}
