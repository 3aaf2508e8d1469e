// Package camera maps between window pixels and the simulation output image.
package camera

// Camera letterboxes the output image into the window and supports zooming
// and panning within it. Image coordinates are normalized to [0,1] on both
// axes with y pointing down.
type Camera struct {
	// View center in normalized image coordinates
	X, Y float32

	// Zoom level (1.0 = whole image fits the viewport)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Output image aspect ratio (width / height)
	Aspect float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the image with the whole image visible.
func New(viewportW, viewportH, aspect float32) *Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return &Camera{
		X:         0.5,
		Y:         0.5,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		Aspect:    aspect,
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
}

// imageSize returns the on-screen size of the full image at the current zoom.
func (c *Camera) imageSize() (w, h float32) {
	if c.ViewportW/c.ViewportH > c.Aspect {
		h = c.ViewportH
		w = h * c.Aspect
	} else {
		w = c.ViewportW
		h = w / c.Aspect
	}
	return w * c.Zoom, h * c.Zoom
}

// NormalizedToScreen converts image coordinates to screen coordinates.
func (c *Camera) NormalizedToScreen(u, v float32) (sx, sy float32) {
	w, h := c.imageSize()
	sx = c.ViewportW/2 + (u-c.X)*w
	sy = c.ViewportH/2 + (v-c.Y)*h
	return sx, sy
}

// ScreenToNormalized converts screen coordinates to image coordinates clamped
// to [0,1]. inside reports whether the point was over the image.
func (c *Camera) ScreenToNormalized(sx, sy float32) (u, v float32, inside bool) {
	w, h := c.imageSize()
	u = c.X + (sx-c.ViewportW/2)/w
	v = c.Y + (sy-c.ViewportH/2)/h
	inside = u >= 0 && u <= 1 && v >= 0 && v <= 1
	return clamp(u, 0, 1), clamp(v, 0, 1), inside
}

// SourceRect returns the visible part of the image in normalized coordinates.
func (c *Camera) SourceRect() (u0, v0, u1, v1 float32) {
	w, h := c.imageSize()
	halfU := c.ViewportW / (2 * w)
	halfV := c.ViewportH / (2 * h)
	u0 = clamp(c.X-halfU, 0, 1)
	u1 = clamp(c.X+halfU, 0, 1)
	v0 = clamp(c.Y-halfV, 0, 1)
	v1 = clamp(c.Y+halfV, 0, 1)
	return
}

// DestRect returns the screen rectangle the visible part of the image covers.
func (c *Camera) DestRect() (x, y, w, h float32) {
	u0, v0, u1, v1 := c.SourceRect()
	x0, y0 := c.NormalizedToScreen(u0, v0)
	x1, y1 := c.NormalizedToScreen(u1, v1)
	return x0, y0, x1 - x0, y1 - y0
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.constrain()
}

// SetAspect updates the image aspect ratio after an output resize.
func (c *Camera) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.Aspect = aspect
	c.constrain()
}

// Pan moves the view by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	w, h := c.imageSize()
	c.X += dx / w
	c.Y += dy / h
	c.constrain()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.constrain()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = 0.5
	c.Y = 0.5
	c.Zoom = 1.0
}

// constrain keeps the view center where the visible area stays on the image.
// An axis that fits entirely is centered.
func (c *Camera) constrain() {
	w, h := c.imageSize()
	c.X = constrainAxis(c.X, c.ViewportW/(2*w))
	c.Y = constrainAxis(c.Y, c.ViewportH/(2*h))
}

func constrainAxis(center, half float32) float32 {
	if half >= 0.5 {
		return 0.5
	}
	return clamp(center, half, 1-half)
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
