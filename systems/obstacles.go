package systems

import (
	"github.com/pthm-cable/collide/components"
)

// ObstacleLayer marks painted or static obstacle occupancy at render resolution.
// It persists across steps and is only mutated between steps.
type ObstacleLayer struct {
	width, height int
	domain        components.Domain
	occupied      []uint8
	colors        []components.RGBA
	count         int
}

// ObstacleBytes returns the memory a layer of the given size needs.
func ObstacleBytes(w, h int) int64 {
	return int64(w) * int64(h) * (1 + 16)
}

// NewObstacleLayer creates an empty layer of w×h cells mapped onto domain.
func NewObstacleLayer(w, h int, domain components.Domain) *ObstacleLayer {
	return &ObstacleLayer{
		width:    w,
		height:   h,
		domain:   domain,
		occupied: make([]uint8, w*h),
		colors:   make([]components.RGBA, w*h),
	}
}

// Size returns the layer resolution.
func (o *ObstacleLayer) Size() (w, h int) {
	return o.width, o.height
}

// Count returns the number of occupied cells.
func (o *ObstacleLayer) Count() int {
	return o.count
}

// Clear removes every obstacle.
func (o *ObstacleLayer) Clear() {
	clear(o.occupied)
	o.count = 0
}

// Paint fills a disc centered at a normalized position. The radius is a
// fraction of the layer width. Returns the number of newly occupied cells.
func (o *ObstacleLayer) Paint(center components.Vec2, radius float32, c components.RGBA) int {
	changed := 0
	o.disc(center, radius, func(idx int) {
		if o.occupied[idx] == 0 {
			o.occupied[idx] = 1
			o.count++
			changed++
		}
		o.colors[idx] = c
	})
	return changed
}

// Erase clears a disc centered at a normalized position.
// Returns the number of freed cells.
func (o *ObstacleLayer) Erase(center components.Vec2, radius float32) int {
	changed := 0
	o.disc(center, radius, func(idx int) {
		if o.occupied[idx] != 0 {
			o.occupied[idx] = 0
			o.count--
			changed++
		}
	})
	return changed
}

// disc visits every cell whose center lies inside the disc.
func (o *ObstacleLayer) disc(center components.Vec2, radius float32, visit func(idx int)) {
	cx := center.X * float32(o.width)
	cy := center.Y * float32(o.height)
	r := radius * float32(o.width)
	if r < 0.5 {
		r = 0.5
	}

	x0 := max(int(cx-r), 0)
	x1 := min(int(cx+r), o.width-1)
	y0 := max(int(cy-r), 0)
	y1 := min(int(cy+r), o.height-1)
	rSq := r * r

	for y := y0; y <= y1; y++ {
		dy := float32(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			dx := float32(x) + 0.5 - cx
			if dx*dx+dy*dy <= rSq {
				visit(y*o.width + x)
			}
		}
	}
}

// At returns the occupancy and color of one cell.
func (o *ObstacleLayer) At(x, y int) (bool, components.RGBA) {
	idx := y*o.width + x
	return o.occupied[idx] != 0, o.colors[idx]
}

// Occupied samples the layer at a world position. Positions outside the
// domain are never occupied.
func (o *ObstacleLayer) Occupied(p components.Vec2) bool {
	if o.count == 0 || p.X < 0 || p.Y < 0 {
		return false
	}
	x := int(p.X / o.domain.Width * float32(o.width))
	y := int(p.Y / o.domain.Height * float32(o.height))
	if x >= o.width || y >= o.height {
		return false
	}
	return o.occupied[y*o.width+x] != 0
}

// Resample returns a copy of the layer at a new resolution (nearest neighbor).
func (o *ObstacleLayer) Resample(w, h int) *ObstacleLayer {
	out := NewObstacleLayer(w, h, o.domain)
	if o.count == 0 {
		return out
	}
	for y := 0; y < h; y++ {
		sy := y * o.height / h
		for x := 0; x < w; x++ {
			sx := x * o.width / w
			src := sy*o.width + sx
			if o.occupied[src] != 0 {
				dst := y*w + x
				out.occupied[dst] = 1
				out.colors[dst] = o.colors[src]
				out.count++
			}
		}
	}
	return out
}
