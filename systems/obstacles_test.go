package systems

import (
	"testing"

	"github.com/pthm-cable/collide/components"
)

func TestObstaclePaintErase(t *testing.T) {
	white := components.RGBA{R: 1, G: 1, B: 1, A: 1}
	o := NewObstacleLayer(100, 100, components.Domain{Width: 200, Height: 200})

	painted := o.Paint(components.Vec2{X: 0.5, Y: 0.5}, 0.1, white)
	// Disc of radius 10 cells
	if painted < 280 || painted > 350 {
		t.Errorf("painted %d cells, want about 314", painted)
	}
	if o.Count() != painted {
		t.Errorf("Count = %d, want %d", o.Count(), painted)
	}
	if again := o.Paint(components.Vec2{X: 0.5, Y: 0.5}, 0.1, white); again != 0 {
		t.Errorf("repainting occupied cells returned %d", again)
	}
	if occ, c := o.At(50, 50); !occ || c != white {
		t.Errorf("At(50,50) = %v %+v", occ, c)
	}

	tests := []struct {
		name string
		pos  components.Vec2
		want bool
	}{
		{"center", components.Vec2{X: 100, Y: 100}, true},
		{"outside disc", components.Vec2{X: 20, Y: 20}, false},
		{"negative", components.Vec2{X: -1, Y: 100}, false},
		{"past domain", components.Vec2{X: 250, Y: 100}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.Occupied(tt.pos); got != tt.want {
				t.Errorf("Occupied(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}

	if erased := o.Erase(components.Vec2{X: 0.5, Y: 0.5}, 0.1); erased != painted {
		t.Errorf("erased %d, want %d", erased, painted)
	}
	if o.Count() != 0 {
		t.Errorf("Count = %d after erase", o.Count())
	}
}

func TestObstacleResample(t *testing.T) {
	o := NewObstacleLayer(100, 100, components.Domain{Width: 100, Height: 100})
	o.Paint(components.Vec2{X: 0.25, Y: 0.25}, 0.1, components.RGBA{A: 1})

	half := o.Resample(50, 50)
	if w, h := half.Size(); w != 50 || h != 50 {
		t.Fatalf("Size = %dx%d", w, h)
	}
	if half.Count() < o.Count()/5 || half.Count() > o.Count()/3 {
		t.Errorf("resampled count %d, want about a quarter of %d", half.Count(), o.Count())
	}
	// Same world position stays occupied
	if !half.Occupied(components.Vec2{X: 25, Y: 25}) {
		t.Error("resampled layer lost the painted disc")
	}

	o.Clear()
	if o.Count() != 0 || o.Occupied(components.Vec2{X: 25, Y: 25}) {
		t.Error("Clear left obstacles behind")
	}
}
