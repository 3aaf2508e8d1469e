// Package systems provides the simulation kernels and the structures they share.
package systems

import (
	"iter"

	"github.com/pthm-cable/collide/components"
)

// DefaultCellCapacity is the number of particle indices a cell can hold.
// Extras in a dense cell are dropped from collision consideration for that step.
const DefaultCellCapacity = 128

// SpatialIndex is a uniform grid of bounded cell buckets, rebuilt every step.
type SpatialIndex struct {
	divisions    int
	capacity     int
	cellW, cellH float32
	counts       []int32 // occupancy per cell
	slots        []int32 // divisions² × capacity particle indices
	overflow     int
}

// IndexBytes returns the memory an index with the given shape needs.
func IndexBytes(divisions, capacity int) int64 {
	cells := int64(divisions) * int64(divisions)
	return cells*4 + cells*int64(capacity)*4
}

// NewSpatialIndex creates an index with divisions×divisions cells covering domain.
func NewSpatialIndex(divisions, capacity int, domain components.Domain) *SpatialIndex {
	if divisions < 1 {
		divisions = 1
	}
	if capacity < 1 {
		capacity = DefaultCellCapacity
	}
	cells := divisions * divisions
	return &SpatialIndex{
		divisions: divisions,
		capacity:  capacity,
		cellW:     domain.Width / float32(divisions),
		cellH:     domain.Height / float32(divisions),
		counts:    make([]int32, cells),
		slots:     make([]int32, cells*capacity),
	}
}

// Divisions returns the number of cells per axis.
func (s *SpatialIndex) Divisions() int {
	return s.divisions
}

// Capacity returns the per-cell capacity.
func (s *SpatialIndex) Capacity() int {
	return s.capacity
}

// CellSize returns the world size of one cell.
func (s *SpatialIndex) CellSize() (w, h float32) {
	return s.cellW, s.cellH
}

// Clear empties every cell.
func (s *SpatialIndex) Clear() {
	clear(s.counts)
	s.overflow = 0
}

// Rebuild clears the grid and inserts every particle in index order.
func (s *SpatialIndex) Rebuild(particles []components.Particle) {
	s.Clear()
	for i := range particles {
		cx, cy := s.CellOf(particles[i].Pos)
		s.insert(int32(i), cx, cy)
	}
}

func (s *SpatialIndex) insert(i int32, cx, cy int) {
	cell := cy*s.divisions + cx
	n := s.counts[cell]
	if int(n) >= s.capacity {
		s.overflow++
		return
	}
	s.slots[cell*s.capacity+int(n)] = i
	s.counts[cell] = n + 1
}

// CellOf returns the cell coordinate of a world position.
// Positions outside the domain clamp into the border cells.
func (s *SpatialIndex) CellOf(p components.Vec2) (cx, cy int) {
	cx = int(p.X / s.cellW)
	cy = int(p.Y / s.cellH)

	// Clamp to valid range
	if cx < 0 || p.X < 0 {
		cx = 0
	} else if cx >= s.divisions {
		cx = s.divisions - 1
	}
	if cy < 0 || p.Y < 0 {
		cy = 0
	} else if cy >= s.divisions {
		cy = s.divisions - 1
	}
	return cx, cy
}

// Cell returns the indices stored in one cell. The slice aliases the index.
func (s *SpatialIndex) Cell(cx, cy int) []int32 {
	cell := cy*s.divisions + cx
	start := cell * s.capacity
	return s.slots[start : start+int(s.counts[cell])]
}

// Count returns the occupancy of one cell.
func (s *SpatialIndex) Count(cx, cy int) int {
	return int(s.counts[cy*s.divisions+cx])
}

// Overflow returns how many particles were dropped in the last rebuild.
func (s *SpatialIndex) Overflow() int {
	return s.overflow
}

// MaxOccupancy returns the fullest cell's count.
func (s *SpatialIndex) MaxOccupancy() int {
	var m int32
	for _, n := range s.counts {
		m = max(m, n)
	}
	return int(m)
}

// Neighbors lazily yields every indexed particle in cells within Chebyshev
// distance rng of (cx, cy), clipped to the grid.
func (s *SpatialIndex) Neighbors(cx, cy, rng int) iter.Seq[int32] {
	return func(yield func(int32) bool) {
		x0, x1 := max(cx-rng, 0), min(cx+rng, s.divisions-1)
		y0, y1 := max(cy-rng, 0), min(cy+rng, s.divisions-1)
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				for _, j := range s.Cell(x, y) {
					if !yield(j) {
						return
					}
				}
			}
		}
	}
}
