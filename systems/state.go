package systems

import (
	"math"
	"math/rand"
	"unsafe"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/collide/components"
	"github.com/pthm-cable/collide/config"
)

// ParticleBytes is the size of one particle record.
const ParticleBytes = int64(unsafe.Sizeof(components.Particle{}))

// noiseAttempts bounds rejection sampling for the noise layout.
const noiseAttempts = 32

// ParticleBuffer is double-buffered particle storage. Kernels read Current
// and write Next; Swap exchanges the roles after a pass.
type ParticleBuffer struct {
	bufs [2][]components.Particle
	read int
}

// NewParticleBuffer allocates both roles for count particles.
func NewParticleBuffer(count int) *ParticleBuffer {
	return &ParticleBuffer{
		bufs: [2][]components.Particle{
			make([]components.Particle, count),
			make([]components.Particle, count),
		},
	}
}

// BufferBytes returns the memory both roles need for count particles.
func BufferBytes(count int) int64 {
	return 2 * int64(count) * ParticleBytes
}

// Len returns the particle count.
func (b *ParticleBuffer) Len() int {
	return len(b.bufs[0])
}

// Current returns the read role.
func (b *ParticleBuffer) Current() []components.Particle {
	return b.bufs[b.read]
}

// Next returns the write role.
func (b *ParticleBuffer) Next() []components.Particle {
	return b.bufs[1-b.read]
}

// Swap exchanges the read and write roles.
func (b *ParticleBuffer) Swap() {
	b.read = 1 - b.read
}

// Initialize populates both roles from the configured layout with zero velocity.
// All randomness comes from rng so a fixed seed reproduces the same population.
func Initialize(buf *ParticleBuffer, cfg *config.Config, rng *rand.Rand) {
	cur := buf.Current()
	domain := cfg.Derived.Domain

	switch cfg.Derived.Layout {
	case config.LayoutGrid:
		layoutGrid(cur, domain)
	case config.LayoutNoise:
		layoutNoise(cur, domain, cfg.Particles.Seed, rng)
	default:
		for i := range cur {
			cur[i].Pos = components.Vec2{
				X: rng.Float32() * domain.Width,
				Y: rng.Float32() * domain.Height,
			}
		}
	}

	for i := range cur {
		p := &cur[i]
		p.Vel = components.Vec2{}
		p.Seed = rng.Float32()
		p.Size = 1
		if cfg.Particles.RandomSize {
			p.Size = 0.25 + 0.75*rng.Float32()
		}
		p.Color = BaseColor(p.Seed, cfg.Particles.RandomColor, cfg.Derived.ParticleColor)
	}

	copy(buf.Next(), cur)
}

// layoutGrid places particles on a lattice whose aspect matches the domain.
func layoutGrid(ps []components.Particle, domain components.Domain) {
	n := len(ps)
	if n == 0 {
		return
	}
	cols := int(math.Ceil(math.Sqrt(float64(n) * float64(domain.Width) / float64(domain.Height))))
	if cols < 1 {
		cols = 1
	}
	rows := (n + cols - 1) / cols
	dx := domain.Width / float32(cols)
	dy := domain.Height / float32(rows)

	for i := range ps {
		c := i % cols
		r := i / cols
		ps[i].Pos = components.Vec2{X: (float32(c) + 0.5) * dx, Y: (float32(r) + 0.5) * dy}
	}
}

// layoutNoise rejection-samples positions against a simplex density field.
func layoutNoise(ps []components.Particle, domain components.Domain, seed int64, rng *rand.Rand) {
	noise := opensimplex.NewNormalized(seed)
	freq := 4.0 / float64(max(domain.Width, domain.Height))

	for i := range ps {
		var pos components.Vec2
		for attempt := 0; attempt < noiseAttempts; attempt++ {
			pos = components.Vec2{X: rng.Float32() * domain.Width, Y: rng.Float32() * domain.Height}
			density := noise.Eval2(float64(pos.X)*freq, float64(pos.Y)*freq)
			if rng.Float64() < density*density {
				break
			}
		}
		ps[i].Pos = pos
	}
}

// BaseColor returns a particle's undecayed color: the seed hue when random,
// otherwise the fixed color.
func BaseColor(seed float32, random bool, fixed components.RGBA) components.RGBA {
	if !random {
		return fixed
	}
	return config.FromColorful(colorful.Hsv(float64(seed)*360, 0.75, 1))
}
