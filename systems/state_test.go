package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/collide/config"
)

func layoutConfig(t *testing.T, layout string, count int) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Particles.Count = count
	cfg.Particles.Layout = layout
	cfg.Output.Width = 64
	cfg.Output.Aspect = 2
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestInitializeLayouts(t *testing.T) {
	for _, layout := range []string{"random", "grid", "noise"} {
		t.Run(layout, func(t *testing.T) {
			cfg := layoutConfig(t, layout, 500)
			buf := NewParticleBuffer(cfg.Particles.Count)
			Initialize(buf, cfg, rand.New(rand.NewSource(1)))

			d := cfg.Derived.Domain
			cur, next := buf.Current(), buf.Next()
			for i, p := range cur {
				if p.Pos.X < 0 || p.Pos.X >= d.Width || p.Pos.Y < 0 || p.Pos.Y >= d.Height {
					t.Fatalf("particle %d at %+v outside %vx%v", i, p.Pos, d.Width, d.Height)
				}
				if p.Vel.X != 0 || p.Vel.Y != 0 {
					t.Fatalf("particle %d has velocity %+v", i, p.Vel)
				}
				if p.Size != 1 {
					t.Fatalf("particle %d size %v, want 1", i, p.Size)
				}
				if p.Color != cfg.Derived.ParticleColor {
					t.Fatalf("particle %d color %+v", i, p.Color)
				}
				if next[i] != p {
					t.Fatalf("roles differ at %d", i)
				}
			}
		})
	}
}

func TestInitializeGridIsDeterministic(t *testing.T) {
	cfg := layoutConfig(t, "grid", 128)
	a := NewParticleBuffer(128)
	b := NewParticleBuffer(128)
	Initialize(a, cfg, rand.New(rand.NewSource(1)))
	Initialize(b, cfg, rand.New(rand.NewSource(2)))

	for i := range a.Current() {
		if a.Current()[i].Pos != b.Current()[i].Pos {
			t.Fatalf("grid position %d depends on the seed", i)
		}
	}
	// 64x32 domain, 128 particles: 16 columns of 4 cells, 8 rows of 4 cells
	if p := a.Current()[0].Pos; p.X != 2 || p.Y != 2 {
		t.Errorf("first lattice point = %+v, want (2,2)", p)
	}
}

func TestInitializeRandomAttributes(t *testing.T) {
	cfg := layoutConfig(t, "random", 256)
	cfg.Particles.RandomSize = true
	cfg.Particles.RandomColor = true
	buf := NewParticleBuffer(256)
	Initialize(buf, cfg, rand.New(rand.NewSource(5)))

	distinct := map[float32]bool{}
	for _, p := range buf.Current() {
		if p.Size < 0.25 || p.Size > 1 {
			t.Fatalf("size %v outside [0.25, 1]", p.Size)
		}
		if p.Color != BaseColor(p.Seed, true, cfg.Derived.ParticleColor) {
			t.Fatalf("color does not follow seed hue")
		}
		distinct[p.Color.R] = true
	}
	if len(distinct) < 10 {
		t.Errorf("only %d distinct red channels with random color", len(distinct))
	}
}

func TestParticleBufferSwap(t *testing.T) {
	buf := NewParticleBuffer(4)
	buf.Next()[0].Seed = 1
	buf.Swap()
	if buf.Current()[0].Seed != 1 {
		t.Error("Swap did not promote the write role")
	}
	if buf.Next()[0].Seed != 0 {
		t.Error("Swap did not demote the read role")
	}
	if got := BufferBytes(4); got != 8*ParticleBytes {
		t.Errorf("BufferBytes(4) = %d", got)
	}
}
