package systems

import (
	"github.com/pthm-cable/collide/components"
	"github.com/pthm-cable/collide/config"
)

// colorBlend is how far a particle's color moves toward its target per step.
const colorBlend = 0.25

// PhysicsParams is the uniform set the physics kernel reads for one step.
type PhysicsParams struct {
	Domain components.Domain
	Bounds components.Bounds

	Gravity         float32 // Downward acceleration per step (gravity * gravity_scale)
	Friction        float32
	BounceWall      float32
	BounceObstacles float32
	BounceParticle  float32
	Spacing         float32
	DirMult         float32
	MassMatters     float32

	// Neighbor search
	UseIndex       bool
	Range          int
	FallbackWindow int

	// Pointer
	Pointer           components.Pointer
	PointerRadius     float32 // Normalized, already multiplied
	StrengthPrimary   float32
	StrengthSecondary float32
	ForceScale        float32
	PaintMode         bool

	CollideObstacles bool

	// Color
	ColorDecay  float32
	DecaySpeed  float32
	RandomColor bool
	Color       components.RGBA
}

// NewPhysicsParams builds the per-step uniforms from a config and pointer state.
func NewPhysicsParams(cfg *config.Config, ptr components.Pointer) PhysicsParams {
	ph := cfg.Physics
	in := cfg.Interaction
	return PhysicsParams{
		Domain:            cfg.Derived.Domain,
		Bounds:            cfg.Derived.Domain.Bounds(float32(ph.WallPortion)),
		Gravity:           float32(ph.Gravity * ph.GravityScale),
		Friction:          float32(ph.Friction),
		BounceWall:        float32(ph.BounceWall),
		BounceObstacles:   float32(ph.BounceObstacles),
		BounceParticle:    float32(ph.BounceParticle),
		Spacing:           float32(ph.Spacing),
		DirMult:           float32(ph.DirMult),
		MassMatters:       float32(ph.MassMatters),
		UseIndex:          cfg.Spatial.Enabled,
		Range:             cfg.Spatial.Range,
		FallbackWindow:    cfg.Spatial.FallbackWindow,
		Pointer:           ptr,
		PointerRadius:     float32(in.Radius * in.RadiusMultiplier),
		StrengthPrimary:   float32(in.StrengthX),
		StrengthSecondary: float32(in.StrengthY),
		ForceScale:        float32(in.ForceScale),
		PaintMode:         in.PaintObstacles,
		CollideObstacles:  cfg.Obstacles.Collide,
		ColorDecay:        float32(cfg.Visual.ColorDecay),
		DecaySpeed:        float32(cfg.Visual.DecaySpeed),
		RandomColor:       cfg.Particles.RandomColor,
		Color:             cfg.Derived.ParticleColor,
	}
}

// mass returns the relative mass of a particle of the given size.
// With mass_matters = 0 every particle weighs 1.
func (p *PhysicsParams) mass(size float32) float32 {
	return lerp32(1, size, p.MassMatters)
}

// PhysicsKernel integrates one step for every particle. Each work item reads
// only the current role, the spatial index and the obstacle layer, and writes
// only its own slot in the next role.
type PhysicsKernel struct {
	params    PhysicsParams
	src, dst  []components.Particle
	index     *SpatialIndex
	obstacles *ObstacleLayer
	kernel    Kernel
}

// NewPhysicsKernel creates a physics kernel.
func NewPhysicsKernel() *PhysicsKernel {
	k := &PhysicsKernel{}
	k.kernel = func(start, end, _ int) {
		for i := start; i < end; i++ {
			k.dst[i] = k.Particle(i)
		}
	}
	return k
}

// Bind sets the inputs for the next dispatch. index and obstacles may be nil.
func (k *PhysicsKernel) Bind(params PhysicsParams, buf *ParticleBuffer, index *SpatialIndex, obstacles *ObstacleLayer) {
	k.params = params
	k.src = buf.Current()
	k.dst = buf.Next()
	k.index = index
	k.obstacles = obstacles
}

// Dispatch runs the bound kernel over every particle.
func (k *PhysicsKernel) Dispatch(dev *Device) {
	dev.Dispatch(len(k.src), k.kernel)
}

// Particle computes the next state of particle i. It is a pure function of
// the bound inputs.
func (k *PhysicsKernel) Particle(i int) components.Particle {
	prm := &k.params
	p := k.src[i]
	mi := prm.mass(p.Size)

	// 1. Forces
	vel := p.Vel
	// Weight: with mass weighting, small particles fall slower
	gy := prm.Gravity * mi
	vel.Y += gy
	vel = vel.Scale(1 - prm.Friction)
	if !prm.PaintMode && prm.Pointer.Engaged() {
		vel = vel.Add(k.pointerForce(p.Pos).Scale(1 / mi))
	}

	cand := p.Pos.Add(vel)

	// 2. Particle-particle, against the pre-step snapshot
	if prm.Spacing > 0 {
		corr, dv := k.collide(i, &p, mi)
		cand = cand.Add(corr)
		vel = vel.Add(dv)
	}

	// 3. Walls
	cand, vel = k.walls(cand, vel, gy)

	// 4. Obstacles
	if prm.CollideObstacles && k.obstacles != nil && k.obstacles.Count() > 0 {
		cand, vel = k.obstacle(p.Pos, cand, vel)
	}

	// Pushes and obstacle rejection must not leave the walls
	cand = prm.Bounds.Clamp(cand)

	// 5. Color
	base := BaseColor(p.Seed, prm.RandomColor, prm.Color)
	color := base
	if prm.ColorDecay > 0 {
		energy := clamp01(vel.Len() / prm.DecaySpeed)
		target := base.Scale(1 - prm.ColorDecay*(1-energy))
		color = p.Color.Lerp(target, colorBlend)
	}

	return components.Particle{
		Pos:   cand,
		Vel:   vel,
		Color: color,
		Size:  p.Size,
		Seed:  p.Seed,
	}
}

// pointerForce returns the acceleration toward (primary) or away from
// (secondary) the pointer with linear falloff inside the pointer radius.
// Distance is measured in normalized units with y scaled to the domain aspect.
func (k *PhysicsKernel) pointerForce(pos components.Vec2) components.Vec2 {
	prm := &k.params
	if prm.PointerRadius <= 0 {
		return components.Vec2{}
	}
	d := prm.Domain
	target := components.Vec2{X: prm.Pointer.Pos.X * d.Width, Y: prm.Pointer.Pos.Y * d.Height}
	delta := target.Sub(pos)

	dist := delta.Len() / d.Width
	if dist >= prm.PointerRadius || dist == 0 {
		return components.Vec2{}
	}

	var strength float32
	if prm.Pointer.Primary {
		strength += prm.StrengthPrimary
	}
	if prm.Pointer.Secondary {
		strength -= prm.StrengthSecondary
	}
	falloff := 1 - dist/prm.PointerRadius
	dir := delta.Scale(1 / delta.Len())
	return dir.Scale(strength * falloff * prm.ForceScale)
}

// collide returns the position correction and velocity change for particle i
// from every neighbor closer than the minimum spacing.
func (k *PhysicsKernel) collide(i int, p *components.Particle, mi float32) (corr, dv components.Vec2) {
	prm := &k.params
	spacingSq := prm.Spacing * prm.Spacing

	visit := func(j int) {
		if j == i {
			return
		}
		q := &k.src[j]
		d := p.Pos.Sub(q.Pos)
		distSq := d.LenSq()
		if distSq >= spacingSq {
			return
		}

		// Coincident particles separate along x, in opposite directions by index
		var n components.Vec2
		dist := sqrt32(distSq)
		if dist == 0 {
			n = components.Vec2{X: 1}
			if i > j {
				n.X = -1
			}
		} else {
			n = d.Scale(1 / dist)
		}

		mj := prm.mass(q.Size)
		w := mj / (mi + mj)
		corr = corr.Add(n.Scale((prm.Spacing - dist) * w * prm.DirMult))

		approach := p.Vel.Sub(q.Vel).Dot(n)
		if approach < 0 {
			dv = dv.Add(n.Scale(-(1 + prm.BounceParticle) * w * approach))
		}
	}

	switch {
	case prm.UseIndex && k.index != nil:
		cx, cy := k.index.CellOf(p.Pos)
		for j := range k.index.Neighbors(cx, cy, prm.Range) {
			visit(int(j))
		}
	case prm.FallbackWindow > 0:
		lo := max(i-prm.FallbackWindow, 0)
		hi := min(i+prm.FallbackWindow, len(k.src)-1)
		for j := lo; j <= hi; j++ {
			visit(j)
		}
	default:
		for j := range k.src {
			visit(j)
		}
	}
	return corr, dv
}

// walls clamps the candidate into bounds and reflects the normal velocity at
// its contact speed, scaled by bounce_wall. gy is the gravity acceleration
// applied this step; horizontal walls see none.
func (k *PhysicsKernel) walls(cand, vel components.Vec2, gy float32) (components.Vec2, components.Vec2) {
	b := k.params.Bounds
	bounce := k.params.BounceWall

	if cand.X < b.MinX {
		o := b.MinX - cand.X
		cand.X = b.MinX
		if vel.X < 0 {
			vel.X = bounce * contactSpeed(-vel.X, o, 0)
		}
	} else if cand.X > b.MaxX {
		o := cand.X - b.MaxX
		cand.X = b.MaxX
		if vel.X > 0 {
			vel.X = -bounce * contactSpeed(vel.X, o, 0)
		}
	}

	if cand.Y < b.MinY {
		o := b.MinY - cand.Y
		cand.Y = b.MinY
		if vel.Y < 0 {
			vel.Y = bounce * contactSpeed(-vel.Y, o, -gy)
		}
	} else if cand.Y > b.MaxY {
		o := cand.Y - b.MaxY
		cand.Y = b.MaxY
		if vel.Y > 0 {
			vel.Y = -bounce * contactSpeed(vel.Y, o, gy)
		}
	}
	return cand, vel
}

// obstacle rejects a move into an occupied cell along the penetrating axis.
// Particles that start inside an obstacle move freely until they leave it.
func (k *PhysicsKernel) obstacle(from, cand, vel components.Vec2) (components.Vec2, components.Vec2) {
	obs := k.obstacles
	if !obs.Occupied(cand) || obs.Occupied(from) {
		return cand, vel
	}
	bounce := k.params.BounceObstacles

	onlyX := components.Vec2{X: cand.X, Y: from.Y}
	onlyY := components.Vec2{X: from.X, Y: cand.Y}
	switch {
	case !obs.Occupied(onlyX):
		vel.Y = -vel.Y * bounce
		return onlyX, vel
	case !obs.Occupied(onlyY):
		vel.X = -vel.X * bounce
		return onlyY, vel
	default:
		return from, vel.Scale(-bounce)
	}
}
