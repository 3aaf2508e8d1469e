package main

import (
	"github.com/pthm-cable/collide/config"
)

// ParamSpec is one searchable config field with its bounds. The optimizer
// works in the unit interval; Min and Max map it back to config values.
type ParamSpec struct {
	Name    string
	Path    string
	Min     float64
	Max     float64
	Default float64
	Apply   func(*config.Config, float64)
}

func (p ParamSpec) normalize(v float64) float64   { return (v - p.Min) / (p.Max - p.Min) }
func (p ParamSpec) denormalize(u float64) float64 { return p.Min + u*(p.Max-p.Min) }
func (p ParamSpec) clamp(v float64) float64       { return min(max(v, p.Min), p.Max) }

// ParamVector is the ordered set of searched parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the collision parameters searched by default.
// Bounds stay inside the validated config ranges.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{Name: "bounce_particle", Path: "physics.bounce_particle", Min: 0, Max: 2, Default: 1.0,
			Apply: func(c *config.Config, v float64) { c.Physics.BounceParticle = v }},
		{Name: "dir_mult", Path: "physics.dir_mult", Min: 0, Max: 3, Default: 1.0,
			Apply: func(c *config.Config, v float64) { c.Physics.DirMult = v }},
		{Name: "friction", Path: "physics.friction", Min: 0, Max: 0.1, Default: 0.01,
			Apply: func(c *config.Config, v float64) { c.Physics.Friction = v }},
		{Name: "spacing", Path: "physics.spacing", Min: 0.5, Max: 5, Default: 1.0,
			Apply: func(c *config.Config, v float64) { c.Physics.Spacing = v }},
	}}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

func (pv *ParamVector) mapEach(in []float64, f func(ParamSpec, float64) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = f(spec, in[i])
	}
	return out
}

// DefaultVector returns the default raw values.
func (pv *ParamVector) DefaultVector() []float64 {
	return pv.mapEach(make([]float64, len(pv.Specs)), func(p ParamSpec, _ float64) float64 { return p.Default })
}

// Normalize maps raw values into [0,1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.mapEach(raw, ParamSpec.normalize)
}

// Denormalize maps unit values back to raw values. Results may lie outside
// the bounds; see Clamp.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.mapEach(unit, ParamSpec.denormalize)
}

// Clamp limits raw values to their bounds.
func (pv *ParamVector) Clamp(raw []float64) []float64 {
	return pv.mapEach(raw, ParamSpec.clamp)
}

// ApplyToConfig writes clamped values into cfg and revalidates it.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, raw []float64) error {
	for i, v := range pv.Clamp(raw) {
		pv.Specs[i].Apply(cfg, v)
	}
	return cfg.Validate()
}
