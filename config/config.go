// Package config provides configuration loading, validation and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/collide/components"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Particle count bounds.
const (
	MinParticles = 64
	MaxParticles = 1_000_000
)

// Config holds all simulation configuration parameters.
type Config struct {
	Particles   ParticlesConfig   `yaml:"particles"`
	Run         RunConfig         `yaml:"run"`
	Spatial     SpatialConfig     `yaml:"spatial"`
	Physics     PhysicsConfig     `yaml:"physics"`
	Visual      VisualConfig      `yaml:"visual"`
	Interaction InteractionConfig `yaml:"interaction"`
	Obstacles   ObstaclesConfig   `yaml:"obstacles"`
	Output      OutputConfig      `yaml:"output"`
	GPU         GPUConfig         `yaml:"gpu"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ParticlesConfig holds population parameters. Changes apply at the next reset.
type ParticlesConfig struct {
	Count       int    `yaml:"count"`
	Layout      string `yaml:"layout"`
	Seed        int64  `yaml:"seed"`
	RandomSize  bool   `yaml:"random_size"`
	RandomColor bool   `yaml:"random_color"`
}

// RunConfig controls how host ticks map to simulation steps.
type RunConfig struct {
	StepsPerTick int  `yaml:"steps_per_tick"` // Steps run on each eligible tick
	StepInterval int  `yaml:"step_interval"`  // Only every Nth tick is eligible
	Dynamic      bool `yaml:"dynamic"`        // Resample pointer input every step
	Playing      bool `yaml:"playing"`
}

// SpatialConfig holds uniform grid parameters.
type SpatialConfig struct {
	Enabled        bool `yaml:"enabled"`
	Divisions      int  `yaml:"divisions"`       // Cells per axis
	Range          int  `yaml:"range"`           // Neighbor search range in cells (Chebyshev)
	CellCapacity   int  `yaml:"cell_capacity"`   // Max indices per cell; extras are dropped
	FallbackWindow int  `yaml:"fallback_window"` // Index window when disabled (0 = all)
}

// PhysicsConfig holds integration and collision parameters.
type PhysicsConfig struct {
	Gravity         float64 `yaml:"gravity"`
	GravityScale    float64 `yaml:"gravity_scale"`
	Friction        float64 `yaml:"friction"`
	BounceWall      float64 `yaml:"bounce_wall"`
	BounceObstacles float64 `yaml:"bounce_obstacles"`
	BounceParticle  float64 `yaml:"bounce_particle"`
	Spacing         float64 `yaml:"spacing"`  // Minimum separation in world units
	DirMult         float64 `yaml:"dir_mult"` // Push-apart strength along the contact normal
	MassMatters     float64 `yaml:"mass_matters"`
	WallPortion     float64 `yaml:"wall_portion"` // Fraction of the domain enclosed by walls
}

// VisualConfig holds render parameters.
type VisualConfig struct {
	ParticleSize   int        `yaml:"particle_size"`
	Style          string     `yaml:"style"`
	Color          string     `yaml:"color"`
	Background     string     `yaml:"background"`
	ColorDecay     float64    `yaml:"color_decay"`
	DecaySpeed     float64    `yaml:"decay_speed"` // Speed at which a particle shows full color
	CircleSmooth   float64    `yaml:"circle_smooth"`
	OutlinePercent float64    `yaml:"outline_percent"`
	OutlineShade   [3]float64 `yaml:"outline_shade"`
	Trail          float64    `yaml:"trail"` // Previous frame retention, 0 = clear
}

// InteractionConfig holds pointer interaction parameters.
type InteractionConfig struct {
	Radius           float64 `yaml:"radius"`
	StrengthX        float64 `yaml:"strength_x"` // Primary button (attract)
	StrengthY        float64 `yaml:"strength_y"` // Secondary button (repel)
	RadiusMultiplier float64 `yaml:"radius_multiplier"`
	PaintObstacles   bool    `yaml:"paint_obstacles"`
	ForceScale       float64 `yaml:"force_scale"`
}

// ObstaclesConfig holds obstacle layer parameters.
type ObstaclesConfig struct {
	Collide bool   `yaml:"collide"`
	Color   string `yaml:"color"`
}

// OutputConfig holds render target and domain dimensions.
type OutputConfig struct {
	Width        int     `yaml:"width"`
	Aspect       float64 `yaml:"aspect"`
	DomainWidth  float64 `yaml:"domain_width"`
	DomainHeight float64 `yaml:"domain_height"`
}

// GPUConfig holds device limits and dispatch settings.
type GPUConfig struct {
	MaxBufferBytes    int64 `yaml:"max_buffer_bytes"`
	MaxTextureSize    int   `yaml:"max_texture_size"`
	Workers           int   `yaml:"workers"`
	ParallelThreshold int   `yaml:"parallel_threshold"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsInterval int `yaml:"stats_interval"`
	PerfWindow    int `yaml:"perf_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Height        int // Output.Width / Output.Aspect
	Domain        components.Domain
	Style         RenderStyle
	Layout        Layout
	ParticleColor components.RGBA
	Background    components.RGBA
	ObstacleColor components.RGBA
	OutlineShade  components.RGBA
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Merge returns a copy of c with the YAML patch applied on top.
// Only fields present in the patch change. The result is validated.
func (c *Config) Merge(patch []byte) (*Config, error) {
	cp := c.Clone()
	if err := yaml.Unmarshal(patch, cp); err != nil {
		return nil, fmt.Errorf("parsing config patch: %w", err)
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return cp, nil
}

// Validate checks every bounded option and recomputes derived values.
// It never clamps: the first violation is returned as a *ConfigurationError.
func (c *Config) Validate() error {
	for _, r := range c.ranges() {
		if math.IsNaN(r.value) || r.value < r.min || r.value > r.max {
			return &ConfigurationError{Field: r.field, Value: r.value, Min: r.min, Max: r.max}
		}
	}
	if c.Output.Aspect <= 0 {
		return &ConfigurationError{Field: "output.aspect", Value: c.Output.Aspect, Reason: "must be positive"}
	}
	if c.Physics.WallPortion <= 0 {
		return &ConfigurationError{Field: "physics.wall_portion", Value: c.Physics.WallPortion, Reason: "must be positive"}
	}
	return c.computeDerived()
}

type rangeCheck struct {
	field    string
	value    float64
	min, max float64
}

func (c *Config) ranges() []rangeCheck {
	shade := c.Visual.OutlineShade
	return []rangeCheck{
		{"particles.count", float64(c.Particles.Count), MinParticles, MaxParticles},
		{"run.steps_per_tick", float64(c.Run.StepsPerTick), 0, 50},
		{"run.step_interval", float64(c.Run.StepInterval), 1, 50},
		{"spatial.divisions", float64(c.Spatial.Divisions), 1, 30},
		{"spatial.range", float64(c.Spatial.Range), 1, 30},
		{"spatial.cell_capacity", float64(c.Spatial.CellCapacity), 1, 4096},
		{"spatial.fallback_window", float64(c.Spatial.FallbackWindow), 0, MaxParticles},
		{"physics.gravity", c.Physics.Gravity, 0, 0.3},
		{"physics.gravity_scale", c.Physics.GravityScale, 0, 1000},
		{"physics.friction", c.Physics.Friction, 0, 0.3},
		{"physics.bounce_wall", c.Physics.BounceWall, 0, 5},
		{"physics.bounce_obstacles", c.Physics.BounceObstacles, 0, 5},
		{"physics.bounce_particle", c.Physics.BounceParticle, 0, 5},
		{"physics.spacing", c.Physics.Spacing, 0, 5},
		{"physics.dir_mult", c.Physics.DirMult, 0, 5},
		{"physics.mass_matters", c.Physics.MassMatters, 0, 1},
		{"physics.wall_portion", c.Physics.WallPortion, 0, 1},
		{"visual.particle_size", float64(c.Visual.ParticleSize), 1, 20},
		{"visual.color_decay", c.Visual.ColorDecay, 0, 1},
		{"visual.decay_speed", c.Visual.DecaySpeed, 0.001, 1000},
		{"visual.circle_smooth", c.Visual.CircleSmooth, 0, 1},
		{"visual.outline_percent", c.Visual.OutlinePercent, 0, 1},
		{"visual.outline_shade[0]", shade[0], 0, 1},
		{"visual.outline_shade[1]", shade[1], 0, 1},
		{"visual.outline_shade[2]", shade[2], 0, 1},
		{"visual.trail", c.Visual.Trail, 0, 1},
		{"interaction.radius", c.Interaction.Radius, 0, 1},
		{"interaction.strength_x", c.Interaction.StrengthX, 0, 5},
		{"interaction.strength_y", c.Interaction.StrengthY, 0, 5},
		{"interaction.radius_multiplier", c.Interaction.RadiusMultiplier, 0, 5},
		{"interaction.force_scale", c.Interaction.ForceScale, 0, 100},
		{"output.width", float64(c.Output.Width), 16, 16384},
		{"output.domain_width", c.Output.DomainWidth, 0, 1e6},
		{"output.domain_height", c.Output.DomainHeight, 0, 1e6},
		{"gpu.max_buffer_bytes", float64(c.GPU.MaxBufferBytes), 0, math.MaxInt64},
		{"gpu.max_texture_size", float64(c.GPU.MaxTextureSize), 1, 65536},
		{"gpu.workers", float64(c.GPU.Workers), 0, 1024},
		{"gpu.parallel_threshold", float64(c.GPU.ParallelThreshold), 1, MaxParticles},
		{"telemetry.stats_interval", float64(c.Telemetry.StatsInterval), 0, math.MaxInt32},
		{"telemetry.perf_window", float64(c.Telemetry.PerfWindow), 0, 100000},
	}
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	d := &c.Derived

	d.Height = int(math.Round(float64(c.Output.Width) / c.Output.Aspect))
	if d.Height < 1 {
		d.Height = 1
	}

	// Domain defaults to the output resolution in pixels
	dw, dh := c.Output.DomainWidth, c.Output.DomainHeight
	if dw == 0 {
		dw = float64(c.Output.Width)
	}
	if dh == 0 {
		dh = float64(d.Height)
	}
	d.Domain = components.Domain{Width: float32(dw), Height: float32(dh)}

	style, err := ParseRenderStyle(c.Visual.Style)
	if err != nil {
		return &ConfigurationError{Field: "visual.style", Value: c.Visual.Style, Reason: err.Error()}
	}
	d.Style = style

	layout, err := ParseLayout(c.Particles.Layout)
	if err != nil {
		return &ConfigurationError{Field: "particles.layout", Value: c.Particles.Layout, Reason: err.Error()}
	}
	d.Layout = layout

	colors := []struct {
		field string
		hex   string
		dst   *components.RGBA
	}{
		{"visual.color", c.Visual.Color, &d.ParticleColor},
		{"visual.background", c.Visual.Background, &d.Background},
		{"obstacles.color", c.Obstacles.Color, &d.ObstacleColor},
	}
	for _, col := range colors {
		parsed, err := colorful.Hex(col.hex)
		if err != nil {
			return &ConfigurationError{Field: col.field, Value: col.hex, Reason: "not a #rrggbb color"}
		}
		*col.dst = FromColorful(parsed)
	}

	shade := c.Visual.OutlineShade
	d.OutlineShade = components.RGBA{R: float32(shade[0]), G: float32(shade[1]), B: float32(shade[2]), A: 1}
	return nil
}

// FromColorful converts a go-colorful color to an opaque components.RGBA.
func FromColorful(c colorful.Color) components.RGBA {
	c = c.Clamped()
	return components.RGBA{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: 1}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
