// Layout preview tool - interactive view of the initial particle placement
// with sliders for the population parameters.
//
// Usage: go run ./cmd/layoutpreview
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/collide/camera"
	"github.com/pthm-cable/collide/config"
	"github.com/pthm-cable/collide/renderer"
	"github.com/pthm-cable/collide/sim"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

var layouts = []string{"random", "grid", "noise"}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Layout Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := config.Default()
	cfg.Output.Width = previewSize
	cfg.Output.Aspect = 1
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid preview config", "error", err)
		return
	}
	defaults := cfg.Particles

	s, err := sim.New(cfg, sim.WithLogger(logger))
	if err != nil {
		logger.Error("creating simulation", "error", err)
		return
	}
	defer s.Dispose()

	tex := renderer.NewTextureRenderer()
	defer tex.Unload()
	cam := camera.New(previewSize, previewSize, 1)

	animating := false
	needsReset := true

	for !rl.WindowShouldClose() {
		if needsReset {
			if err := s.ResetWith(cfg); err != nil {
				logger.Error("reset failed", "error", err)
			}
			needsReset = false
		}
		if animating && s.State() == sim.Ready {
			if err := s.Step(); err != nil {
				logger.Error("step failed", "error", err)
				animating = false
			}
		}
		if img := s.Image(); img != nil {
			tex.Update(img)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Preview, offset into its frame
		rl.DrawRectangle(10, 10, previewSize, previewSize, rl.Black)
		rl.BeginMode2D(rl.Camera2D{Offset: rl.Vector2{X: 10, Y: 10}, Zoom: 1})
		tex.Draw(cam)
		rl.EndMode2D()
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Step: %d  Particles: %d", s.StepCount(), len(s.Particles())), 15, statsY, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Population Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		p := &cfg.Particles

		rl.DrawText("Count", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newCount := int(gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"64", "20000",
			float32(p.Count), config.MinParticles, 20000,
		))
		rl.DrawText(fmt.Sprintf("%d", p.Count), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newCount != p.Count {
			p.Count = newCount
			needsReset = true
		}
		panelY += 35

		rl.DrawText("Seed", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSeed := int64(gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "99999",
			float32(p.Seed), 0, 99999,
		))
		rl.DrawText(fmt.Sprintf("%d", p.Seed), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newSeed != p.Seed {
			p.Seed = newSeed
			needsReset = true
		}
		panelY += 35

		rl.DrawText("Particle size (px)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSize := int(gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "20",
			float32(cfg.Visual.ParticleSize), 1, 20,
		))
		rl.DrawText(fmt.Sprintf("%d", cfg.Visual.ParticleSize), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newSize != cfg.Visual.ParticleSize {
			cfg.Visual.ParticleSize = newSize
			needsReset = true
		}
		panelY += 40

		if rs := gui.CheckBox(rl.Rectangle{X: panelX, Y: panelY, Width: 20, Height: 20}, "Random size", p.RandomSize); rs != p.RandomSize {
			p.RandomSize = rs
			needsReset = true
		}
		if rc := gui.CheckBox(rl.Rectangle{X: panelX + 160, Y: panelY, Width: 20, Height: 20}, "Random color", p.RandomColor); rc != p.RandomColor {
			p.RandomColor = rc
			needsReset = true
		}
		panelY += 40

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Layout: "+p.Layout) {
			p.Layout = nextLayout(p.Layout)
			needsReset = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			p.Seed = int64(rl.GetRandomValue(0, 99999))
			needsReset = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			cfg.Particles = defaults
			animating = false
			needsReset = true
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		snippet := particlesYAML(cfg)
		for _, line := range strings.Split(strings.TrimRight(snippet, "\n"), "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

// particlesYAML renders the particles section as it would appear in a config file.
func particlesYAML(cfg *config.Config) string {
	data, err := yaml.Marshal(map[string]config.ParticlesConfig{"particles": cfg.Particles})
	if err != nil {
		return err.Error()
	}
	return string(data)
}

func nextLayout(current string) string {
	for i, l := range layouts {
		if l == current {
			return layouts[(i+1)%len(layouts)]
		}
	}
	return layouts[0]
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
