// Frame dump tool - runs the simulation headless and writes the output image
// to a PNG file for inspection.
//
// Usage: go run ./cmd/framedump -config my.yaml -steps 500 -out frame.png
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/collide/config"
	"github.com/pthm-cable/collide/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outPath := flag.String("out", "frame.png", "Output PNG path")
	steps := flag.Int("steps", 300, "Steps to run before capturing")
	every := flag.Int("every", 0, "Also capture every N steps as <out>-<step>.png (0 = final only)")
	flag.Parse()

	rl.SetTraceLogLevel(rl.LogWarning)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	s, err := sim.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	if err := s.Reset(); err != nil {
		fmt.Fprintf(os.Stderr, "Reset failed: %v\n", err)
		os.Exit(1)
	}
	defer s.Dispose()

	for i := 1; i <= *steps; i++ {
		if err := s.Step(); err != nil {
			fmt.Fprintf(os.Stderr, "Step %d failed: %v\n", i, err)
			os.Exit(1)
		}
		if *every > 0 && i%*every == 0 && i != *steps {
			export(s, fmt.Sprintf("%s-%06d.png", strings.TrimSuffix(*outPath, filepath.Ext(*outPath)), i))
		}
	}

	export(s, *outPath)
}

// export writes the current output image to path.
func export(s *sim.Simulation, path string) {
	img := rl.NewImageFromImage(s.Image())
	defer rl.UnloadImage(img)

	if !rl.ExportImage(*img, path) {
		fmt.Fprintf(os.Stderr, "Failed to export image: %s\n", path)
		os.Exit(1)
	}
	b := s.Image().Bounds()
	fmt.Printf("Exported step %d (%dx%d) to %s\n", s.StepCount(), b.Dx(), b.Dy(), path)
}
