// Command analyze runs a corner-to-corner search over every maze configuration
// in a directory and prints dimensions, heuristic, path length, cost and the
// number of expanded nodes. With --compare it repeats the search with each
// heuristic; --density scatters random obstacles first.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/astarmaze/maze/config"
	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
)

// Analysis is the outcome of one corner-to-corner search
type Analysis struct {
	Name      string
	Width     int
	Height    int
	Diagonal  bool
	Heuristic engine.HeuristicKind
	Obstacles int
	Found     bool
	Length    int
	Cost      int
	Expanded  int
	Duration  time.Duration
}

// Options tune an analysis run
type Options struct {
	Compare bool
	Density float64
	Seed    int64
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Search every maze configuration corner to corner and report the results",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing maze configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:  "compare",
				Usage: "Repeat each search with every heuristic",
			},
			&cli.FloatFlag{
				Name:  "density",
				Usage: "Fraction of cells to block at random (0 keeps the maze empty)",
			},
			&cli.IntFlag{
				Name:  "seed",
				Value: 1,
				Usage: "Random seed for --density",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := Options{
				Compare: cmd.Bool("compare"),
				Density: cmd.Float("density"),
				Seed:    int64(cmd.Int("seed")),
			}
			if opts.Density < 0 || opts.Density >= 1 {
				return fmt.Errorf("density must be in [0, 1), got %v", opts.Density)
			}
			return analyzeDir(ctx, out, cmd.String("config-dir"), opts)
		},
	}
}

func analyzeDir(ctx context.Context, out io.Writer, dir string, opts Options) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintf(out, "No configurations found in %s\n", dir)
		return nil
	}

	for _, info := range infos {
		fmt.Fprintf(out, "\n=== Analyzing %s ===\n", info.Filename)

		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Fprintf(out, "Error loading config: %v\n", err)
			continue
		}

		kinds := []engine.HeuristicKind{cfg.Heuristic}
		if opts.Compare {
			kinds = []engine.HeuristicKind{engine.Manhattan, engine.Diagonal, engine.Euclidean}
		}

		var results []Analysis
		for _, kind := range kinds {
			variant := *cfg
			variant.Heuristic = kind
			a, err := analyzeConfig(ctx, variant, opts)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			results = append(results, a)
		}
		printAnalysis(out, results)
	}
	return nil
}

// analyzeConfig searches from the top-left to the bottom-right corner
func analyzeConfig(ctx context.Context, cfg engine.MazeConfig, opts Options) (Analysis, error) {
	gen, err := engine.NewPathGenerator(cfg)
	if err != nil {
		return Analysis{}, err
	}
	resolved := gen.GetConfig()

	a := Analysis{
		Name:      cfg.Name,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Diagonal:  cfg.Diagonal,
		Heuristic: resolved.Heuristic,
	}

	start := engine.Point{X: 0, Y: 0}
	end := engine.Point{X: cfg.Width - 1, Y: cfg.Height - 1}
	if start == end {
		// A single cell is its own path
		a.Found, a.Length = true, 1
		return a, nil
	}

	if opts.Density > 0 {
		obstacles := scatterObstacles(cfg.Width, cfg.Height, opts.Density, opts.Seed, start, end)
		if _, err := gen.AddCollisions(obstacles); err != nil {
			return Analysis{}, err
		}
		a.Obstacles = len(obstacles)
	}

	if err := gen.SetStartNode(start); err != nil {
		return Analysis{}, err
	}
	if err := gen.SetEndNode(end); err != nil {
		return Analysis{}, err
	}

	began := time.Now()
	result, err := gen.FindPathContext(ctx)
	a.Duration = time.Since(began)
	if err != nil && !errors.Is(err, engine.ErrBudgetExceeded) {
		return Analysis{}, err
	}

	a.Found = result.Found
	a.Length = result.Len()
	a.Cost = result.Cost
	a.Expanded = result.Expanded
	return a, nil
}

// scatterObstacles blocks a random fraction of cells, never the corners
func scatterObstacles(width, height int, density float64, seed int64, keep ...engine.Point) []engine.Point {
	rng := rand.New(rand.NewSource(seed))
	reserved := make(map[engine.Point]bool, len(keep))
	for _, p := range keep {
		reserved[p] = true
	}

	var points []engine.Point
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := engine.Point{X: x, Y: y}
			if !reserved[p] && rng.Float64() < density {
				points = append(points, p)
			}
		}
	}
	return points
}

func printAnalysis(out io.Writer, results []Analysis) {
	if len(results) == 0 {
		return
	}

	first := results[0]
	movement := "4-direction"
	if first.Diagonal {
		movement = "8-direction"
	}
	fmt.Fprintf(out, "Name: %s\n", first.Name)
	fmt.Fprintf(out, "Grid Size: %d x %d (%s)\n", first.Width, first.Height, movement)
	if first.Obstacles > 0 {
		fmt.Fprintf(out, "Random Obstacles: %d\n", first.Obstacles)
	}

	best := -1
	for _, a := range results {
		if a.Found && (best < 0 || a.Cost < best) {
			best = a.Cost
		}
	}

	for _, a := range results {
		if !a.Found {
			fmt.Fprintf(out, "⚠️  %-9s no path, %d nodes expanded\n", a.Heuristic, a.Expanded)
			continue
		}
		fmt.Fprintf(out, "✅ %-9s length %d, cost %d, %d nodes expanded (%s)\n",
			a.Heuristic, a.Length, a.Cost, a.Expanded, a.Duration.Round(time.Microsecond))
		if a.Cost > best {
			fmt.Fprintf(out, "   ⚠️  %s overestimates with diagonal moves: cost %d > optimal %d\n", a.Heuristic, a.Cost, best)
		}
	}
}
