package main

import (
	"fmt"
	"math/rand"

	"go.uber.org/multierr"

	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
	"github.com/wricardo/mcp-training/astarmaze/maze/service"
)

// Grid is the server's maze as seen by the checker
type Grid struct {
	Width    int
	Height   int
	Diagonal bool
	blocked  map[engine.Point]bool
}

// NewGrid builds a grid from the dimensions and obstacles of a state
func NewGrid(width, height int, diagonal bool, obstacles []engine.Point) *Grid {
	g := &Grid{
		Width:    width,
		Height:   height,
		Diagonal: diagonal,
		blocked:  make(map[engine.Point]bool, len(obstacles)),
	}
	for _, p := range obstacles {
		g.blocked[p] = true
	}
	return g
}

func (g *Grid) inBounds(p engine.Point) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// free reports whether a cell can be entered
func (g *Grid) free(p engine.Point) bool {
	return g.inBounds(p) && !g.blocked[p]
}

// canStep applies the movement rules: the target must be free and a diagonal
// step needs both orthogonal neighbours free
func (g *Grid) canStep(from, to engine.Point) bool {
	if !g.free(to) {
		return false
	}
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx != 0 && dy != 0 {
		return g.free(engine.Point{X: to.X, Y: from.Y}) && g.free(engine.Point{X: from.X, Y: to.Y})
	}
	return true
}

func (g *Grid) moves() []engine.Point {
	straight := []engine.Point{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
	if !g.Diagonal {
		return straight
	}
	return append(straight, engine.Point{X: 1, Y: -1}, engine.Point{X: 1, Y: 1},
		engine.Point{X: -1, Y: 1}, engine.Point{X: -1, Y: -1})
}

// ShortestCost finds the optimal cost from start to end by relaxing every
// edge until nothing changes. It is slow and has no heuristic, which makes it
// a useful reference for the A* answers.
func (g *Grid) ShortestCost(start, end engine.Point) (int, bool) {
	if start == end {
		return 0, true
	}

	dist := map[engine.Point]int{start: 0}
	moves := g.moves()

	for changed := true; changed; {
		changed = false
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				from := engine.Point{X: x, Y: y}
				d, ok := dist[from]
				if !ok {
					continue
				}
				for _, m := range moves {
					to := from.Add(m)
					if !g.canStep(from, to) {
						continue
					}
					step := engine.CostStraight
					if m.X != 0 && m.Y != 0 {
						step = engine.CostDiagonal
					}
					if old, seen := dist[to]; !seen || d+step < old {
						dist[to] = d + step
						changed = true
					}
				}
			}
		}
	}

	cost, ok := dist[end]
	return cost, ok
}

// Trial is one randomly generated search problem
type Trial struct {
	Start     engine.Point
	End       engine.Point
	Obstacles []engine.Point
}

// NewTrial blocks a random fraction of cells and picks two distinct free
// endpoints. The grid needs at least two cells.
func NewTrial(rng *rand.Rand, width, height int, density float64) Trial {
	cells := width * height
	startIdx := rng.Intn(cells)
	endIdx := rng.Intn(cells - 1)
	if endIdx >= startIdx {
		endIdx++
	}

	t := Trial{
		Start: engine.Point{X: startIdx % width, Y: startIdx / width},
		End:   engine.Point{X: endIdx % width, Y: endIdx / width},
	}
	for i := 0; i < cells; i++ {
		if i == startIdx || i == endIdx {
			continue
		}
		if rng.Float64() < density {
			t.Obstacles = append(t.Obstacles, engine.Point{X: i % width, Y: i / width})
		}
	}
	return t
}

// admissible reports whether the heuristic never overestimates for the movement mode
func admissible(heuristic string, diagonal bool) bool {
	return !(diagonal && heuristic == string(engine.Manhattan))
}

// CheckResult compares an evaluation against the exhaustive search over the
// same maze. Every problem found is returned.
func CheckResult(trial Trial, state *service.MazeState, result *service.EvaluationResult) error {
	if state == nil {
		return fmt.Errorf("evaluation returned no state")
	}

	grid := NewGrid(state.Width, state.Height, state.Diagonal, state.Obstacles)
	optimal, reachable := grid.ShortestCost(trial.Start, trial.End)

	var errs error
	if len(state.Obstacles) != len(trial.Obstacles) {
		errs = multierr.Append(errs, fmt.Errorf("server holds %d obstacles, trial placed %d",
			len(state.Obstacles), len(trial.Obstacles)))
	}
	if result.Found != reachable {
		return multierr.Append(errs, fmt.Errorf("found=%v but exhaustive search says reachable=%v", result.Found, reachable))
	}
	if !result.Found {
		if len(result.Path) != 0 {
			errs = multierr.Append(errs, fmt.Errorf("no-path result carries %d cells", len(result.Path)))
		}
		return errs
	}

	path := result.Path
	if len(path) == 0 {
		return multierr.Append(errs, fmt.Errorf("found result has an empty path"))
	}
	if path[0] != trial.End {
		errs = multierr.Append(errs, fmt.Errorf("path starts at %v, want target %v", path[0], trial.End))
	}
	if path[len(path)-1] != trial.Start {
		errs = multierr.Append(errs, fmt.Errorf("path ends at %v, want source %v", path[len(path)-1], trial.Start))
	}
	if result.Length != len(path) {
		errs = multierr.Append(errs, fmt.Errorf("length %d but path has %d cells", result.Length, len(path)))
	}
	for i := 1; i < len(path); i++ {
		if !grid.canStep(path[i-1], path[i]) || engine.StepCost(path[i-1], path[i], grid.Diagonal) < 0 {
			errs = multierr.Append(errs, fmt.Errorf("illegal step %v -> %v", path[i-1], path[i]))
		}
	}
	if cost := engine.PathCost(path, grid.Diagonal); cost != result.Cost {
		errs = multierr.Append(errs, fmt.Errorf("reported cost %d, path costs %d", result.Cost, cost))
	}

	switch {
	case result.Cost < optimal:
		errs = multierr.Append(errs, fmt.Errorf("cost %d beats the optimum %d", result.Cost, optimal))
	case result.Cost > optimal && admissible(state.Heuristic, state.Diagonal):
		errs = multierr.Append(errs, fmt.Errorf("cost %d, optimum %d with an admissible heuristic", result.Cost, optimal))
	}
	return errs
}
