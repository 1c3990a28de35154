package engine

import (
	"fmt"
	"math"
)

// HeuristicFunc estimates the remaining cost between two cells, in scaled cost units
type HeuristicFunc func(from, to Point) int

// DefaultHeuristic returns the admissible heuristic for a movement mode
func DefaultHeuristic(diagonal bool) HeuristicKind {
	if diagonal {
		return Diagonal
	}
	return Manhattan
}

// ParseHeuristic converts a name into a HeuristicKind
func ParseHeuristic(name string) (HeuristicKind, error) {
	switch HeuristicKind(name) {
	case Manhattan, Diagonal, Euclidean:
		return HeuristicKind(name), nil
	case "octile":
		return Diagonal, nil
	}
	return "", fmt.Errorf("%w: unknown heuristic %q", ErrInvalidConfig, name)
}

// Func returns the estimate function for the kind
func (k HeuristicKind) Func() (HeuristicFunc, error) {
	switch k {
	case Manhattan:
		return ManhattanDistance, nil
	case Diagonal:
		return OctileDistance, nil
	case Euclidean:
		return EuclideanDistance, nil
	}
	return nil, fmt.Errorf("%w: unknown heuristic %q", ErrInvalidConfig, k)
}

// ManhattanDistance is admissible for 4-neighbour movement only
func ManhattanDistance(from, to Point) int {
	dx, dy := deltas(from, to)
	return CostStraight * (dx + dy)
}

// OctileDistance is admissible for 8-neighbour movement
func OctileDistance(from, to Point) int {
	dx, dy := deltas(from, to)
	return CostStraight*max(dx, dy) + (CostDiagonal-CostStraight)*min(dx, dy)
}

// EuclideanDistance measures straight-line distance in diagonal-step units,
// so it never exceeds the integer octile cost
func EuclideanDistance(from, to Point) int {
	dx, dy := deltas(from, to)
	d := math.Sqrt(float64(dx*dx + dy*dy))
	return int(d * CostDiagonal / math.Sqrt2)
}

func deltas(from, to Point) (int, int) {
	return abs(from.X - to.X), abs(from.Y - to.Y)
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
