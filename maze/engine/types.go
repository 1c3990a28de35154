package engine

import (
	"errors"
	"fmt"
)

// HeuristicKind selects the distance estimate used by the search
type HeuristicKind string

const (
	Manhattan HeuristicKind = "manhattan"
	Diagonal  HeuristicKind = "diagonal"
	Euclidean HeuristicKind = "euclidean"

	// Step costs are scaled by 10 so diagonal moves stay integral (14 ≈ 10√2)
	CostStraight = 10
	CostDiagonal = 14

	// Validation constants
	MinGridSize = 1
	MaxGridSize = 1024
)

var (
	ErrInvalidConfig  = errors.New("invalid maze configuration")
	ErrOutOfBounds    = errors.New("point outside maze bounds")
	ErrNotReady       = errors.New("start and end nodes must both be set")
	ErrBudgetExceeded = errors.New("search expansion budget exceeded")
)

// Point is an immutable cell coordinate
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns the point offset by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// MazeConfig represents the maze configuration loaded from JSON or YAML.
// Obstacles are not part of a configuration; they are edited at runtime.
type MazeConfig struct {
	Name        string        `json:"name" yaml:"name" jsonschema:"required,minLength=1"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Width       int           `json:"width" yaml:"width" jsonschema:"required,minimum=1,maximum=1024"`
	Height      int           `json:"height" yaml:"height" jsonschema:"required,minimum=1,maximum=1024"`
	Diagonal    bool          `json:"diagonal" yaml:"diagonal"`
	Heuristic   HeuristicKind `json:"heuristic,omitempty" yaml:"heuristic,omitempty" jsonschema:"enum=manhattan,enum=diagonal,enum=euclidean"`
}

// PathResult is the outcome of a single search.
// Path runs from the target back to the source; it is nil when Found is false.
type PathResult struct {
	Found    bool    `json:"found"`
	Path     []Point `json:"path,omitempty"`
	Cost     int     `json:"cost"`
	Expanded int     `json:"expanded"`
}

// Len returns the number of cells on the path
func (r PathResult) Len() int {
	return len(r.Path)
}

// Route returns the path ordered from source to target
func (r PathResult) Route() []Point {
	return Reverse(r.Path)
}

// Target returns the first path element, if any
func (r PathResult) Target() (Point, bool) {
	if len(r.Path) == 0 {
		return Point{}, false
	}
	return r.Path[0], true
}
