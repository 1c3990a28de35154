package engine

import (
	"fmt"
	"sync"
)

// Engine provides the main interface for maze operations
type Engine interface {
	// Configuration
	Init(config MazeConfig) error
	GetConfig() MazeConfig
	SetDiagonalMovement(enabled bool) error

	// Query endpoints
	SetStartNode(p Point) error
	SetEndNode(p Point) error
	ClearStartNode()
	ClearEndNode()
	GetStartNode() (Point, bool)
	GetEndNode() (Point, bool)
	IsReadyToEvaluate() bool

	// Obstacles
	AddCollision(p Point) (bool, error)
	RemoveCollision(p Point) (bool, error)
	AddCollisions(points []Point) (int, error)
	RemoveCollisions(points []Point) (int, error)
	ReplaceObstacles(points []Point) error
	IsBlocked(p Point) bool
	GetObstacles() []Point

	// Search
	FindPath() (PathResult, error)
	Clear()
}

// Option customises a PathGenerator
type Option func(*PathGenerator)

// WithObstacleStore makes the engine forward collision edits to a shared store
func WithObstacleStore(store ObstacleStore) Option {
	return func(e *PathGenerator) { e.obstacles = store }
}

// WithExpansionBudget caps node expansions per search. Zero or less means
// width*height, which a search can never exceed.
func WithExpansionBudget(n int) Option {
	return func(e *PathGenerator) { e.budget = n }
}

// PathGenerator implements the Engine interface
type PathGenerator struct {
	mu sync.RWMutex

	config     MazeConfig
	autoHeur   bool
	heuristic  HeuristicFunc
	directions []Direction
	budget     int

	obstacles ObstacleStore
	start     *Point
	end       *Point
}

// NewPathGenerator creates an engine for the provided configuration
func NewPathGenerator(config MazeConfig, opts ...Option) (*PathGenerator, error) {
	e := &PathGenerator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.obstacles == nil {
		e.obstacles = NewObstacleSet()
	}
	if err := ValidateMazeConfig(&config); err != nil {
		return nil, err
	}
	if err := e.configure(config); err != nil {
		return nil, err
	}
	return e, nil
}

// Init reconfigures the maze. Endpoints and obstacles are reset, including
// those in a shared obstacle store.
func (e *PathGenerator) Init(config MazeConfig) error {
	if err := ValidateMazeConfig(&config); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.configure(config); err != nil {
		return err
	}
	if e.obstacles == nil {
		e.obstacles = NewObstacleSet()
	}
	e.obstacles.Clear()
	e.start = nil
	e.end = nil
	return nil
}

// configure binds movement directions and heuristic; caller holds the lock
func (e *PathGenerator) configure(config MazeConfig) error {
	e.autoHeur = config.Heuristic == ""
	if e.autoHeur {
		config.Heuristic = DefaultHeuristic(config.Diagonal)
	}
	kind, err := ParseHeuristic(string(config.Heuristic))
	if err != nil {
		return err
	}
	h, err := kind.Func()
	if err != nil {
		return err
	}
	config.Heuristic = kind
	e.config = config
	e.heuristic = h
	e.directions = MoveDirections(config.Diagonal)
	return nil
}

// GetConfig returns the active configuration, with the bound heuristic filled in
func (e *PathGenerator) GetConfig() MazeConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// SetDiagonalMovement switches the movement mode between queries. Obstacles and
// endpoints are kept; a heuristic chosen by default is re-bound to the new mode.
func (e *PathGenerator) SetDiagonalMovement(enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	config := e.config
	config.Diagonal = enabled
	if e.autoHeur {
		config.Heuristic = ""
	}
	return e.configure(config)
}

// SetStartNode stores the search source
func (e *PathGenerator) SetStartNode(p Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkBounds(p); err != nil {
		return err
	}
	e.start = &p
	return nil
}

// SetEndNode stores the search target
func (e *PathGenerator) SetEndNode(p Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkBounds(p); err != nil {
		return err
	}
	e.end = &p
	return nil
}

// ClearStartNode unsets the search source
func (e *PathGenerator) ClearStartNode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.start = nil
}

// ClearEndNode unsets the search target
func (e *PathGenerator) ClearEndNode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.end = nil
}

// GetStartNode returns the search source, if set
func (e *PathGenerator) GetStartNode() (Point, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.start == nil {
		return Point{}, false
	}
	return *e.start, true
}

// GetEndNode returns the search target, if set
func (e *PathGenerator) GetEndNode() (Point, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.end == nil {
		return Point{}, false
	}
	return *e.end, true
}

// IsReadyToEvaluate reports whether both endpoints are set and distinct
func (e *PathGenerator) IsReadyToEvaluate() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.start != nil && e.end != nil && *e.start != *e.end
}

// AddCollision marks p as blocked. Adding an existing obstacle is a no-op;
// the bool reports whether the set changed.
func (e *PathGenerator) AddCollision(p Point) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkBounds(p); err != nil {
		return false, err
	}
	return e.obstacles.Add(p), nil
}

// RemoveCollision unmarks p. Removing an absent obstacle is a no-op.
func (e *PathGenerator) RemoveCollision(p Point) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkBounds(p); err != nil {
		return false, err
	}
	return e.obstacles.Remove(p), nil
}

// AddCollisions marks every point as blocked and returns how many were new.
// Nothing changes if any point is out of bounds.
func (e *PathGenerator) AddCollisions(points []Point) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkAll(points); err != nil {
		return 0, err
	}
	changed := 0
	for _, p := range points {
		if e.obstacles.Add(p) {
			changed++
		}
	}
	return changed, nil
}

// RemoveCollisions unmarks every point and returns how many were removed.
// Nothing changes if any point is out of bounds.
func (e *PathGenerator) RemoveCollisions(points []Point) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkAll(points); err != nil {
		return 0, err
	}
	changed := 0
	for _, p := range points {
		if e.obstacles.Remove(p) {
			changed++
		}
	}
	return changed, nil
}

// ReplaceObstacles swaps the whole obstacle set. Nothing changes if any point
// is out of bounds.
func (e *PathGenerator) ReplaceObstacles(points []Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkAll(points); err != nil {
		return err
	}
	e.obstacles.Clear()
	for _, p := range points {
		e.obstacles.Add(p)
	}
	return nil
}

// IsBlocked reports whether p is outside the maze or holds an obstacle
func (e *PathGenerator) IsBlocked(p Point) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.inBounds(p) {
		return true
	}
	return e.obstacles.Contains(p)
}

// GetObstacles returns the obstacles in insertion order
func (e *PathGenerator) GetObstacles() []Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.obstacles.Points()
}

// Clear unsets both endpoints and removes all obstacles. Configuration is kept.
func (e *PathGenerator) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.start = nil
	e.end = nil
	e.obstacles.Clear()
}

func (e *PathGenerator) inBounds(p Point) bool {
	return p.X >= 0 && p.X < e.config.Width && p.Y >= 0 && p.Y < e.config.Height
}

func (e *PathGenerator) checkBounds(p Point) error {
	if !e.inBounds(p) {
		return fmt.Errorf("%w: %v not in %dx%d", ErrOutOfBounds, p, e.config.Width, e.config.Height)
	}
	return nil
}

func (e *PathGenerator) checkAll(points []Point) error {
	for _, p := range points {
		if err := e.checkBounds(p); err != nil {
			return err
		}
	}
	return nil
}
