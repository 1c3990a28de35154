package engine

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ObstacleSource answers whether a cell currently holds a wall
type ObstacleSource interface {
	Contains(p Point) bool
}

// ObstacleStore is the mutable backing set the engine forwards collision edits to.
// Inject a shared store with WithObstacleStore when obstacles are owned elsewhere.
type ObstacleStore interface {
	ObstacleSource
	Add(p Point) bool
	Remove(p Point) bool
	Clear()
	Points() []Point
	Len() int
}

// ObstacleSet is the default ObstacleStore. It remembers insertion order so
// listings are deterministic. It is not safe for concurrent use on its own;
// PathGenerator serialises access to it.
type ObstacleSet struct {
	cells *orderedmap.OrderedMap[Point, struct{}]
}

// NewObstacleSet creates an empty obstacle set
func NewObstacleSet() *ObstacleSet {
	return &ObstacleSet{cells: orderedmap.New[Point, struct{}]()}
}

// Contains reports whether p is marked as an obstacle
func (s *ObstacleSet) Contains(p Point) bool {
	_, ok := s.cells.Get(p)
	return ok
}

// Add marks p as an obstacle, returning false if it already was
func (s *ObstacleSet) Add(p Point) bool {
	_, existed := s.cells.Set(p, struct{}{})
	return !existed
}

// Remove unmarks p, returning false if it was not an obstacle
func (s *ObstacleSet) Remove(p Point) bool {
	_, existed := s.cells.Delete(p)
	return existed
}

// Clear removes every obstacle
func (s *ObstacleSet) Clear() {
	s.cells = orderedmap.New[Point, struct{}]()
}

// Points returns the obstacles in insertion order
func (s *ObstacleSet) Points() []Point {
	points := make([]Point, 0, s.cells.Len())
	for pair := s.cells.Oldest(); pair != nil; pair = pair.Next() {
		points = append(points, pair.Key)
	}
	return points
}

// Len returns the number of obstacles
func (s *ObstacleSet) Len() int {
	return s.cells.Len()
}
