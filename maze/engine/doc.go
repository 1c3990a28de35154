// Package engine provides the grid path search at the core of astarmaze.
//
// The engine package implements:
//   - A* search over a fixed-size 2D maze
//   - 4- or 8-neighbour movement with no diagonal corner cutting
//   - Manhattan, octile and Euclidean heuristics
//   - An obstacle store that can be owned by the engine or shared
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the mutation and search contract, implemented
// by PathGenerator. MazeConfig fixes the maze dimensions, movement mode and
// heuristic; start, end and obstacles are edited between searches.
//
// Usage:
//
//	gen, err := engine.NewPathGenerator(engine.MazeConfig{
//		Name:   "demo",
//		Width:  5,
//		Height: 5,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gen.SetStartNode(engine.Point{X: 0, Y: 0})
//	gen.SetEndNode(engine.Point{X: 4, Y: 4})
//	gen.AddCollision(engine.Point{X: 2, Y: 2})
//
//	result, err := gen.FindPath()
//	if err == nil && result.Found {
//		route := result.Route() // source first
//	}
//
// Costs:
//
// Straight steps cost 10 and diagonal steps 14, so costs stay integral and
// equal-cost ties are reproducible. Paths are returned target first. The open
// set breaks f ties on the lower heuristic estimate, then on insertion order.
package engine
