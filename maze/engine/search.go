package engine

import "context"

// cancelCheckInterval is how many expansions run between context checks
const cancelCheckInterval = 256

// FindPath runs A* from the start node to the end node.
// See FindPathContext.
func (e *PathGenerator) FindPath() (PathResult, error) {
	return e.FindPathContext(context.Background())
}

// FindPathContext runs A* from the start node to the end node.
//
// The returned path is ordered target first; use PathResult.Route for source
// first. An unreachable end is not an error: Found is false and the error is
// nil. ErrNotReady is returned when either endpoint is unset, and
// ErrBudgetExceeded when the expansion budget runs out.
//
// The engine's read lock is held for the whole search, so obstacle and
// endpoint edits wait until it returns.
func (e *PathGenerator) FindPathContext(ctx context.Context) (PathResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.start == nil || e.end == nil {
		return PathResult{}, ErrNotReady
	}
	start, end := *e.start, *e.end

	if start == end {
		return PathResult{Found: true, Path: []Point{start}}, nil
	}

	g := &grid{
		width:     e.config.Width,
		height:    e.config.Height,
		obstacles: e.obstacles,
		start:     start,
		end:       end,
	}
	pool := newNodePool(e.config.Width * e.config.Height)
	pool.push(g.index(start), start, noParent, 0, e.heuristic(start, end))

	budget := e.budget
	if budget <= 0 {
		budget = e.config.Width * e.config.Height
	}

	expanded := 0
	for pool.open.Len() > 0 {
		if expanded%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return PathResult{Expanded: expanded}, err
			}
		}

		currentID := pool.popMin()
		current := pool.nodes[currentID]

		if current.pos == end {
			return PathResult{
				Found:    true,
				Path:     pool.trace(currentID),
				Cost:     current.g,
				Expanded: expanded,
			}, nil
		}

		if expanded >= budget {
			return PathResult{Expanded: expanded}, ErrBudgetExceeded
		}
		expanded++
		pool.close(g.index(current.pos))

		for _, dir := range e.directions {
			if !g.canStep(current.pos, dir) {
				continue
			}
			next := current.pos.Add(dir.Delta)
			cell := g.index(next)
			if pool.isClosed(cell) {
				continue
			}

			tentative := current.g + dir.Cost
			if id, seen := pool.lookup(cell); seen {
				if tentative < pool.nodes[id].g {
					pool.relax(id, currentID, tentative)
				}
				continue
			}
			pool.push(cell, next, currentID, tentative, e.heuristic(next, end))
		}
	}

	return PathResult{Expanded: expanded}, nil
}
