package engine

// Direction is a unit step between neighbouring cells
type Direction struct {
	Name  string
	Delta Point
	Cost  int
}

// IsDiagonal reports whether the step changes both coordinates
func (d Direction) IsDiagonal() bool {
	return d.Delta.X != 0 && d.Delta.Y != 0
}

// Neighbour enumeration order is fixed: N, S, E, W, then NE, NW, SE, SW.
// y grows downward, so north is (0,-1). Among equal-cost paths the search
// returns the one this order discovers first.
var (
	straightDirections = []Direction{
		{Name: "N", Delta: Point{X: 0, Y: -1}, Cost: CostStraight},
		{Name: "S", Delta: Point{X: 0, Y: 1}, Cost: CostStraight},
		{Name: "E", Delta: Point{X: 1, Y: 0}, Cost: CostStraight},
		{Name: "W", Delta: Point{X: -1, Y: 0}, Cost: CostStraight},
	}
	diagonalDirections = []Direction{
		{Name: "NE", Delta: Point{X: 1, Y: -1}, Cost: CostDiagonal},
		{Name: "NW", Delta: Point{X: -1, Y: -1}, Cost: CostDiagonal},
		{Name: "SE", Delta: Point{X: 1, Y: 1}, Cost: CostDiagonal},
		{Name: "SW", Delta: Point{X: -1, Y: 1}, Cost: CostDiagonal},
	}
)

// MoveDirections returns the neighbour offsets valid for a movement mode
func MoveDirections(diagonal bool) []Direction {
	dirs := make([]Direction, 0, len(straightDirections)+len(diagonalDirections))
	dirs = append(dirs, straightDirections...)
	if diagonal {
		dirs = append(dirs, diagonalDirections...)
	}
	return dirs
}

// grid is the collision oracle for one search: maze bounds plus the obstacle
// source, with the query endpoints always passable
type grid struct {
	width, height int
	obstacles     ObstacleSource
	start, end    Point
}

func (g *grid) inBounds(p Point) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// isBlocked reports whether p cannot be entered
func (g *grid) isBlocked(p Point) bool {
	if !g.inBounds(p) {
		return true
	}
	if p == g.start || p == g.end {
		return false
	}
	return g.obstacles.Contains(p)
}

// canStep checks the target cell and, for diagonal steps, both orthogonal
// cells adjacent to the step. A diagonal move never squeezes past a corner.
func (g *grid) canStep(from Point, d Direction) bool {
	to := from.Add(d.Delta)
	if g.isBlocked(to) {
		return false
	}
	if d.IsDiagonal() {
		if g.isBlocked(Point{X: to.X, Y: from.Y}) || g.isBlocked(Point{X: from.X, Y: to.Y}) {
			return false
		}
	}
	return true
}

func (g *grid) index(p Point) int {
	return p.Y*g.width + p.X
}
