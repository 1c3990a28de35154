package engine

import "strings"

// Reverse returns a reversed copy of path
func Reverse(path []Point) []Point {
	if path == nil {
		return nil
	}
	out := make([]Point, len(path))
	for i, p := range path {
		out[len(path)-1-i] = p
	}
	return out
}

// StepCost returns the cost of moving between two neighbouring cells, or -1 if
// they are not neighbours under the movement mode
func StepCost(from, to Point, diagonal bool) int {
	dx, dy := deltas(from, to)
	switch {
	case dx+dy == 1:
		return CostStraight
	case dx == 1 && dy == 1 && diagonal:
		return CostDiagonal
	}
	return -1
}

// IsContiguous checks that every consecutive pair of cells is a valid move
func IsContiguous(path []Point, diagonal bool) bool {
	for i := 1; i < len(path); i++ {
		if StepCost(path[i-1], path[i], diagonal) < 0 {
			return false
		}
	}
	return true
}

// PathCost sums step costs along path. It returns -1 if the path is not contiguous.
func PathCost(path []Point, diagonal bool) int {
	total := 0
	for i := 1; i < len(path); i++ {
		c := StepCost(path[i-1], path[i], diagonal)
		if c < 0 {
			return -1
		}
		total += c
	}
	return total
}

// Render draws the maze as text: '#' obstacle, 'S' start, 'E' end, '*' path, '.' free
func Render(config MazeConfig, obstacles []Point, start, end *Point, path []Point) string {
	rows := make([][]byte, config.Height)
	for y := range rows {
		rows[y] = []byte(strings.Repeat(".", config.Width))
	}
	set := func(p Point, c byte) {
		if p.X >= 0 && p.X < config.Width && p.Y >= 0 && p.Y < config.Height {
			rows[p.Y][p.X] = c
		}
	}

	for _, p := range obstacles {
		set(p, '#')
	}
	for _, p := range path {
		set(p, '*')
	}
	if start != nil {
		set(*start, 'S')
	}
	if end != nil {
		set(*end, 'E')
	}

	var b strings.Builder
	for _, row := range rows {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseLayout reads a Render-style text grid back into its parts. Rows may
// differ in length; the widest row sets the width.
func ParseLayout(layout []string) (width, height int, obstacles []Point, start, end *Point) {
	height = len(layout)
	for y, row := range layout {
		width = max(width, len(row))
		for x, c := range row {
			p := Point{X: x, Y: y}
			switch c {
			case '#':
				obstacles = append(obstacles, p)
			case 'S':
				start = &p
			case 'E':
				end = &p
			}
		}
	}
	return width, height, obstacles, start, end
}
