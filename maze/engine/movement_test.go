package engine

import "testing"

func TestMoveDirections(t *testing.T) {
	straight := MoveDirections(false)
	if len(straight) != 4 {
		t.Fatalf("Expected 4 directions, got %d", len(straight))
	}
	diag := MoveDirections(true)
	if len(diag) != 8 {
		t.Fatalf("Expected 8 directions, got %d", len(diag))
	}

	order := []string{"N", "S", "E", "W", "NE", "NW", "SE", "SW"}
	for i, d := range diag {
		if d.Name != order[i] {
			t.Errorf("Direction %d: expected %s, got %s", i, order[i], d.Name)
		}
		wantCost := CostStraight
		if d.IsDiagonal() {
			wantCost = CostDiagonal
		}
		if d.Cost != wantCost {
			t.Errorf("Direction %s: expected cost %d, got %d", d.Name, wantCost, d.Cost)
		}
	}

	if diag[0].Delta != (Point{X: 0, Y: -1}) {
		t.Errorf("North should decrease y, got %v", diag[0].Delta)
	}

	// Mutating the result must not leak into later calls
	straight[0].Cost = 99
	if MoveDirections(false)[0].Cost != CostStraight {
		t.Error("MoveDirections should return a fresh slice")
	}
}

func TestGrid_IsBlocked(t *testing.T) {
	obstacles := NewObstacleSet()
	obstacles.Add(Point{X: 1, Y: 1})
	obstacles.Add(Point{X: 0, Y: 0})
	g := &grid{width: 3, height: 3, obstacles: obstacles, start: Point{X: 0, Y: 0}, end: Point{X: 2, Y: 2}}

	tests := []struct {
		p       Point
		blocked bool
	}{
		{Point{X: 1, Y: 1}, true},
		{Point{X: 0, Y: 0}, false}, // start is always passable
		{Point{X: 2, Y: 2}, false},
		{Point{X: 2, Y: 0}, false},
		{Point{X: -1, Y: 0}, true},
		{Point{X: 3, Y: 1}, true},
	}
	for _, tt := range tests {
		if got := g.isBlocked(tt.p); got != tt.blocked {
			t.Errorf("isBlocked(%v) = %v, expected %v", tt.p, got, tt.blocked)
		}
	}
}

func TestGrid_CanStep(t *testing.T) {
	obstacles := NewObstacleSet()
	obstacles.Add(Point{X: 1, Y: 0})
	g := &grid{width: 3, height: 3, obstacles: obstacles, start: Point{X: 0, Y: 0}, end: Point{X: 2, Y: 2}}

	byName := make(map[string]Direction)
	for _, d := range MoveDirections(true) {
		byName[d.Name] = d
	}

	tests := []struct {
		name string
		from Point
		dir  string
		ok   bool
	}{
		{"into obstacle", Point{X: 0, Y: 0}, "E", false},
		{"off the grid", Point{X: 0, Y: 0}, "N", false},
		{"open straight", Point{X: 0, Y: 0}, "S", true},
		{"diagonal past one blocked side", Point{X: 0, Y: 0}, "SE", false},
		{"diagonal with both sides free", Point{X: 0, Y: 1}, "SE", true},
		{"diagonal past blocked side going up", Point{X: 2, Y: 1}, "NW", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.canStep(tt.from, byName[tt.dir]); got != tt.ok {
				t.Errorf("canStep(%v, %s) = %v, expected %v", tt.from, tt.dir, got, tt.ok)
			}
		})
	}
}
