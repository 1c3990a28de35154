package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
)

func writeConfigs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestAnalyzeConfig(t *testing.T) {
	tests := []struct {
		name      string
		config    engine.MazeConfig
		length    int
		cost      int
		heuristic engine.HeuristicKind
	}{
		{
			name:      "4-direction 5x5",
			config:    engine.MazeConfig{Name: "open", Width: 5, Height: 5},
			length:    9,
			cost:      80,
			heuristic: engine.Manhattan,
		},
		{
			name:      "8-direction 4x4",
			config:    engine.MazeConfig{Name: "diag", Width: 4, Height: 4, Diagonal: true},
			length:    4,
			cost:      42,
			heuristic: engine.Diagonal,
		},
		{
			name:      "8-direction 6x2 euclidean",
			config:    engine.MazeConfig{Name: "wide", Width: 6, Height: 2, Diagonal: true, Heuristic: engine.Euclidean},
			length:    6,
			cost:      54,
			heuristic: engine.Euclidean,
		},
		{
			name:      "single cell",
			config:    engine.MazeConfig{Name: "dot", Width: 1, Height: 1},
			length:    1,
			cost:      0,
			heuristic: engine.Manhattan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := analyzeConfig(context.Background(), tt.config, Options{})
			if err != nil {
				t.Fatalf("analyzeConfig failed: %v", err)
			}
			if !a.Found {
				t.Fatal("expected a path on an empty maze")
			}
			if a.Length != tt.length || a.Cost != tt.cost {
				t.Errorf("Expected length %d cost %d, got length %d cost %d", tt.length, tt.cost, a.Length, a.Cost)
			}
			if a.Heuristic != tt.heuristic {
				t.Errorf("Expected heuristic %s, got %s", tt.heuristic, a.Heuristic)
			}
		})
	}
}

func TestAnalyzeConfig_InvalidConfig(t *testing.T) {
	_, err := analyzeConfig(context.Background(), engine.MazeConfig{Name: "bad", Width: 0, Height: 3}, Options{})
	if err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestAnalyzeConfig_Density(t *testing.T) {
	cfg := engine.MazeConfig{Name: "dense", Width: 12, Height: 12}
	opts := Options{Density: 0.3, Seed: 42}

	first, err := analyzeConfig(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}
	second, err := analyzeConfig(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("analyzeConfig failed: %v", err)
	}

	if first.Obstacles == 0 {
		t.Error("expected random obstacles")
	}
	if first.Found != second.Found || first.Cost != second.Cost || first.Expanded != second.Expanded {
		t.Errorf("same seed should give the same result: %+v vs %+v", first, second)
	}
	if first.Found && first.Cost < 10*(cfg.Width-1+cfg.Height-1) {
		t.Errorf("cost %d below the empty-maze optimum", first.Cost)
	}
}

func TestScatterObstacles(t *testing.T) {
	corner := engine.Point{X: 0, Y: 0}
	far := engine.Point{X: 2, Y: 2}

	points := scatterObstacles(3, 3, 0.99, 7, corner, far)
	for _, p := range points {
		if p == corner || p == far {
			t.Errorf("reserved cell %v was blocked", p)
		}
		if p.X < 0 || p.X >= 3 || p.Y < 0 || p.Y >= 3 {
			t.Errorf("point %v outside the grid", p)
		}
	}
	if len(points) > 7 {
		t.Errorf("at most 7 cells can be blocked, got %d", len(points))
	}

	if got := scatterObstacles(10, 10, 0, 1); len(got) != 0 {
		t.Errorf("zero density should block nothing, got %d", len(got))
	}
}

func TestCommand(t *testing.T) {
	dir := writeConfigs(t, map[string]string{
		"open.json":   `{"name": "Open", "width": 5, "height": 5}`,
		"diag.yaml":   "name: Diagonal\nwidth: 4\nheight: 4\ndiagonal: true\n",
		"broken.json": `{"name": "Broken", "width": -1, "height": 5}`,
		"notes.txt":   "not a config",
	})

	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), []string{"analyze", "--config-dir", dir})
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"=== Analyzing diag.yaml ===",
		"Grid Size: 4 x 4 (8-direction)",
		"length 4, cost 42",
		"=== Analyzing open.json ===",
		"Grid Size: 5 x 5 (4-direction)",
		"length 9, cost 80",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}
	if strings.Contains(text, "broken.json") || strings.Contains(text, "notes.txt") {
		t.Errorf("invalid and non-config files should be skipped:\n%s", text)
	}
}

func TestCommand_Compare(t *testing.T) {
	dir := writeConfigs(t, map[string]string{
		"open.json": `{"name": "Open", "width": 6, "height": 6}`,
	})

	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), []string{"analyze", "--config-dir", dir, "--compare"})
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	text := out.String()
	for _, kind := range []string{"manhattan", "diagonal", "euclidean"} {
		if !strings.Contains(text, kind) {
			t.Errorf("Expected a line for %s:\n%s", kind, text)
		}
	}
	// Every heuristic is admissible without diagonal moves
	if strings.Count(text, "cost 100") != 3 {
		t.Errorf("all heuristics should find the optimal cost 100:\n%s", text)
	}
}

func TestCommand_Errors(t *testing.T) {
	var out bytes.Buffer

	err := newCommand(&out).Run(context.Background(), []string{"analyze", "--config-dir", "/non/existent/path"})
	if err == nil {
		t.Error("Expected error for missing config directory")
	}

	err = newCommand(&out).Run(context.Background(), []string{"analyze", "--config-dir", t.TempDir(), "--density", "1.5"})
	if err == nil {
		t.Error("Expected error for density out of range")
	}
}

func TestCommand_EmptyDir(t *testing.T) {
	var out bytes.Buffer
	dir := t.TempDir()

	if err := newCommand(&out).Run(context.Background(), []string{"analyze", "--config-dir", dir}); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out.String(), "No configurations found") {
		t.Errorf("Unexpected output: %s", out.String())
	}
}
