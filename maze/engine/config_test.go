package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func createValidConfig() *MazeConfig {
	return &MazeConfig{
		Name:        "Valid Test Config",
		Description: "A valid configuration for testing",
		Width:       10,
		Height:      8,
		Diagonal:    true,
		Heuristic:   Diagonal,
	}
}

func TestValidateMazeConfig_ValidConfig(t *testing.T) {
	if err := ValidateMazeConfig(createValidConfig()); err != nil {
		t.Errorf("Expected valid config to pass, got %v", err)
	}

	config := createValidConfig()
	config.Heuristic = ""
	if err := ValidateMazeConfig(config); err != nil {
		t.Errorf("Empty heuristic should be accepted, got %v", err)
	}
}

func TestValidateMazeConfig_Nil(t *testing.T) {
	if err := ValidateMazeConfig(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for nil config, got %v", err)
	}
}

func TestValidateMazeConfig_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 5},
		{"zero height", 5, 0},
		{"negative", -3, 5},
		{"too wide", MaxGridSize + 1, 5},
		{"too tall", 5, MaxGridSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			config.Width, config.Height = tt.width, tt.height
			if err := ValidateMazeConfig(config); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	config := createValidConfig()
	config.Width, config.Height = MaxGridSize, MinGridSize
	if err := ValidateMazeConfig(config); err != nil {
		t.Errorf("Boundary sizes should be valid, got %v", err)
	}
}

func TestValidateMazeConfig_ReportsEveryViolation(t *testing.T) {
	config := &MazeConfig{Name: "broken", Width: 0, Height: -1, Heuristic: "chebyshev"}

	err := ValidateMazeConfig(config)
	if err == nil {
		t.Fatal("Expected validation to fail")
	}
	errs := ConfigErrors(err)
	if len(errs) != 3 {
		t.Fatalf("Expected 3 violations, got %d: %v", len(errs), err)
	}
	for _, e := range errs {
		if !errors.Is(e, ErrInvalidConfig) {
			t.Errorf("Violation %v should wrap ErrInvalidConfig", e)
		}
	}
}

func TestParseMazeConfig(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		data := []byte(`{"name":"j","width":6,"height":4,"diagonal":true,"heuristic":"Euclidean"}`)
		config, err := ParseMazeConfig("maze.json", data)
		if err != nil {
			t.Fatalf("ParseMazeConfig failed: %v", err)
		}
		if config.Width != 6 || config.Height != 4 || !config.Diagonal {
			t.Errorf("Unexpected config %+v", config)
		}
		if config.Heuristic != Euclidean {
			t.Errorf("Heuristic should be normalised to %s, got %s", Euclidean, config.Heuristic)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		data := []byte("name: y\ndescription: yaml maze\nwidth: 12\nheight: 3\nheuristic: octile\n")
		config, err := ParseMazeConfig("maze.yaml", data)
		if err != nil {
			t.Fatalf("ParseMazeConfig failed: %v", err)
		}
		if config.Name != "y" || config.Width != 12 || config.Height != 3 {
			t.Errorf("Unexpected config %+v", config)
		}
		if config.Heuristic != Diagonal {
			t.Errorf("octile should map to %s, got %s", Diagonal, config.Heuristic)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := ParseMazeConfig("maze.json", []byte(`{"name":`)); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseMazeConfig("maze.yml", []byte("name: tiny\nwidth: 0\nheight: 2\n"))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestLoadMazeConfig(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "test.json")
	if err := os.WriteFile(path, []byte(`{"name":"test","width":5,"height":5}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadMazeConfig(path)
	if err != nil {
		t.Fatalf("LoadMazeConfig failed: %v", err)
	}
	if config.Name != "test" {
		t.Errorf("Expected name 'test', got '%s'", config.Name)
	}

	if _, err := LoadMazeConfig(filepath.Join(tempDir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadMazeConfig_ConfigDirEnv(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "env.yaml"), []byte("name: env\nwidth: 3\nheight: 3\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("CONFIG_DIR", tempDir)

	config, err := LoadMazeConfig("configs/env.yaml")
	if err != nil {
		t.Fatalf("LoadMazeConfig failed: %v", err)
	}
	if config.Name != "env" {
		t.Errorf("Expected name 'env', got '%s'", config.Name)
	}
}

func TestDefaultMazeConfig(t *testing.T) {
	config := DefaultMazeConfig()
	if err := ValidateMazeConfig(&config); err != nil {
		t.Errorf("Default config should be valid, got %v", err)
	}
}
