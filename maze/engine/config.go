package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ValidateMazeConfig validates a maze configuration. Every violation is reported,
// each wrapping ErrInvalidConfig.
func ValidateMazeConfig(config *MazeConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}

	var errs error
	if config.Width < MinGridSize || config.Width > MaxGridSize {
		errs = multierr.Append(errs, fmt.Errorf("%w: width must be between %d and %d, got %d", ErrInvalidConfig, MinGridSize, MaxGridSize, config.Width))
	}
	if config.Height < MinGridSize || config.Height > MaxGridSize {
		errs = multierr.Append(errs, fmt.Errorf("%w: height must be between %d and %d, got %d", ErrInvalidConfig, MinGridSize, MaxGridSize, config.Height))
	}
	if config.Heuristic != "" {
		if _, err := ParseHeuristic(string(config.Heuristic)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: heuristic must be one of manhattan, diagonal, euclidean, got %q", ErrInvalidConfig, config.Heuristic))
		}
	}

	return errs
}

// ConfigErrors splits a validation error into its individual violations
func ConfigErrors(err error) []error {
	return multierr.Errors(err)
}

// ParseMazeConfig decodes a configuration. YAML is used for .yaml/.yml names,
// JSON otherwise. The result is validated.
func ParseMazeConfig(filename string, data []byte) (*MazeConfig, error) {
	var config MazeConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config '%s': %w", filename, err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config '%s': %w", filename, err)
		}
	}

	if heuristic, err := normalizeHeuristic(config.Heuristic); err == nil {
		config.Heuristic = heuristic
	}

	if err := ValidateMazeConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadMazeConfig loads a maze configuration from a JSON or YAML file
func LoadMazeConfig(filename string) (*MazeConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	return ParseMazeConfig(configPath, data)
}

// DefaultMazeConfig returns the built-in configuration used when none is available
func DefaultMazeConfig() MazeConfig {
	return MazeConfig{
		Name:        "default",
		Description: "Open 20x20 maze with 4-neighbour movement",
		Width:       20,
		Height:      20,
		Diagonal:    false,
		Heuristic:   Manhattan,
	}
}

func normalizeHeuristic(k HeuristicKind) (HeuristicKind, error) {
	if k == "" {
		return "", nil
	}
	return ParseHeuristic(strings.ToLower(string(k)))
}
