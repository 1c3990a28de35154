// Command validate checks every maze configuration (JSON or YAML) in a
// directory. It checks:
//   - document structure, including unknown fields
//   - a non-empty name
//   - grid dimensions and heuristic names
//   - heuristic admissibility for the movement mode (warning only)
//   - that the empty maze is solvable corner to corner
//
// It prints a report and exits non-zero when any file is invalid.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
)

var errInvalidFiles = errors.New("some configurations have errors")

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
}

// decodeConfig reads a config without applying engine validation, rejecting
// fields the schema does not know
func decodeConfig(filePath string, data []byte) (engine.MazeConfig, error) {
	var config engine.MazeConfig
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil {
			return config, fmt.Errorf("Invalid YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&config); err != nil {
			return config, fmt.Errorf("Invalid JSON: %w", err)
		}
	}
	return config, nil
}

// validateConfig loads and validates a single configuration file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	config, err := decodeConfig(filePath, data)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	var errs error
	if strings.TrimSpace(config.Name) == "" {
		errs = multierr.Append(errs, errors.New("name is required"))
	}
	if config.Heuristic != "" {
		if kind, err := engine.ParseHeuristic(strings.ToLower(string(config.Heuristic))); err == nil {
			config.Heuristic = kind
		}
	}
	errs = multierr.Append(errs, engine.ValidateMazeConfig(&config))

	if errs != nil {
		result.Valid = false
		for _, e := range engine.ConfigErrors(errs) {
			result.Errors = append(result.Errors, e.Error())
		}
		return result
	}

	heuristic := config.Heuristic
	if heuristic == "" {
		heuristic = engine.DefaultHeuristic(config.Diagonal)
	}
	if config.Diagonal && heuristic == engine.Manhattan {
		result.Warnings = append(result.Warnings,
			"manhattan overestimates with diagonal moves; paths may not be optimal (use diagonal or euclidean)")
	}

	solvability := validateSolvability(config)
	if !solvability.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, solvability.Errors...)
		return result
	}

	movement := "4-direction"
	if config.Diagonal {
		movement = "8-direction"
	}
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", config.Width, config.Height))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Movement: %s", movement))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Heuristic: %s", heuristic))
	result.Errors = append(result.Errors, solvability.Errors...)

	return result
}

// validateSolvability runs a corner-to-corner search on the empty maze
func validateSolvability(config engine.MazeConfig) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	gen, err := engine.NewPathGenerator(config)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot build maze: %v", err))
		return result
	}

	start := engine.Point{X: 0, Y: 0}
	end := engine.Point{X: config.Width - 1, Y: config.Height - 1}
	if start == end {
		result.Errors = append(result.Errors, "✓ Solvability: single cell maze")
		return result
	}

	if err := multierr.Combine(gen.SetStartNode(start), gen.SetEndNode(end)); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot place corners: %v", err))
		return result
	}

	path, err := gen.FindPath()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Search failed: %v", err))
		return result
	}
	if !path.Found {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Solvability failure: no path from %v to %v", start, end))
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Solvability: %v to %v in %d cells, cost %d",
		start, end, path.Len(), path.Cost))
	return result
}

// configFiles lists the JSON and YAML files in dir, sorted by name
func configFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}

	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// run validates every file in dir and writes a report. In strict mode
// warnings make a file invalid.
func run(out io.Writer, dir string, strict bool) error {
	files, err := configFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No configuration files found in %s\n", dir)
		return nil
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)
		if strict && len(result.Warnings) > 0 {
			result.Valid = false
		}

		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(out, "  "+info)
			}
		} else {
			fmt.Fprintln(out, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(out, "  ❌ "+err)
				}
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(out, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if !allValid {
		fmt.Fprintln(out, "❌ Some configurations have errors")
		return errInvalidFiles
	}
	fmt.Fprintln(out, "✅ All configurations are valid!")
	return nil
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate maze configuration files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing maze configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Treat warnings as errors",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(out, cmd.String("config-dir"), cmd.Bool("strict"))
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errInvalidFiles) {
			fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		}
		os.Exit(1)
	}
}
