// Command bruteforcer drives a running maze server through its REST API.
// Each attempt scatters random obstacles, picks random endpoints and asks the
// server to evaluate. The answer is checked against an exhaustive search:
// same reachability, a legal target-first path, and the optimal cost whenever
// the heuristic is admissible.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/jpillora/backoff"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
	"github.com/wricardo/mcp-training/astarmaze/maze/service"
)

var log = log15.New("module", "bruteforcer")

var errMismatch = errors.New("server answers disagreed with exhaustive search")

// Client talks to the maze REST API for one session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// do sends a JSON request and decodes the JSON answer into result
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, resp.Status)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse %s response: %w", path, err)
		}
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

// WaitReady polls /health with backoff until the server answers
func (c *Client) WaitReady(ctx context.Context, attempts int) error {
	b := &backoff.Backoff{Min: 100 * time.Millisecond, Max: 2 * time.Second, Factor: 2}
	for {
		err := c.do(ctx, http.MethodGet, "/health", nil, nil)
		if err == nil {
			return nil
		}
		if int(b.Attempt()) >= attempts-1 {
			return fmt.Errorf("server not reachable after %d attempts: %w", attempts, err)
		}
		wait := b.Duration()
		log.Debug("Server not ready", "retry_in", wait, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var body interface{}
	if configID != "" {
		body = map[string]string{"config_id": configID}
	}
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

func (c *Client) GetSession(ctx context.Context) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodGet, c.sessionPath(""), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) SetStart(ctx context.Context, p engine.Point) error {
	return c.do(ctx, http.MethodPut, c.sessionPath("/start"), p, nil)
}

func (c *Client) SetEnd(ctx context.Context, p engine.Point) error {
	return c.do(ctx, http.MethodPut, c.sessionPath("/end"), p, nil)
}

func (c *Client) ReplaceObstacles(ctx context.Context, points []engine.Point) error {
	if points == nil {
		points = []engine.Point{}
	}
	return c.do(ctx, http.MethodPut, c.sessionPath("/obstacles"), map[string]interface{}{"points": points}, nil)
}

func (c *Client) SetDiagonal(ctx context.Context, enabled bool) error {
	return c.do(ctx, http.MethodPut, c.sessionPath("/diagonal"), map[string]bool{"enabled": enabled}, nil)
}

func (c *Client) Evaluate(ctx context.Context) (*service.EvaluationResult, error) {
	var result service.EvaluationResult
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/evaluate"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Options control a bruteforce run
type Options struct {
	ConfigID          string
	Continue          string
	SessionFile       string
	Attempts          int
	Density           float64
	Seed              int64
	AlternateDiagonal bool
	Delay             time.Duration
	Verbose           bool
}

// Summary counts the outcomes of a run
type Summary struct {
	Attempts   int
	Found      int
	NoPath     int
	Mismatches int
}

// openSession resumes the requested or saved session, creating a new one
// when there is none or it has expired
func openSession(ctx context.Context, client *Client, opts Options) (*service.SessionInfo, error) {
	savedSessionID := opts.Continue
	if savedSessionID == "" && opts.SessionFile != "" {
		if data, err := os.ReadFile(opts.SessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	if savedSessionID != "" {
		client.sessionID = savedSessionID
		info, err := client.GetSession(ctx)
		if err == nil {
			log.Info("🔄 Resuming session", "session", info.ID)
			return info, nil
		}
		log.Warn("Failed to resume session (may be expired)", "session", savedSessionID, "err", err)
	}

	info, err := client.CreateSession(ctx, opts.ConfigID)
	if err != nil {
		return nil, err
	}
	log.Info("✨ Session created", "session", info.ID, "config", info.ConfigName)

	if opts.SessionFile != "" {
		if err := os.WriteFile(opts.SessionFile, []byte(info.ID), 0644); err != nil {
			log.Warn("Failed to save session ID", "err", err)
		}
	}
	return info, nil
}

// run plays opts.Attempts random trials against the session and reports
// every disagreement to out
func run(ctx context.Context, client *Client, opts Options, out io.Writer) (Summary, error) {
	var summary Summary

	info, err := openSession(ctx, client, opts)
	if err != nil {
		return summary, err
	}
	if info.State == nil {
		return summary, fmt.Errorf("session %s has no state", info.ID)
	}
	width, height := info.State.Width, info.State.Height
	if width*height < 2 {
		return summary, fmt.Errorf("maze %dx%d is too small for two endpoints", width, height)
	}
	diagonal := info.State.Diagonal

	fmt.Fprintf(out, "Session %s: %dx%d, heuristic %s\n", info.ID, width, height, info.State.Heuristic)

	rng := rand.New(rand.NewSource(opts.Seed))
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if opts.AlternateDiagonal {
			diagonal = !diagonal
			if err := client.SetDiagonal(ctx, diagonal); err != nil {
				return summary, err
			}
		}

		trial := NewTrial(rng, width, height, opts.Density)
		if err := client.ReplaceObstacles(ctx, trial.Obstacles); err != nil {
			return summary, err
		}
		if err := client.SetStart(ctx, trial.Start); err != nil {
			return summary, err
		}
		if err := client.SetEnd(ctx, trial.End); err != nil {
			return summary, err
		}

		result, err := client.Evaluate(ctx)
		if err != nil {
			return summary, err
		}

		summary.Attempts++
		if result.Found {
			summary.Found++
		} else {
			summary.NoPath++
		}

		if err := CheckResult(trial, result.State, result); err != nil {
			summary.Mismatches++
			fmt.Fprintf(out, "❌ Attempt %d: %v -> %v with %d obstacles\n",
				attempt, trial.Start, trial.End, len(trial.Obstacles))
			for _, line := range strings.Split(err.Error(), "; ") {
				fmt.Fprintf(out, "   %s\n", line)
			}
		} else if opts.Verbose {
			fmt.Fprintf(out, "✅ Attempt %d: %v -> %v found=%v cost=%d expanded=%d\n",
				attempt, trial.Start, trial.End, result.Found, result.Cost, result.Expanded)
		}

		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}

	fmt.Fprintf(out, "\nAttempts: %d, paths: %d, no path: %d, mismatches: %d\n",
		summary.Attempts, summary.Found, summary.NoPath, summary.Mismatches)
	if summary.Mismatches > 0 {
		return summary, errMismatch
	}
	return summary, nil
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "bruteforcer",
		Usage: "Cross-check a maze server's A* answers against an exhaustive search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080",
				Usage:   "Maze server URL",
				Sources: cli.EnvVars("MAZE_URL"),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Maze configuration ID for new sessions",
			},
			&cli.StringFlag{
				Name:  "continue",
				Usage: "Reuse an existing session by ID",
			},
			&cli.StringFlag{
				Name:  "session-file",
				Value: ".session",
				Usage: "File remembering the session between runs (empty disables it)",
			},
			&cli.IntFlag{
				Name:  "max-attempts",
				Value: 100,
				Usage: "Number of random trials",
			},
			&cli.FloatFlag{
				Name:  "density",
				Value: 0.3,
				Usage: "Fraction of cells blocked in each trial",
			},
			&cli.IntFlag{
				Name:  "seed",
				Usage: "Random seed (0 uses the clock)",
			},
			&cli.BoolFlag{
				Name:  "alternate-diagonal",
				Usage: "Toggle diagonal movement before every trial",
			},
			&cli.IntFlag{
				Name:  "delay",
				Usage: "Delay between trials in milliseconds",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print every trial",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := Options{
				ConfigID:          cmd.String("config"),
				Continue:          cmd.String("continue"),
				SessionFile:       cmd.String("session-file"),
				Attempts:          int(cmd.Int("max-attempts")),
				Density:           cmd.Float("density"),
				Seed:              int64(cmd.Int("seed")),
				AlternateDiagonal: cmd.Bool("alternate-diagonal"),
				Delay:             time.Duration(cmd.Int("delay")) * time.Millisecond,
				Verbose:           cmd.Bool("verbose"),
			}
			if opts.Density < 0 || opts.Density >= 1 {
				return fmt.Errorf("density must be in [0, 1), got %v", opts.Density)
			}
			if opts.Seed == 0 {
				opts.Seed = time.Now().UnixNano()
			}

			client := NewClient(cmd.String("url"))
			log.Info("Connecting to maze server", "url", client.baseURL)
			if err := client.WaitReady(ctx, 5); err != nil {
				return err
			}

			_, err := run(ctx, client, opts, out)
			return err
		},
	}
}

func main() {
	log15.Root().SetHandler(log15.StreamHandler(os.Stderr, log15.LogfmtFormat()))

	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errMismatch) {
			log.Error("Bruteforce run failed", "err", err)
		}
		os.Exit(1)
	}
}
