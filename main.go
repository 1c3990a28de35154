// Command astarmaze starts the A* maze server.
//
// It supports two modes:
//  1. "server" (default) runs the HTTP server exposing REST API, WebSocket, metrics and an /mcp HTTP endpoint
//  2. "stdio-mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config directory, debug logging, the per-search
// expansion budget, and optional ngrok tunneling for easy external access
// during development. Every flag can also be set from the environment or a
// .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/joho/godotenv"
	"github.com/jpillora/backoff"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/astarmaze/api"
	"github.com/wricardo/mcp-training/astarmaze/maze/config"
	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
	"github.com/wricardo/mcp-training/astarmaze/maze/service"
	"github.com/wricardo/mcp-training/astarmaze/maze/session"
	"github.com/wricardo/mcp-training/astarmaze/transport/mcp"
	"github.com/wricardo/mcp-training/astarmaze/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "A* Maze Server"
)

const (
	cleanupInterval = 1 * time.Hour
	sessionMaxAge   = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
	readyTimeout    = 5 * time.Second
)

var log = log15.New("module", "main")

// Options are the resolved command line settings
type Options struct {
	Host          string
	Port          int
	ConfigDir     string
	Debug         bool
	MaxExpansions int
	Ngrok         bool
	NgrokAuth     string
	NgrokDomain   string
}

// Addr is the host:port the HTTP server listens on
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, fmt.Sprint(o.Port))
}

// BaseURL is the address local clients use to reach the HTTP server.
// Wildcard hosts are reached through localhost.
func (o Options) BaseURL() string {
	host := o.Host
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, fmt.Sprint(o.Port))
}

// main loads .env, then runs the selected mode until a signal arrives.
func main() {
	// Keep stdout clean until the flags pick the final level
	log15.Root().SetHandler(logHandler(false))

	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("Error loading .env file", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		log.Crit("Exiting", "err", err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "astarmaze",
		Usage:   "A* pathfinding mazes over REST, WebSocket and MCP",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("MAZE_HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing maze configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.IntFlag{
				Name:    "max-expansions",
				Usage:   "Node expansions allowed per search (0 means width*height)",
				Sources: cli.EnvVars("MAX_EXPANSIONS"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runHTTPServer(ctx, setup(cmd, "server"))
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runHTTPServer(ctx, setup(cmd, "server"))
				},
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(ctx, setup(cmd, "stdio-mcp"))
				},
			},
		},
	}
}

// setup reads the options and configures the root logger
func setup(cmd *cli.Command, mode string) Options {
	opts := optionsFrom(cmd)
	log15.Root().SetHandler(logHandler(opts.Debug))
	log.Info("Starting "+AppName, "version", Version, "mode", mode)
	return opts
}

func optionsFrom(cmd *cli.Command) Options {
	return Options{
		Host:          cmd.String("host"),
		Port:          int(cmd.Int("port")),
		ConfigDir:     cmd.String("config-dir"),
		Debug:         cmd.Bool("debug"),
		MaxExpansions: int(cmd.Int("max-expansions")),
		Ngrok:         cmd.Bool("ngrok"),
		NgrokAuth:     cmd.String("ngrok-auth"),
		NgrokDomain:   cmd.String("ngrok-domain"),
	}
}

// logHandler writes to stderr so stdout stays free for the MCP stdio protocol.
// Terminals get colored output, everything else logfmt.
func logHandler(debug bool) log15.Handler {
	format := log15.LogfmtFormat()
	if isatty.IsTerminal(os.Stderr.Fd()) {
		format = log15.TerminalFormat()
	}
	level := log15.LvlInfo
	if debug {
		level = log15.LvlDebug
	}
	return log15.LvlFilterHandler(level, log15.StreamHandler(colorable.NewColorableStderr(), format))
}

// services bundles the managers behind the maze service
type services struct {
	configs  *config.Manager
	sessions *session.Manager
	maze     service.MazeService
}

// initializeServices wires session/config managers and the maze service.
func initializeServices(opts Options) (*services, error) {
	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	var engineOpts []engine.Option
	if opts.MaxExpansions > 0 {
		engineOpts = append(engineOpts, engine.WithExpansionBudget(opts.MaxExpansions))
	}
	sessionManager := session.NewManager(engineOpts...)

	return &services{
		configs:  configManager,
		sessions: sessionManager,
		maze:     service.NewMazeService(sessionManager, configManager),
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within maxAge. It returns when ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Info("Cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// newRootHandler mounts the API at the root and adds the /mcp endpoint, which
// answers one JSON-RPC message per POST.
func newRootHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer serves the REST API, WebSocket hub, metrics and the /mcp
// endpoint until ctx is cancelled. If ngrok is enabled it also provisions a
// public tunnel.
func runHTTPServer(ctx context.Context, opts Options) error {
	svc, err := initializeServices(opts)
	if err != nil {
		return err
	}

	hub := websocket.NewHub()
	apiServer := api.NewServer(svc.maze, hub)
	mcpClient := mcp.NewClient(opts.BaseURL())
	handler := newRootHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         opts.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		return sessionCleanupRoutine(gctx, svc.sessions, cleanupInterval, sessionMaxAge)
	})

	g.Go(func() error {
		base := opts.BaseURL()
		log.Info("HTTP server listening", "addr", httpServer.Addr)
		log.Info("Endpoints",
			"api", base+"/api",
			"ws", base+"/ws?session=<session_id>",
			"mcp", base+"/mcp",
			"metrics", base+"/metrics")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", "err", err)
		}
		return nil
	})

	if opts.Ngrok {
		g.Go(func() error {
			if err := runNgrok(gctx, opts, handler); err != nil {
				// A failed tunnel leaves the local server running
				log.Error("Ngrok tunnel failed", "err", err)
			}
			return nil
		})
	}

	err = g.Wait()
	log.Info("Server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, opts Options, handler http.Handler) error {
	if opts.NgrokAuth == "" {
		log.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return nil
	}

	log.Info("Starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Info("Using custom ngrok domain", "domain", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		return fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn("Failed to close ngrok tunnel", "err", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Info("🚀 Ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"ws", ngrokURL+"/ws?session=<session_id>",
		"mcp", ngrokURL+"/mcp")

	if err := http.Serve(tun, handler); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("Ngrok tunnel closed")
	return nil
}

// apiAvailable reports whether an API server answers /health at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// waitForAPI polls /health with exponential backoff until it answers or
// timeout elapses
func waitForAPI(ctx context.Context, baseURL string, timeout time.Duration) error {
	b := &backoff.Backoff{
		Min:    10 * time.Millisecond,
		Max:    500 * time.Millisecond,
		Factor: 2,
		Jitter: true,
	}
	deadline := time.Now().Add(timeout)

	for {
		if apiAvailable(ctx, baseURL) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("API at %s not ready after %s (%d attempts)", baseURL, timeout, int(b.Attempt()))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
}

// startInternalAPI serves the API on a random loopback port inside g and
// returns its base URL once it answers /health.
func startInternalAPI(ctx context.Context, g *errgroup.Group, opts Options) (string, error) {
	svc, err := initializeServices(opts)
	if err != nil {
		return "", err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL := "http://" + listener.Addr().String()
	log.Info("Starting internal HTTP server for MCP stdio", "addr", listener.Addr().String())

	hub := websocket.NewHub()
	httpServer := &http.Server{Handler: api.NewServer(svc.maze, hub)}

	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error {
		return sessionCleanupRoutine(ctx, svc.sessions, cleanupInterval, sessionMaxAge)
	})
	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("internal HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := waitForAPI(ctx, baseURL, readyTimeout); err != nil {
		return "", err
	}
	return baseURL, nil
}

// runStdioMCP runs an MCP stdio server. It reuses an external API at
// --host/--port when one answers; otherwise it starts an internal HTTP API on
// a random loopback port and targets that.
func runStdioMCP(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	baseURL := opts.BaseURL()
	log.Info("Checking for external API server", "url", baseURL)

	if apiAvailable(ctx, baseURL) {
		log.Info("External API server found, using it for MCP", "url", baseURL)
	} else {
		log.Info("No external API server found, starting internal HTTP server")
		internalURL, err := startInternalAPI(gctx, g, opts)
		if err != nil {
			cancel()
			return multierr.Append(err, g.Wait())
		}
		baseURL = internalURL
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info("MCP stdio server ready", "api", baseURL)

	err := server.ServeStdio(mcpClient.GetMCPServer())
	cancel()
	return multierr.Append(err, g.Wait())
}
