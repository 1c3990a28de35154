package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/astarmaze/api"
	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
	"github.com/wricardo/mcp-training/astarmaze/transport/mcp"
)

func testConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := `{"name": "Open", "width": 5, "height": 5}`
	if err := os.WriteFile(filepath.Join(dir, "open.json"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return dir
}

// clearEnv unsets every variable the root command reads
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"PORT", "MAZE_HOST", "CONFIG_DIR", "DEBUG", "MAX_EXPANSIONS",
		"NGROK_ENABLED", "NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN", "NGROK_DOMAIN"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}

	expectedAppName := "A* Maze Server"
	if AppName != expectedAppName {
		t.Errorf("Expected app name %s, got %s", expectedAppName, AppName)
	}
}

func TestOptionsAddresses(t *testing.T) {
	tests := []struct {
		host    string
		port    int
		addr    string
		baseURL string
	}{
		{"localhost", 8080, "localhost:8080", "http://localhost:8080"},
		{"0.0.0.0", 9090, "0.0.0.0:9090", "http://localhost:9090"},
		{"", 80, ":80", "http://localhost:80"},
		{"127.0.0.1", 3000, "127.0.0.1:3000", "http://127.0.0.1:3000"},
	}

	for _, tt := range tests {
		opts := Options{Host: tt.host, Port: tt.port}
		if got := opts.Addr(); got != tt.addr {
			t.Errorf("Addr(%q, %d) = %s, want %s", tt.host, tt.port, got, tt.addr)
		}
		if got := opts.BaseURL(); got != tt.baseURL {
			t.Errorf("BaseURL(%q, %d) = %s, want %s", tt.host, tt.port, got, tt.baseURL)
		}
	}
}

// captureOptions replaces every action with one that records the options
func captureOptions(cmd *cli.Command, got *Options, mode *string) {
	cmd.Action = func(ctx context.Context, c *cli.Command) error {
		*got, *mode = optionsFrom(c), "root"
		return nil
	}
	for _, sub := range cmd.Commands {
		name := sub.Name
		sub.Action = func(ctx context.Context, c *cli.Command) error {
			*got, *mode = optionsFrom(c), name
			return nil
		}
	}
}

func TestFlagDefaults(t *testing.T) {
	clearEnv(t)

	var got Options
	var mode string
	cmd := newRootCommand()
	captureOptions(cmd, &got, &mode)

	if err := cmd.Run(context.Background(), []string{"astarmaze"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if mode != "root" {
		t.Errorf("Expected the root action to run, got %s", mode)
	}
	if got.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", got.Port)
	}
	if got.Host != "localhost" {
		t.Errorf("Expected default host localhost, got %s", got.Host)
	}
	if got.ConfigDir != "configs" {
		t.Errorf("Expected default config dir 'configs', got %s", got.ConfigDir)
	}
	if got.Debug || got.Ngrok || got.MaxExpansions != 0 {
		t.Errorf("Unexpected defaults: %+v", got)
	}
}

func TestFlagsAndModes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		mode string
		port int
	}{
		{"server", []string{"astarmaze", "--port", "9090", "server"}, "server", 9090},
		{"http alias", []string{"astarmaze", "--port", "9091", "http"}, "server", 9091},
		{"stdio", []string{"astarmaze", "--port", "9092", "stdio-mcp"}, "stdio-mcp", 9092},
		{"mcp alias", []string{"astarmaze", "--port", "9093", "mcp"}, "stdio-mcp", 9093},
		{"mcp-stdio alias", []string{"astarmaze", "--port", "9094", "mcp-stdio"}, "stdio-mcp", 9094},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			var got Options
			var mode string
			cmd := newRootCommand()
			captureOptions(cmd, &got, &mode)

			if err := cmd.Run(context.Background(), tt.args); err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if mode != tt.mode {
				t.Errorf("Expected mode %s, got %s", tt.mode, mode)
			}
			if got.Port != tt.port {
				t.Errorf("Expected port %d, got %d", tt.port, got.Port)
			}
		})
	}
}

func TestFlagsFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_DIR", "/tmp/mazes")
	t.Setenv("MAX_EXPANSIONS", "500")
	t.Setenv("NGROK_ENABLED", "true")
	t.Setenv("NGROK_AUTH_TOKEN", "secret")
	t.Setenv("NGROK_DOMAIN", "maze.example.com")

	var got Options
	var mode string
	cmd := newRootCommand()
	captureOptions(cmd, &got, &mode)

	if err := cmd.Run(context.Background(), []string{"astarmaze", "--debug"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := Options{
		Host:          "localhost",
		Port:          8080,
		ConfigDir:     "/tmp/mazes",
		Debug:         true,
		MaxExpansions: 500,
		Ngrok:         true,
		NgrokAuth:     "secret",
		NgrokDomain:   "maze.example.com",
	}
	if got != want {
		t.Errorf("Options = %+v, want %+v", got, want)
	}
}

func TestInitializeServices(t *testing.T) {
	svc, err := initializeServices(Options{ConfigDir: testConfigDir(t), MaxExpansions: 3})
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	if svc.maze == nil || svc.sessions == nil || svc.configs == nil {
		t.Fatal("Expected all services to be initialized")
	}

	ctx := context.Background()
	info, err := svc.maze.CreateSession(ctx, "open")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := svc.maze.SetStart(ctx, info.ID, engine.Point{X: 0, Y: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.maze.SetEnd(ctx, info.ID, engine.Point{X: 4, Y: 4}); err != nil {
		t.Fatal(err)
	}

	// A corner-to-corner search on 5x5 needs more than 3 expansions
	if _, err := svc.maze.Evaluate(ctx, info.ID); err == nil {
		t.Error("Expected the expansion budget to be enforced")
	}
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	_, err := initializeServices(Options{ConfigDir: "/non/existent/path"})
	if err == nil {
		t.Error("Expected error for non-existent config directory")
	}
}

func TestSessionCleanupRoutine(t *testing.T) {
	svc, err := initializeServices(Options{ConfigDir: testConfigDir(t)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.sessions.Create("", &engine.MazeConfig{Name: "tiny", Width: 2, Height: 2}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sessionCleanupRoutine(ctx, svc.sessions, 5*time.Millisecond, time.Nanosecond)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for svc.sessions.Count() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.sessions.Count() != 0 {
		t.Error("Expected the expired session to be removed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil on cancel, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cleanup routine did not stop")
	}
}

func TestRootHandler(t *testing.T) {
	svc, err := initializeServices(Options{ConfigDir: testConfigDir(t)})
	if err != nil {
		t.Fatal(err)
	}

	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	defer srv.Close()
	handler = newRootHandler(api.NewServer(svc.maze, nil), mcp.NewClient(srv.URL))

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected /health 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/mcp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected GET /mcp 405, got %d", resp.StatusCode)
	}

	body := `{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}`
	resp, err = http.Post(srv.URL+"/mcp", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %s", ct)
	}
	for _, tool := range []string{"create_session", "add_obstacles", "evaluate"} {
		if !strings.Contains(string(data), tool) {
			t.Errorf("Expected tool %s in tools/list response: %s", tool, data)
		}
	}
}

func TestWaitForAPI(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" || atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := waitForAPI(context.Background(), srv.URL, 5*time.Second); err != nil {
		t.Fatalf("waitForAPI failed: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n < 3 {
		t.Errorf("Expected at least 3 probes, got %d", n)
	}
}

func TestWaitForAPI_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := waitForAPI(context.Background(), srv.URL, 50*time.Millisecond); err == nil {
		t.Error("Expected timeout error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := waitForAPI(ctx, srv.URL, time.Second); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestStartInternalAPI(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	baseURL, err := startInternalAPI(gctx, g, Options{ConfigDir: testConfigDir(t)})
	if err != nil {
		t.Fatalf("startInternalAPI failed: %v", err)
	}
	if !strings.HasPrefix(baseURL, "http://127.0.0.1:") {
		t.Errorf("Expected a loopback URL, got %s", baseURL)
	}
	if !apiAvailable(ctx, baseURL) {
		t.Error("Expected the internal API to answer /health")
	}

	cancel()
	if err := g.Wait(); err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
	if apiAvailable(context.Background(), baseURL) {
		t.Error("Expected the internal API to be stopped")
	}
}
