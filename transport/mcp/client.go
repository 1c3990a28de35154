package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inconshreveable/log15/v3"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
	"github.com/wricardo/mcp-training/astarmaze/maze/service"
)

// Grids larger than this are summarized instead of drawn
const (
	maxRenderWidth  = 80
	maxRenderHeight = 60
)

var log = log15.New("module", "mcp")

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"A* Maze",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`A* Maze - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session holds one grid. Place a start cell, an end cell and any number
of obstacles, then call evaluate to run A* between them. Coordinates are
zero-based, x grows to the right and y grows downward.

AVAILABLE TOOLS:
- create_session, list_sessions, get_session: session management
- maze_state: current grid with start (S), end (E) and obstacles (#)
- set_start, set_end: place the endpoints (pass clear=true to remove)
- add_obstacles, remove_obstacles: edit obstacles in batches
- set_diagonal: allow or forbid diagonal moves
- clear_maze: remove endpoints and obstacles
- evaluate: run the search and draw the path (*)
- evaluation_history: past searches of a session
- list_configs: available maze configurations
- maze_instructions: detailed rules`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func pointsProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "integer"},
				"y": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"x", "y"},
		},
	}
}

func endpointSchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionProperty(),
			"x":          map[string]interface{}{"type": "integer", "description": "Column, 0 is the left edge"},
			"y":          map[string]interface{}{"type": "integer", "description": "Row, 0 is the top edge"},
			"clear": map[string]interface{}{
				"type":        "boolean",
				"description": "Remove the cell instead of setting it",
			},
		},
		Required: []string{"session_id"},
	}
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{"session_id": sessionProperty()},
		Required:   []string{"session_id"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new maze session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the config to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active maze sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetSession)

	// Maze editing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "maze_state",
		Description: "Draw the current maze of a session",
		InputSchema: sessionOnlySchema(),
	}, c.handleMazeState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_start",
		Description: "Set or clear the start cell",
		InputSchema: endpointSchema(),
	}, c.handleSetStart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_end",
		Description: "Set or clear the end cell",
		InputSchema: endpointSchema(),
	}, c.handleSetEnd)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "add_obstacles",
		Description: "Mark cells as obstacles. The batch is rejected if any cell is outside the grid.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"points":     pointsProperty("Cells to block"),
			},
			Required: []string{"session_id", "points"},
		},
	}, c.handleAddObstacles)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_obstacles",
		Description: "Free previously blocked cells",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"points":     pointsProperty("Cells to free"),
			},
			Required: []string{"session_id", "points"},
		},
	}, c.handleRemoveObstacles)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_diagonal",
		Description: "Allow or forbid diagonal moves",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"enabled": map[string]interface{}{
					"type":        "boolean",
					"description": "true for 8-direction movement",
				},
			},
			Required: []string{"session_id", "enabled"},
		},
	}, c.handleSetDiagonal)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_maze",
		Description: "Remove start, end and all obstacles",
		InputSchema: sessionOnlySchema(),
	}, c.handleClearMaze)

	// Search
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "evaluate",
		Description: "Run A* from start to end and draw the resulting path",
		InputSchema: sessionOnlySchema(),
	}, c.handleEvaluate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "evaluation_history",
		Description: "Get paginated evaluation history",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Entries per page (default 20)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleEvaluationHistory)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available maze configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "maze_instructions",
		Description: "Get the rules of the maze and how the search works",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleMazeInstructions)
}

// GetMCPServer returns the MCP server for stdio or HTTP transport
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		log.Debug("API call failed", "method", method, "path", path, "status", resp.StatusCode)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID string, parts ...string) string {
	p := "/api/sessions/" + url.PathEscape(sessionID)
	if len(parts) > 0 {
		p += "/" + strings.Join(parts, "/")
	}
	return p
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// parsePoints accepts [{"x":1,"y":2}, ...] or [[1,2], ...]
func parsePoints(raw interface{}) ([]engine.Point, error) {
	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("points must be an array: %w", err)
	}

	points := make([]engine.Point, 0, len(items))
	for i, item := range items {
		if pair, err := cast.ToIntSliceE(item); err == nil {
			if len(pair) != 2 {
				return nil, fmt.Errorf("point %d: expected [x, y]", i)
			}
			points = append(points, engine.Point{X: pair[0], Y: pair[1]})
			continue
		}

		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("point %d: expected {x, y}", i)
		}
		x, errX := cast.ToIntE(m["x"])
		y, errY := cast.ToIntE(m["y"])
		if errX != nil || errY != nil || m["x"] == nil || m["y"] == nil {
			return nil, fmt.Errorf("point %d: x and y must be integers", i)
		}
		points = append(points, engine.Point{X: x, Y: y})
	}
	return points, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID := cast.ToString(args["config_id"])
	if configID == "" {
		configID = cast.ToString(args["config_name"])
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		dims := ""
		if s.State != nil {
			dims = fmt.Sprintf(", %dx%d", s.State.Width, s.State.Height)
		}
		fmt.Fprintf(&b, "- %s (Config: %s%s, Created: %s)\n",
			s.ID, s.ConfigName, dims, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := cast.ToString(arguments(request)["session_id"])

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleMazeState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := cast.ToString(arguments(request)["session_id"])

	var state service.MazeState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMazeState(&state, nil)), nil
}

func (c *Client) handleSetStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.setEndpoint(ctx, request, "start")
}

func (c *Client) handleSetEnd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.setEndpoint(ctx, request, "end")
}

func (c *Client) setEndpoint(ctx context.Context, request mcp.CallToolRequest, which string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := cast.ToString(args["session_id"])

	var state service.MazeState
	if cast.ToBool(args["clear"]) {
		if err := c.apiCall(ctx, "DELETE", sessionPath(sessionID, which), nil, &state); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Cleared %s.\n\n%s", which, formatMazeState(&state, nil))), nil
	}

	if args["x"] == nil || args["y"] == nil {
		return mcp.NewToolResultError("x and y are required unless clear is true"), nil
	}
	x, errX := cast.ToIntE(args["x"])
	y, errY := cast.ToIntE(args["y"])
	if errX != nil || errY != nil {
		return mcp.NewToolResultError("x and y must be integers"), nil
	}

	p := engine.Point{X: x, Y: y}
	if err := c.apiCall(ctx, "PUT", sessionPath(sessionID, which), p, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Set %s to %s.\n\n%s", which, p, formatMazeState(&state, nil))), nil
}

func (c *Client) handleAddObstacles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.editObstacles(ctx, request, "POST", "Added")
}

func (c *Client) handleRemoveObstacles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.editObstacles(ctx, request, "DELETE", "Removed")
}

func (c *Client) editObstacles(ctx context.Context, request mcp.CallToolRequest, method, verb string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := cast.ToString(args["session_id"])

	points, err := parsePoints(args["points"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(points) == 0 {
		return mcp.NewToolResultError("at least one point is required"), nil
	}

	var result service.ObstacleEditResult
	body := map[string]interface{}{"points": points}
	if err := c.apiCall(ctx, method, sessionPath(sessionID, "obstacles"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("%s %d of %d obstacle(s).\n\n%s", verb, result.Changed, result.Requested,
		formatMazeState(result.State, nil))
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleSetDiagonal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := cast.ToString(args["session_id"])
	enabled, err := cast.ToBoolE(args["enabled"])
	if err != nil || args["enabled"] == nil {
		return mcp.NewToolResultError("enabled must be true or false"), nil
	}

	var state service.MazeState
	body := map[string]bool{"enabled": enabled}
	if err := c.apiCall(ctx, "PUT", sessionPath(sessionID, "diagonal"), body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMazeState(&state, nil)), nil
}

func (c *Client) handleClearMaze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := cast.ToString(arguments(request)["session_id"])

	var state service.MazeState
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "clear"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Maze cleared.\n\n" + formatMazeState(&state, nil)), nil
}

func (c *Client) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := cast.ToString(arguments(request)["session_id"])

	var result service.EvaluationResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "evaluate"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatEvaluation(&result)), nil
}

func (c *Client) handleEvaluationHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := cast.ToString(args["session_id"])

	query := url.Values{}
	if page := cast.ToInt(args["page"]); page > 0 {
		query.Set("page", cast.ToString(page))
	}
	if limit := cast.ToInt(args["limit"]); limit > 0 {
		query.Set("limit", cast.ToString(limit))
	}

	path := sessionPath(sessionID, "history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		movement := "4-direction"
		if cfg.Diagonal {
			movement = "8-direction"
		}
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, %s, heuristic: %s\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.Width, cfg.Height, movement, orDefault(cfg.Heuristic, "auto"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleMazeInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `A* Maze - Instructions

GRID:
• Cells are addressed as (x, y), zero-based; x grows right, y grows down.
• A session's grid size comes from its configuration and never changes.

LEGEND:
  S  start cell
  E  end cell
  #  obstacle
  *  cell on the found path
  .  free cell

EDITING:
• set_start / set_end place the endpoints; setting one again moves it.
• add_obstacles / remove_obstacles take a list of points, e.g.
  [{"x": 2, "y": 0}, {"x": 2, "y": 1}] or [[2, 0], [2, 1]].
• A batch that contains any point outside the grid is rejected as a whole.
• Start and end stay passable even when an obstacle is placed on them.

MOVEMENT AND COST:
• 4-direction mode moves N, S, E, W at cost 10 per step.
• 8-direction mode adds diagonals at cost 14 per step.
• A diagonal step is only allowed when both cells it squeezes between are free.

SEARCH:
• evaluate needs both endpoints; it returns the cheapest path if one exists.
• The path is reported from the end back to the start; the route runs start to end.
• Heuristics: manhattan (4-direction default), diagonal/octile (8-direction
  default) and euclidean. All of them never overestimate, so paths are optimal.
• Equal-cost choices are broken deterministically, so repeating an evaluation
  on an unchanged maze returns the same path.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatMazeState(session.State, nil))
}

func formatMazeState(state *service.MazeState, path []engine.Point) string {
	if state == nil {
		return "No maze state available"
	}

	var b strings.Builder
	movement := "4-direction"
	if state.Diagonal {
		movement = "8-direction"
	}
	fmt.Fprintf(&b, "Grid: %dx%d, %s, heuristic: %s\n", state.Width, state.Height, movement, state.Heuristic)
	fmt.Fprintf(&b, "Start: %s  End: %s  Obstacles: %d\n", formatPoint(state.Start), formatPoint(state.End), len(state.Obstacles))
	if state.Ready {
		b.WriteString("Ready to evaluate\n")
	} else {
		b.WriteString("Not ready: set both start and end (they must differ)\n")
	}
	b.WriteString("\n")

	if state.Width > maxRenderWidth || state.Height > maxRenderHeight {
		fmt.Fprintf(&b, "(grid larger than %dx%d, not drawn)\n", maxRenderWidth, maxRenderHeight)
		return b.String()
	}

	cfg := engine.MazeConfig{Width: state.Width, Height: state.Height}
	b.WriteString(engine.Render(cfg, state.Obstacles, state.Start, state.End, path))
	return b.String()
}

func formatPoint(p *engine.Point) string {
	if p == nil {
		return "unset"
	}
	return p.String()
}

func formatEvaluation(result *service.EvaluationResult) string {
	var b strings.Builder
	if result.Found {
		fmt.Fprintf(&b, "PATH FOUND: %d cells, cost %d, %d nodes expanded (%.2fms)\n",
			result.Length, result.Cost, result.Expanded, result.DurationMs)
		b.WriteString("Route: ")
		for i, p := range result.Route {
			if i > 0 {
				b.WriteString(" -> ")
			}
			b.WriteString(p.String())
		}
		b.WriteString("\n\n")
	} else {
		fmt.Fprintf(&b, "NO PATH: %d nodes expanded (%.2fms)\n\n", result.Expanded, result.DurationMs)
	}
	b.WriteString(formatMazeState(result.State, result.Path))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluation History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalEvaluations)

	for i, rec := range history.Evaluations {
		num := (history.Page-1)*history.PageSize + i + 1
		if rec.Found {
			fmt.Fprintf(&b, "%d. %s -> %s ✓ length %d, cost %d, expanded %d\n",
				num, rec.Start, rec.End, rec.Length, rec.Cost, rec.Expanded)
		} else {
			fmt.Fprintf(&b, "%d. %s -> %s ✗ no path, expanded %d\n",
				num, rec.Start, rec.End, rec.Expanded)
		}
	}

	if len(history.Evaluations) == 0 {
		b.WriteString("(no evaluations yet)\n")
	}
	return b.String()
}
