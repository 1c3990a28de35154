package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/inconshreveable/log15/v3"
	"github.com/invopop/jsonschema"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wricardo/mcp-training/astarmaze/maze/config"
	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
	"github.com/wricardo/mcp-training/astarmaze/maze/service"
	"github.com/wricardo/mcp-training/astarmaze/maze/session"
	"github.com/wricardo/mcp-training/astarmaze/transport/websocket"
)

var log = log15.New("module", "api")

// Broadcaster pushes session updates to live clients
type Broadcaster interface {
	BroadcastState(sessionID string, state *service.MazeState)
	BroadcastEvent(sessionID string, event string, data interface{})
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string)
}

// Server represents the REST API server
type Server struct {
	service service.MazeService
	hub     Broadcaster
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(mazeService service.MazeService, hub Broadcaster) *Server {
	s := &Server{
		service: mazeService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Maze editing
	api.HandleFunc("/sessions/{id}/state", s.handleGetMazeState).Methods("GET")
	api.HandleFunc("/sessions/{id}/start", s.handleSetStart).Methods("PUT")
	api.HandleFunc("/sessions/{id}/start", s.handleClearStart).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/end", s.handleSetEnd).Methods("PUT")
	api.HandleFunc("/sessions/{id}/end", s.handleClearEnd).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/obstacles", s.handleAddObstacles).Methods("POST")
	api.HandleFunc("/sessions/{id}/obstacles", s.handleRemoveObstacles).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/obstacles", s.handleReplaceObstacles).Methods("PUT")
	api.HandleFunc("/sessions/{id}/diagonal", s.handleSetDiagonal).Methods("PUT")
	api.HandleFunc("/sessions/{id}/clear", s.handleClear).Methods("POST")

	// Search
	api.HandleFunc("/sessions/{id}/evaluate", s.handleEvaluate).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Configuration (schema must be registered before {name})
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/schema", s.handleConfigSchema).Methods("GET")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to HTTP status codes
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrOutOfBounds),
		errors.Is(err, engine.ErrInvalidConfig),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, session.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotReady),
		errors.Is(err, session.ErrSessionAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, engine.ErrBudgetExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) broadcastState(sessionID string, state *service.MazeState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastState(sessionID, state)
	}
}

// Request bodies

type pointsRequest struct {
	Points []engine.Point `json:"points"`
}

type diagonalRequest struct {
	Enabled *bool `json:"enabled"`
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info("Session created", "session", info.ID, "config", info.ConfigName)
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Maze Handlers

func (s *Server) handleGetMazeState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetMazeState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSetStart(w http.ResponseWriter, r *http.Request) {
	s.handleSetEndpoint(w, r, s.service.SetStart)
}

func (s *Server) handleSetEnd(w http.ResponseWriter, r *http.Request) {
	s.handleSetEndpoint(w, r, s.service.SetEnd)
}

func (s *Server) handleSetEndpoint(w http.ResponseWriter, r *http.Request,
	set func(ctx context.Context, sessionID string, p engine.Point) (*service.MazeState, error)) {
	sessionID := mux.Vars(r)["id"]

	var p engine.Point
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := set(r.Context(), sessionID, p)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, state)
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleClearStart(w http.ResponseWriter, r *http.Request) {
	s.handleStateChange(w, r, s.service.ClearStart)
}

func (s *Server) handleClearEnd(w http.ResponseWriter, r *http.Request) {
	s.handleStateChange(w, r, s.service.ClearEnd)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.handleStateChange(w, r, s.service.Clear)
}

func (s *Server) handleStateChange(w http.ResponseWriter, r *http.Request,
	change func(ctx context.Context, sessionID string) (*service.MazeState, error)) {
	sessionID := mux.Vars(r)["id"]

	state, err := change(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, state)
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleAddObstacles(w http.ResponseWriter, r *http.Request) {
	s.handleObstacleEdit(w, r, s.service.AddObstacles)
}

func (s *Server) handleRemoveObstacles(w http.ResponseWriter, r *http.Request) {
	s.handleObstacleEdit(w, r, s.service.RemoveObstacles)
}

func (s *Server) handleObstacleEdit(w http.ResponseWriter, r *http.Request,
	edit func(ctx context.Context, sessionID string, points []engine.Point) (*service.ObstacleEditResult, error)) {
	sessionID := mux.Vars(r)["id"]

	var req pointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Points) == 0 {
		respondError(w, http.StatusBadRequest, "At least one point is required")
		return
	}

	result, err := edit(r.Context(), sessionID, req.Points)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.Changed > 0 {
		s.broadcastState(sessionID, result.State)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReplaceObstacles(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req pointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.ReplaceObstacles(r.Context(), sessionID, req.Points)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, state)
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSetDiagonal(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req diagonalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		respondError(w, http.StatusBadRequest, "Request body must contain \"enabled\"")
		return
	}

	state, err := s.service.SetDiagonal(r.Context(), sessionID, *req.Enabled)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastState(sessionID, state)
	respondJSON(w, http.StatusOK, state)
}

// Search Handlers

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	result, err := s.service.Evaluate(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		event := service.MazeEvent{
			Type:      websocket.EventNoPath,
			Message:   result.Message,
			Timestamp: result.Record.At,
		}
		if result.Found {
			event.Type = websocket.EventPathFound
			event.Path = result.Path
			event.Cost = result.Cost
		}
		s.hub.BroadcastEvent(sessionID, event.Type, event)
	}

	log.Info("Evaluated", "session", sessionID, "found", result.Found, "length", result.Length,
		"cost", result.Cost, "expanded", result.Expanded, "ms", result.DurationMs)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := mux.Vars(r)["name"]

	for _, ext := range []string{".json", ".yaml", ".yml"} {
		configName = strings.TrimSuffix(configName, ext)
	}

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg engine.MazeConfig

	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if cfg.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), cfg.Name, &cfg); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": cfg.Name,
	})
}

func (s *Server) handleConfigSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, jsonschema.Reflect(&engine.MazeConfig{}))
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}
	if s.hub == nil {
		http.Error(w, "websocket updates disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
