package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inconshreveable/log15/v3"

	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
)

var log = log15.New("module", "service")

// mazeServiceImpl implements the MazeService interface
type mazeServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewMazeService creates a new maze service instance
func NewMazeService(sessions SessionManager, configs ConfigManager) MazeService {
	return &mazeServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *mazeServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new maze session
func (s *mazeServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.MazeConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found, available configs %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found, use /api/configs to list configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	log.Info("Session created", "session", session.ID, "config", configID,
		"width", config.Width, "height", config.Height, "diagonal", config.Diagonal)

	return s.sessionInfo(session, configID), nil
}

// GetSession retrieves session information
func (s *mazeServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *mazeServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *mazeServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	log.Info("Session deleted", "session", sessionID)
	return nil
}

// SetStart places the search source
func (s *mazeServiceImpl) SetStart(ctx context.Context, sessionID string, p engine.Point) (*MazeState, error) {
	return s.edit(sessionID, func(sess *Session) error {
		return sess.Engine.SetStartNode(p)
	})
}

// SetEnd places the search target
func (s *mazeServiceImpl) SetEnd(ctx context.Context, sessionID string, p engine.Point) (*MazeState, error) {
	return s.edit(sessionID, func(sess *Session) error {
		return sess.Engine.SetEndNode(p)
	})
}

// ClearStart unsets the search source
func (s *mazeServiceImpl) ClearStart(ctx context.Context, sessionID string) (*MazeState, error) {
	return s.edit(sessionID, func(sess *Session) error {
		sess.Engine.ClearStartNode()
		return nil
	})
}

// ClearEnd unsets the search target
func (s *mazeServiceImpl) ClearEnd(ctx context.Context, sessionID string) (*MazeState, error) {
	return s.edit(sessionID, func(sess *Session) error {
		sess.Engine.ClearEndNode()
		return nil
	})
}

// AddObstacles marks cells as blocked. The batch is rejected as a whole if
// any point is out of bounds.
func (s *mazeServiceImpl) AddObstacles(ctx context.Context, sessionID string, points []engine.Point) (*ObstacleEditResult, error) {
	changed := 0
	state, err := s.edit(sessionID, func(sess *Session) error {
		var err error
		changed, err = sess.Engine.AddCollisions(points)
		return err
	})
	if err != nil {
		return nil, err
	}
	obstacleEditsTotal.WithLabelValues("add").Add(float64(changed))
	return &ObstacleEditResult{Requested: len(points), Changed: changed, State: state}, nil
}

// RemoveObstacles unmarks cells
func (s *mazeServiceImpl) RemoveObstacles(ctx context.Context, sessionID string, points []engine.Point) (*ObstacleEditResult, error) {
	changed := 0
	state, err := s.edit(sessionID, func(sess *Session) error {
		var err error
		changed, err = sess.Engine.RemoveCollisions(points)
		return err
	})
	if err != nil {
		return nil, err
	}
	obstacleEditsTotal.WithLabelValues("remove").Add(float64(changed))
	return &ObstacleEditResult{Requested: len(points), Changed: changed, State: state}, nil
}

// ReplaceObstacles swaps the whole obstacle set
func (s *mazeServiceImpl) ReplaceObstacles(ctx context.Context, sessionID string, points []engine.Point) (*MazeState, error) {
	state, err := s.edit(sessionID, func(sess *Session) error {
		return sess.Engine.ReplaceObstacles(points)
	})
	if err != nil {
		return nil, err
	}
	obstacleEditsTotal.WithLabelValues("replace").Add(float64(len(state.Obstacles)))
	return state, nil
}

// SetDiagonal switches between 4- and 8-neighbour movement
func (s *mazeServiceImpl) SetDiagonal(ctx context.Context, sessionID string, enabled bool) (*MazeState, error) {
	return s.edit(sessionID, func(sess *Session) error {
		return sess.Engine.SetDiagonalMovement(enabled)
	})
}

// Clear removes endpoints and obstacles, keeping the configuration
func (s *mazeServiceImpl) Clear(ctx context.Context, sessionID string) (*MazeState, error) {
	removed := 0
	state, err := s.edit(sessionID, func(sess *Session) error {
		removed = len(sess.Engine.GetObstacles())
		sess.Engine.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	obstacleEditsTotal.WithLabelValues("clear").Add(float64(removed))
	return state, nil
}

// Evaluate runs a search on the session's maze and records the outcome
func (s *mazeServiceImpl) Evaluate(ctx context.Context, sessionID string) (*EvaluationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	start, _ := sess.Engine.GetStartNode()
	end, _ := sess.Engine.GetEndNode()

	began := time.Now()
	result, err := sess.Engine.FindPathContext(ctx)
	elapsed := time.Since(began)

	if err != nil {
		if errors.Is(err, engine.ErrNotReady) {
			evaluationsTotal.WithLabelValues(resultNotReady).Inc()
			return nil, err
		}
		evaluationsTotal.WithLabelValues(resultError).Inc()
		log.Warn("Evaluation failed", "session", sess.ID, "expanded", result.Expanded, "err", err)
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	outcome := resultNoPath
	if result.Found {
		outcome = resultFound
	}
	evaluationsTotal.WithLabelValues(outcome).Inc()
	evaluationDuration.Observe(elapsed.Seconds())
	expandedNodes.Observe(float64(result.Expanded))

	record := EvaluationRecord{
		ID:       uuid.NewString(),
		Found:    result.Found,
		Length:   result.Len(),
		Cost:     result.Cost,
		Expanded: result.Expanded,
		Duration: elapsed,
		Start:    start,
		End:      end,
		At:       began,
	}
	sess.History.Add(record)

	log.Debug("Evaluated", "session", sess.ID, "found", result.Found, "length", record.Length,
		"cost", record.Cost, "expanded", record.Expanded, "took", elapsed)

	path := result.Path
	if path == nil {
		path = []engine.Point{}
	}
	route := result.Route()
	if route == nil {
		route = []engine.Point{}
	}

	return &EvaluationResult{
		Found:      result.Found,
		Path:       path,
		Route:      route,
		Length:     record.Length,
		Cost:       result.Cost,
		Expanded:   result.Expanded,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
		Message:    evaluationMessage(record),
		Record:     record,
		State:      snapshot(sess),
	}, nil
}

// GetMazeState returns the current maze snapshot
func (s *mazeServiceImpl) GetMazeState(ctx context.Context, sessionID string) (*MazeState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return snapshot(sess), nil
}

// GetHistory returns paginated evaluation history
func (s *mazeServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.History.Records()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	var records []EvaluationRecord
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			records = append(records, history[i])
		}
	} else if start < total {
		records = history[start:end]
	}

	if records == nil {
		records = []EvaluationRecord{}
	}

	return &HistoryResponse{
		Evaluations:      records,
		TotalEvaluations: total,
		Page:             opts.Page,
		PageSize:         opts.Limit,
		TotalPages:       totalPages,
		HasNext:          opts.Page < totalPages,
		HasPrevious:      opts.Page > 1,
	}, nil
}

// ListConfigs returns available maze configurations
func (s *mazeServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific maze configuration
func (s *mazeServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.MazeConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a maze configuration to disk
func (s *mazeServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.MazeConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// session looks up a session and refreshes its access time
func (s *mazeServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// edit applies a mutation to a session's engine and returns the new state
func (s *mazeServiceImpl) edit(sessionID string, fn func(*Session) error) (*MazeState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return snapshot(sess), nil
}

func (s *mazeServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          snapshot(sess),
		MazeConfig:     sess.Config,
	}
}

// snapshot builds a MazeState from a session's engine
func snapshot(sess *Session) *MazeState {
	cfg := sess.Engine.GetConfig()
	state := &MazeState{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Diagonal:  cfg.Diagonal,
		Heuristic: string(cfg.Heuristic),
		Obstacles: sess.Engine.GetObstacles(),
		Ready:     sess.Engine.IsReadyToEvaluate(),
	}
	if p, ok := sess.Engine.GetStartNode(); ok {
		state.Start = &p
	}
	if p, ok := sess.Engine.GetEndNode(); ok {
		state.End = &p
	}
	if sess.History != nil {
		state.Evaluations = sess.History.Len()
	}
	return state
}

func evaluationMessage(rec EvaluationRecord) string {
	if rec.Found {
		return fmt.Sprintf("Path found from %v to %v: %d cells, cost %d, %d nodes expanded",
			rec.Start, rec.End, rec.Length, rec.Cost, rec.Expanded)
	}
	return fmt.Sprintf("No path from %v to %v after expanding %d nodes", rec.Start, rec.End, rec.Expanded)
}
