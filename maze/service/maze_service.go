package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
)

// MazeService defines all maze-related operations
type MazeService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Maze Editing
	SetStart(ctx context.Context, sessionID string, p engine.Point) (*MazeState, error)
	SetEnd(ctx context.Context, sessionID string, p engine.Point) (*MazeState, error)
	ClearStart(ctx context.Context, sessionID string) (*MazeState, error)
	ClearEnd(ctx context.Context, sessionID string) (*MazeState, error)
	AddObstacles(ctx context.Context, sessionID string, points []engine.Point) (*ObstacleEditResult, error)
	RemoveObstacles(ctx context.Context, sessionID string, points []engine.Point) (*ObstacleEditResult, error)
	ReplaceObstacles(ctx context.Context, sessionID string, points []engine.Point) (*MazeState, error)
	SetDiagonal(ctx context.Context, sessionID string, enabled bool) (*MazeState, error)
	Clear(ctx context.Context, sessionID string) (*MazeState, error)

	// Search
	Evaluate(ctx context.Context, sessionID string) (*EvaluationResult, error)

	// Maze State
	GetMazeState(ctx context.Context, sessionID string) (*MazeState, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.MazeConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.MazeConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.MazeConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.MazeConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles maze configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.MazeConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.MazeConfig
	SaveConfig(name string, config *engine.MazeConfig) error
}

// Session represents an active maze session
type Session struct {
	ID             string
	Engine         *engine.PathGenerator
	Config         *engine.MazeConfig
	History        *EvaluationLog
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
