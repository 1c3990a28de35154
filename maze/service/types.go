package service

import (
	"time"

	"github.com/wricardo/mcp-training/astarmaze/maze/engine"
)

// SessionInfo provides information about a maze session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	State          *MazeState         `json:"state"`
	MazeConfig     *engine.MazeConfig `json:"maze_config"`
}

// MazeState is a snapshot of a session's editable maze
type MazeState struct {
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Diagonal    bool           `json:"diagonal"`
	Heuristic   string         `json:"heuristic"`
	Start       *engine.Point  `json:"start,omitempty"`
	End         *engine.Point  `json:"end,omitempty"`
	Obstacles   []engine.Point `json:"obstacles"`
	Ready       bool           `json:"ready"`
	Evaluations int            `json:"evaluations"`
}

// ObstacleEditResult reports a batch obstacle edit
type ObstacleEditResult struct {
	Requested int        `json:"requested"`
	Changed   int        `json:"changed"`
	State     *MazeState `json:"state"`
}

// EvaluationResult contains the outcome of one search
type EvaluationResult struct {
	Found      bool             `json:"found"`
	Path       []engine.Point   `json:"path"`  // target first
	Route      []engine.Point   `json:"route"` // source first
	Length     int              `json:"length"`
	Cost       int              `json:"cost"`
	Expanded   int              `json:"expanded"`
	DurationMs float64          `json:"duration_ms"`
	Message    string           `json:"message"`
	Record     EvaluationRecord `json:"record"`
	State      *MazeState       `json:"state"`
}

// EvaluationRecord is one entry in a session's evaluation history
type EvaluationRecord struct {
	ID       string        `json:"id"`
	Found    bool          `json:"found"`
	Length   int           `json:"length"`
	Cost     int           `json:"cost"`
	Expanded int           `json:"expanded"`
	Duration time.Duration `json:"duration"`
	Start    engine.Point  `json:"start"`
	End      engine.Point  `json:"end"`
	At       time.Time     `json:"at"`
}

// MazeEvent is pushed to websocket clients after an evaluation
type MazeEvent struct {
	Type      string         `json:"type"` // "path_found", "no_path"
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Path      []engine.Point `json:"path,omitempty"`
	Cost      int            `json:"cost,omitempty"`
}

// HistoryOptions configures evaluation history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated evaluation history
type HistoryResponse struct {
	Evaluations      []EvaluationRecord `json:"evaluations"`
	TotalEvaluations int                `json:"total_evaluations"`
	Page             int                `json:"page"`
	PageSize         int                `json:"page_size"`
	TotalPages       int                `json:"total_pages"`
	HasNext          bool               `json:"has_next"`
	HasPrevious      bool               `json:"has_previous"`
}

// ConfigInfo provides information about a maze configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Diagonal    bool   `json:"diagonal"`
	Heuristic   string `json:"heuristic,omitempty"`
}
