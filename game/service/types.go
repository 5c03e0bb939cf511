package service

import (
	"time"

	"github.com/wricardo/rail-logistics-game/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// BuildResult is the outcome of a place or demolish request. A rejected build
// is not an error: Success is false and Message says why.
type BuildResult struct {
	Success bool         `json:"success"`
	Action  string       `json:"action"`
	X       int          `json:"x"`
	Y       int          `json:"y"`
	Cost    float64      `json:"cost,omitempty"`
	Refund  float64      `json:"refund,omitempty"`
	Balance float64      `json:"balance"`
	Tile    *engine.Tile `json:"tile,omitempty"`
	Message string       `json:"message"`
}

// BuyTrainRequest asks for a train at a station
type BuyTrainRequest struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Cargo   string `json:"cargo"`
	RouteID string `json:"route_id,omitempty"`
}

// TrainResult is the outcome of buying a train
type TrainResult struct {
	Vehicle *engine.Vehicle `json:"vehicle"`
	Balance float64         `json:"balance"`
	Message string          `json:"message"`
}

// RouteRequest describes a new route
type RouteRequest struct {
	Name  string            `json:"name"`
	Color string            `json:"color"`
	Stops []engine.Position `json:"stops"`
}

// TickResult summarises one simulation step
type TickResult struct {
	Deliveries []engine.Delivery `json:"deliveries"`
	Balance    float64           `json:"balance"`
	Day        int               `json:"day"`
	Elapsed    float64           `json:"elapsed"`
	Vehicles   int               `json:"vehicles"`
	Paused     bool              `json:"paused"`
}

// PathResult is a planned track route between two tiles
type PathResult struct {
	From      engine.Position   `json:"from"`
	To        engine.Position   `json:"to"`
	Path      []engine.Position `json:"path"`
	Found     bool              `json:"found"`
	Cost      int               `json:"cost"`
	BuildCost float64           `json:"build_cost"`
}

// TileInfo describes a single tile for inspection
type TileInfo struct {
	Tile       engine.Tile        `json:"tile"`
	Directions []engine.Direction `json:"directions"`
	Vehicles   []string           `json:"vehicles,omitempty"`
}

// GameEvent represents an event pushed to watchers
type GameEvent struct {
	Type      string          `json:"type"` // "track", "station", "demolish", "train", "reset"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Level       int    `json:"level"`
}
