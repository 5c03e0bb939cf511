package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/rail-logistics-game/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRequest  = errors.New("invalid request")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	EvictIdleSessions(ctx context.Context, maxAge time.Duration) (int, error)

	// Building
	PlaceTrack(ctx context.Context, sessionID string, x, y int) (*BuildResult, error)
	PlaceStation(ctx context.Context, sessionID string, x, y int) (*BuildResult, error)
	Demolish(ctx context.Context, sessionID string, x, y int) (*BuildResult, error)

	// Trains and routes
	BuyTrain(ctx context.Context, sessionID string, req BuyTrainRequest) (*TrainResult, error)
	CreateRoute(ctx context.Context, sessionID string, req RouteRequest) (*engine.Route, error)
	DeleteRoute(ctx context.Context, sessionID, routeID string) error
	AssignRoute(ctx context.Context, sessionID, vehicleID, routeID string) error
	ListRoutes(ctx context.Context, sessionID string) ([]*engine.Route, error)

	// Simulation
	Tick(ctx context.Context, sessionID string, dt float64) (*TickResult, error)
	SetPaused(ctx context.Context, sessionID string, paused bool) (*engine.GameState, error)

	// Queries
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetTile(ctx context.Context, sessionID string, x, y int) (*TileInfo, error)
	PlanPath(ctx context.Context, sessionID string, from, to engine.Position) (*PathResult, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) (time.Time, error)
	Save(id string) error
	Evict(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
