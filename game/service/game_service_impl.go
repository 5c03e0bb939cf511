package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/rail-logistics-game/game/engine"
)

// MaxTickSeconds bounds a single manual tick so a client can't fast-forward days at once
const MaxTickSeconds = 60.0

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
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

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string, lastAccessed time.Time) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: lastAccessed,
		GameState:      sess.Engine.GetState().Clone(),
		GameConfig:     sess.Config,
	}
}

// session looks up and touches a session; callers hold s.mu
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, _, err := s.touch(sessionID)
	return sess, err
}

// touch looks up a session and returns the access time it was stamped with.
// Readers under s.mu.RLock touch concurrently, so they must use the returned
// time rather than read sess.LastAccessedAt.
func (s *gameServiceImpl) touch(sessionID string) (*Session, time.Time, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	accessed, err := s.sessions.UpdateLastAccessed(sessionID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	return sess, accessed, nil
}

// persist saves a session after a mutation; failures are logged, not returned
func (s *gameServiceImpl) persist(sessionID, action string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after %s: %v", sessionID, action, err)
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: config '%s' not found. Available configs: %v", ErrInvalidRequest, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: config '%s' not found. Use /api/configs to list available configurations", ErrInvalidRequest, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Printf("[SESSION] created %s config=%s seed=%d", sess.ID, config.Name, sess.Engine.GetState().World.Seed())

	return s.sessionInfo(sess, configName, sess.LastAccessedAt), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, accessed, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess, "", accessed), nil
}

// ListSessions returns all active sessions. It takes the write lock because
// it reads access times that concurrent readers stamp.
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, "", sess.LastAccessedAt))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.sessions.Get(sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}
	return s.sessions.Delete(sessionID)
}

// EvictIdleSessions saves and unloads sessions not accessed within maxAge.
// It holds the write lock so no tick can run between save and unload.
func (s *gameServiceImpl) EvictIdleSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	evicted := 0
	var errs []error
	for _, sess := range s.sessions.List() {
		if sess.LastAccessedAt.After(cutoff) {
			continue
		}
		if err := s.sessions.Evict(sess.ID); err != nil {
			errs = append(errs, fmt.Errorf("evict %s: %w", sess.ID, err))
			continue
		}
		log.Printf("[SESSION] evicted idle session %s", sess.ID)
		evicted++
	}
	return evicted, errors.Join(errs...)
}

// Reset regenerates a session's world from its config
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Reset()
	s.persist(sessionID, "reset")
	return state.Clone(), nil
}

// PlaceTrack lays a rail tile
func (s *gameServiceImpl) PlaceTrack(ctx context.Context, sessionID string, x, y int) (*BuildResult, error) {
	return s.build(sessionID, "track", x, y, func(e *engine.GameEngine) bool { return e.PlaceTrack(x, y) })
}

// PlaceStation builds a station
func (s *gameServiceImpl) PlaceStation(ctx context.Context, sessionID string, x, y int) (*BuildResult, error) {
	return s.build(sessionID, "station", x, y, func(e *engine.GameEngine) bool { return e.PlaceStation(x, y) })
}

// Demolish clears a tile
func (s *gameServiceImpl) Demolish(ctx context.Context, sessionID string, x, y int) (*BuildResult, error) {
	return s.build(sessionID, "demolish", x, y, func(e *engine.GameEngine) bool { return e.Demolish(x, y) })
}

func (s *gameServiceImpl) build(sessionID, action string, x, y int, op func(e *engine.GameEngine) bool) (*BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	before := sess.Engine.Balance()
	ok := op(sess.Engine)
	after := sess.Engine.Balance()
	log.Printf("[BUILD] session=%s %s (%d,%d) ok=%t balance=%.2f", sessionID, action, x, y, ok, after)

	result := &BuildResult{
		Success: ok,
		Action:  action,
		X:       x,
		Y:       y,
		Balance: after,
		Message: sess.Engine.GetState().Message,
	}
	if delta := after - before; delta < 0 {
		result.Cost = -delta
	} else if delta > 0 {
		result.Refund = delta
	}
	if tile, found := sess.Engine.GetState().World.TileAt(x, y); found {
		result.Tile = &tile
	}

	if ok {
		s.persist(sessionID, action)
	}
	return result, nil
}

// BuyTrain buys and dispatches a train from a station
func (s *gameServiceImpl) BuyTrain(ctx context.Context, sessionID string, req BuyTrainRequest) (*TrainResult, error) {
	cargo, err := engine.ParseCargoType(strings.ToUpper(req.Cargo))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	v, err := sess.Engine.BuyTrain(engine.Position{X: req.X, Y: req.Y}, cargo, req.RouteID)
	if err != nil {
		return nil, err
	}
	log.Printf("[TRAIN] session=%s %s from (%d,%d) cargo=%s qty=%d", sessionID, v.ID, req.X, req.Y, cargo, v.Quantity)
	s.persist(sessionID, "buy_train")

	vc := *v
	return &TrainResult{
		Vehicle: &vc,
		Balance: sess.Engine.Balance(),
		Message: sess.Engine.GetState().Message,
	}, nil
}

// CreateRoute registers a route on a session
func (s *gameServiceImpl) CreateRoute(ctx context.Context, sessionID string, req RouteRequest) (*engine.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	route, err := sess.Engine.CreateRoute(req.Name, req.Color, req.Stops)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	s.persist(sessionID, "create_route")
	return route.Clone(), nil
}

// DeleteRoute removes a route
func (s *gameServiceImpl) DeleteRoute(ctx context.Context, sessionID, routeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	if err := sess.Engine.DeleteRoute(routeID); err != nil {
		return err
	}
	s.persist(sessionID, "delete_route")
	return nil
}

// AssignRoute points a train at a route, or clears it when routeID is empty
func (s *gameServiceImpl) AssignRoute(ctx context.Context, sessionID, vehicleID, routeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	if err := sess.Engine.AssignRoute(vehicleID, routeID); err != nil {
		return err
	}
	s.persist(sessionID, "assign_route")
	return nil
}

// ListRoutes returns the routes of a session
func (s *gameServiceImpl) ListRoutes(ctx context.Context, sessionID string) ([]*engine.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	routes := make([]*engine.Route, 0, len(sess.Engine.GetState().Routes))
	for _, r := range sess.Engine.GetState().Routes {
		routes = append(routes, r.Clone())
	}
	return routes, nil
}

// Tick advances a session by dt seconds
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, dt float64) (*TickResult, error) {
	if dt <= 0 || dt > MaxTickSeconds {
		return nil, fmt.Errorf("%w: dt must be in (0, %.0f], got %v", ErrInvalidRequest, MaxTickSeconds, dt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionNotFound, err)
	}

	deliveries := sess.Engine.Tick(dt)
	state := sess.Engine.GetState()
	for _, d := range deliveries {
		log.Printf("[DELIVERY] session=%s %s x%d (%d,%d)->(%d,%d) revenue=%.2f", sessionID, d.Cargo, d.Quantity, d.From.X, d.From.Y, d.To.X, d.To.Y, d.Revenue)
	}
	if deliveries == nil {
		deliveries = []engine.Delivery{}
	}

	return &TickResult{
		Deliveries: deliveries,
		Balance:    state.Wallet.Balance,
		Day:        state.Clock.Day,
		Elapsed:    state.Clock.Elapsed,
		Vehicles:   len(state.Vehicles),
		Paused:     state.Paused,
	}, nil
}

// SetPaused pauses or resumes a session
func (s *gameServiceImpl) SetPaused(ctx context.Context, sessionID string, paused bool) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.SetPaused(paused)
	s.persist(sessionID, "pause")
	return sess.Engine.GetState().Clone(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState().Clone(), nil
}

// GetTile describes one tile and the trains standing on it
func (s *gameServiceImpl) GetTile(ctx context.Context, sessionID string, x, y int) (*TileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	tile, ok := state.World.TileAt(x, y)
	if !ok {
		return nil, fmt.Errorf("%w: tile (%d,%d) is out of bounds", ErrInvalidRequest, x, y)
	}

	info := &TileInfo{
		Tile:       tile,
		Directions: engine.Connectivity(tile.Connectivity).Directions(),
	}
	for _, v := range state.Vehicles {
		if v.X == x && v.Y == y {
			info.Vehicles = append(info.Vehicles, v.ID)
		}
	}
	return info, nil
}

// PlanPath previews the cheapest track route and what it would cost to build
func (s *gameServiceImpl) PlanPath(ctx context.Context, sessionID string, from, to engine.Position) (*PathResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	world := sess.Engine.GetState().World
	path := sess.Engine.PlanPath(from, to)
	result := &PathResult{
		From:  from,
		To:    to,
		Path:  path,
		Found: len(path) > 0,
		Cost:  engine.PathCost(world, path),
	}
	for _, p := range path {
		if world.TrackAt(p.X, p.Y) == engine.NoTrack {
			result.BuildCost += world.BuildCost(p.X, p.Y, engine.TrackCost)
		}
	}
	return result, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
