package session

import (
	"fmt"
	"time"

	"github.com/wricardo/rail-logistics-game/game/engine"
	"github.com/wricardo/rail-logistics-game/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. ConfigName holds the
// config ID (file name without extension), not the display name.
type PersistedSessionData struct {
	ID             string           `json:"id"`
	ConfigName     string           `json:"config_name"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Snapshot       *engine.Snapshot `json:"snapshot"`
}

// newPersistedData captures a session for storage
func newPersistedData(session *service.Session, configs service.ConfigManager) (*PersistedSessionData, error) {
	if session == nil || session.Engine == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if !validSessionID(session.ID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, session.ID)
	}

	configID, err := configIDFromName(configs, session.Config.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get config ID: %w", err)
	}

	return &PersistedSessionData{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Snapshot:       session.Engine.Snapshot(),
	}, nil
}

// restore rebuilds the session, reloading its configuration by ID
func (d *PersistedSessionData) restore(configs service.ConfigManager) (*service.Session, error) {
	gameConfig, err := configs.LoadConfig(d.ConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config '%s': %w", d.ConfigName, err)
	}

	eng, err := engine.RestoreEngine(gameConfig, d.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", d.ID, err)
	}

	return &service.Session{
		ID:             d.ID,
		Engine:         eng,
		Config:         gameConfig,
		CreatedAt:      d.CreatedAt,
		LastAccessedAt: d.LastAccessedAt,
	}, nil
}

// configIDFromName returns the config ID for a display name
func configIDFromName(configs service.ConfigManager, displayName string) (string, error) {
	list, err := configs.ListConfigs()
	if err != nil {
		return "", fmt.Errorf("failed to list configs: %w", err)
	}

	for _, config := range list {
		if config.Name == displayName {
			return config.ConfigID, nil
		}
	}

	// If not found, assume the displayName is already the config ID
	return displayName, nil
}

// validSessionID accepts 1 to 32 letters, digits, dashes and underscores
func validSessionID(id string) bool {
	if id == "" || len(id) > 32 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
