package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/wricardo/rail-logistics-game/game/service"
)

// DefaultQueryTimeout bounds every GormPersistence query
const DefaultQueryTimeout = 5 * time.Second

// sessionRow is one row of rail_sessions
type sessionRow struct {
	ID             string    `gorm:"primaryKey;size:32"`
	ConfigName     string    `gorm:"size:128;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	LastAccessedAt time.Time `gorm:"not null;index"`
	Snapshot       []byte    `gorm:"type:bytea;not null"`
}

func (sessionRow) TableName() string { return "rail_sessions" }

// GormPersistence stores session snapshots in Postgres
type GormPersistence struct {
	db            *gorm.DB
	configManager service.ConfigManager
	timeout       time.Duration
}

// OpenPostgres opens a gorm connection that only logs warnings and errors
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// NewGormPersistence migrates the rail_sessions table and returns a store backed by db
func NewGormPersistence(db *gorm.DB, configManager service.ConfigManager) (*GormPersistence, error) {
	if err := db.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("migrate rail_sessions: %w", err)
	}
	return &GormPersistence{
		db:            db,
		configManager: configManager,
		timeout:       DefaultQueryTimeout,
	}, nil
}

func (p *GormPersistence) query() (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	return p.db.WithContext(ctx), cancel
}

// Save upserts the session snapshot
func (p *GormPersistence) Save(session *service.Session) error {
	data, err := newPersistedData(session, p.configManager)
	if err != nil {
		return err
	}
	snapshot, err := json.Marshal(data.Snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	row := sessionRow{
		ID:             data.ID,
		ConfigName:     data.ConfigName,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
		Snapshot:       snapshot,
	}

	db, cancel := p.query()
	defer cancel()
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"config_name", "last_accessed_at", "snapshot"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save session %s: %w", data.ID, err)
	}
	return nil
}

// Load fetches and restores a session
func (p *GormPersistence) Load(id string) (*service.Session, error) {
	if !validSessionID(id) {
		return nil, ErrSessionNotFound
	}

	db, cancel := p.query()
	defer cancel()

	var row sessionRow
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	data := PersistedSessionData{
		ID:             row.ID,
		ConfigName:     row.ConfigName,
		CreatedAt:      row.CreatedAt,
		LastAccessedAt: row.LastAccessedAt,
	}
	if err := json.Unmarshal(row.Snapshot, &data.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return data.restore(p.configManager)
}

// Delete removes a session row
func (p *GormPersistence) Delete(id string) error {
	db, cancel := p.query()
	defer cancel()

	res := db.Where("id = ?", id).Delete(&sessionRow{})
	if res.Error != nil {
		return fmt.Errorf("delete session %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all stored session IDs, sorted
func (p *GormPersistence) ListAll() ([]string, error) {
	db, cancel := p.query()
	defer cancel()

	ids := []string{}
	if err := db.Model(&sessionRow{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// Exists checks whether a row is stored for id
func (p *GormPersistence) Exists(id string) bool {
	if !validSessionID(id) {
		return false
	}
	db, cancel := p.query()
	defer cancel()

	var count int64
	if err := db.Model(&sessionRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}
