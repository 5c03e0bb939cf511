package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/rail-logistics-game/game/service"
)

// snapshotExt names session snapshot files; other files in the directory are ignored
const snapshotExt = ".json"

// FilePersistence keeps one JSON snapshot per session in a directory
type FilePersistence struct {
	dir     string
	configs service.ConfigManager
}

// NewFilePersistence creates dir if needed and stores snapshots there
func NewFilePersistence(dir string, configs service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &FilePersistence{dir: dir, configs: configs}, nil
}

// Save snapshots the session. The file is written to a temp name and renamed
// so a crash never leaves a half-written snapshot behind.
func (fp *FilePersistence) Save(session *service.Session) error {
	record, err := newPersistedData(session, fp.configs)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", session.ID, err)
	}

	target := fp.path(session.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", session.ID, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write snapshot %s: %w", session.ID, err)
	}
	return nil
}

// Load restores a session from its snapshot file
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	if !validSessionID(id) {
		return nil, ErrSessionNotFound
	}

	encoded, err := os.ReadFile(fp.path(id))
	if os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	var record PersistedSessionData
	if err := json.Unmarshal(encoded, &record); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return record.restore(fp.configs)
}

// Delete removes a snapshot file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}
	if err := os.Remove(fp.path(id)); err != nil {
		return fmt.Errorf("remove snapshot %s: %w", id, err)
	}
	return nil
}

// ListAll returns the stored session IDs in sorted order
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		id, ok := strings.CutSuffix(entry.Name(), snapshotExt)
		if entry.IsDir() || !ok || !validSessionID(id) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists reports whether a snapshot file is present
func (fp *FilePersistence) Exists(id string) bool {
	if !validSessionID(id) {
		return false
	}
	_, err := os.Stat(fp.path(id))
	return err == nil
}

func (fp *FilePersistence) path(id string) string {
	return filepath.Join(fp.dir, id+snapshotExt)
}
