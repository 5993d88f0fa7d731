package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/snake-api/game/engine"
)

// persistedSnapshot is the on-disk envelope written by FileStore.
type persistedSnapshot struct {
	ID        string           `json:"id"`
	SavedAt   time.Time        `json:"saved_at"`
	ExpiresAt time.Time        `json:"expires_at"`
	Snapshot  *engine.Snapshot `json:"snapshot"`
}

// FileStore implements SnapshotStore with one JSON file per session.
type FileStore struct {
	sessionsDir string
	now         func() time.Time
}

// NewFileStore creates a file-backed snapshot store rooted at sessionsDir
func NewFileStore(sessionsDir string) (*FileStore, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FileStore{
		sessionsDir: sessionsDir,
		now:         time.Now,
	}, nil
}

// Put writes the snapshot atomically through a temp file and rename
func (fs *FileStore) Put(_ context.Context, id string, snap *engine.Snapshot, ttl time.Duration) error {
	if snap == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	now := fs.now()
	data := persistedSnapshot{
		ID:        id,
		SavedAt:   now,
		ExpiresAt: now.Add(ttl),
		Snapshot:  snap,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(fs.sessionsDir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(jsonData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.getFilePath(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	return nil
}

// Get reads a snapshot; expired files are removed and reported as missing
func (fs *FileStore) Get(_ context.Context, id string) (*engine.Snapshot, error) {
	filePath := fs.getFilePath(id)

	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var data persistedSnapshot
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot file: %w", err)
	}
	if data.Snapshot == nil {
		return nil, fmt.Errorf("snapshot file %s has no snapshot", filePath)
	}

	if !data.ExpiresAt.IsZero() && !fs.now().Before(data.ExpiresAt) {
		os.Remove(filePath)
		return nil, ErrSnapshotNotFound
	}

	return data.Snapshot, nil
}

// Delete removes a snapshot file
func (fs *FileStore) Delete(_ context.Context, id string) error {
	if err := os.Remove(fs.getFilePath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrSnapshotNotFound
		}
		return fmt.Errorf("failed to remove snapshot file: %w", err)
	}
	return nil
}

// ListAll returns the IDs of all stored snapshots, expired or not
func (fs *FileStore) ListAll(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(fs.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	sort.Strings(sessionIDs)
	return sessionIDs, nil
}

func (fs *FileStore) getFilePath(id string) string {
	return filepath.Join(fs.sessionsDir, id+".json")
}
