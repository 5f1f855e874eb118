package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/model"
)

// FileStore keeps each session in <dir>/<id>.json.
type FileStore struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

// Dir returns the sessions directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the session atomically via a temp file and rename.
func (s *FileStore) Save(data *model.SessionData) error {
	if !validID(data.SessionID) {
		return fmt.Errorf("invalid session id %q", data.SessionID)
	}
	data.UpdatedAt = s.now()
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return writeAtomic(s.path(data.SessionID), b)
}

// Load reads a session. Unparsable documents are logged and reported as
// ErrNotFound.
func (s *FileStore) Load(id string) (*model.SessionData, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	b, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}
	var data model.SessionData
	if err := json.Unmarshal(b, &data); err != nil {
		s.logger.Warn("unreadable session document", zap.String("session", id), zap.Error(err))
		return nil, ErrNotFound
	}
	return &data, nil
}

// Delete removes the session file.
func (s *FileStore) Delete(id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// List loads every session in the directory, skipping unreadable ones.
func (s *FileStore) List() ([]model.Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}
	out := make([]model.Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := s.Load(strings.TrimSuffix(e.Name(), ".json"))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, data.Summarize())
	}
	sortNewestFirst(out)
	return out, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// writeAtomic replaces path with b so readers never see a partial document.
func writeAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
