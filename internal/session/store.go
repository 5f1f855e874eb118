package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/model"
)

// SQLiteStore keeps one row per session holding the JSON document.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteStore opens the SQLite database at dbPath and creates tables if they don't exist.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		current_step TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS sessions_updated_at ON sessions(updated_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Save upserts the session document.
func (s *SQLiteStore) Save(data *model.SessionData) error {
	if !validID(data.SessionID) {
		return fmt.Errorf("invalid session id %q", data.SessionID)
	}
	data.UpdatedAt = s.now()
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO sessions (id, status, current_step, created_at, updated_at, data)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status = excluded.status,
		   current_step = excluded.current_step,
		   updated_at = excluded.updated_at,
		   data = excluded.data`,
		data.SessionID, string(data.Status), string(data.CurrentStep), data.CreatedAt, data.UpdatedAt, string(b),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

// Load retrieves a session by ID.
func (s *SQLiteStore) Load(id string) (*model.SessionData, error) {
	row := s.db.QueryRow(`SELECT data FROM sessions WHERE id = ?`, id)

	var doc string
	err := row.Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	var data model.SessionData
	if err := json.Unmarshal([]byte(doc), &data); err != nil {
		s.logger.Warn("unreadable session document", zap.String("session", id), zap.Error(err))
		return nil, ErrNotFound
	}
	return &data, nil
}

// Delete removes a session row.
func (s *SQLiteStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns summaries of every readable session.
func (s *SQLiteStore) List() ([]model.Summary, error) {
	rows, err := s.db.Query(`SELECT id, data FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.Summary
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var data model.SessionData
		if err := json.Unmarshal([]byte(doc), &data); err != nil {
			s.logger.Warn("skipping unreadable session", zap.String("session", id), zap.Error(err))
			continue
		}
		summaries = append(summaries, data.Summarize())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	sortNewestFirst(summaries)
	return summaries, nil
}
