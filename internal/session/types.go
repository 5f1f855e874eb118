// Package session persists briefing sessions. Each session is one JSON
// document; backends differ only in where the document lives.
package session

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/config"
	"github.com/berth-dev/briefing/internal/model"
)

// ErrNotFound is returned for sessions that are absent or cannot be parsed.
var ErrNotFound = errors.New("session not found")

// Store is the persistence contract the orchestrator relies on.
type Store interface {
	// Save writes s, replacing any previous version, and stamps UpdatedAt.
	Save(s *model.SessionData) error
	// Load returns the session or ErrNotFound.
	Load(id string) (*model.SessionData, error)
	// Delete removes the session or returns ErrNotFound.
	Delete(id string) error
	// List returns every readable session, newest first by CreatedAt.
	List() ([]model.Summary, error)
	Close() error
}

// Open returns the Store selected by cfg. Relative paths resolve against root.
func Open(cfg config.StoreConfig, root string, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(config.ResolvePath(root, cfg.Dir), logger)
	case config.BackendSQLite:
		return NewSQLiteStore(config.ResolvePath(root, cfg.SQLitePath), logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewID returns a fresh session id.
func NewID() string { return uuid.NewString() }

// validID guards file names and keys against anything but a UUID.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Stats summarizes the progress of one session.
type Stats struct {
	SessionID                string        `json:"session_id"`
	Status                   model.Status  `json:"status"`
	CurrentStep              model.Step    `json:"current_step"`
	IterationCount           int           `json:"iteration_count"`
	QuestionsCount           int           `json:"questions_count"`
	CompetencyQuestionsCount int           `json:"competency_questions_count"`
	AnswersCount             int           `json:"answers_count"`
	AskedCount               int           `json:"asked_count"`
	ValidationsCount         int           `json:"validations_count"`
	CreatedAt                time.Time     `json:"created_at"`
	UpdatedAt                time.Time     `json:"updated_at"`
	Duration                 time.Duration `json:"duration"`
}

// StatsOf computes Stats for s.
func StatsOf(s *model.SessionData) Stats {
	return Stats{
		SessionID:                s.SessionID,
		Status:                   s.Status,
		CurrentStep:              s.CurrentStep,
		IterationCount:           s.IterationCount,
		QuestionsCount:           len(s.ClarifyingQuestions),
		CompetencyQuestionsCount: len(s.CompetencyQuestions),
		AnswersCount:             len(s.Answers),
		AskedCount:               len(s.AllAskedQuestions),
		ValidationsCount:         len(s.ValidationHistory),
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                s.UpdatedAt,
		Duration:                 s.UpdatedAt.Sub(s.CreatedAt),
	}
}

func sortNewestFirst(out []model.Summary) {
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
