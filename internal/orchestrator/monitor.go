package orchestrator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/model"
)

// ErrStageLoop is returned when a session keeps re-entering a stage it
// never completes.
var ErrStageLoop = errors.New("stage loop detected")

// StageStats describes one session's history on one stage.
type StageStats struct {
	Attempts  int           `json:"attempts"`
	TimeSpent time.Duration `json:"time_spent"`
	Completed bool          `json:"completed"`
}

type stageState struct {
	attempts  int
	first     time.Time
	last      time.Time
	opened    time.Time
	running   bool
	completed bool
}

// Monitor guards against sessions cycling through a stage. A re-entry
// sooner than MinReentry after the previous one counts as an attempt; Enter
// refuses once MaxAttempts is reached or the stage has been running longer
// than MaxStageTime. A stage runs from Enter until Complete or Abort, so a
// failed run leaves nothing open and a later retry is judged on its own.
// Completing a stage lets the next entry start afresh.
type Monitor struct {
	mu           sync.Mutex
	MaxAttempts  int
	MaxStageTime time.Duration
	MinReentry   time.Duration

	now      func() time.Time
	logger   *zap.Logger
	sessions map[string]map[model.Step]*stageState
}

// NewMonitor creates a monitor. Zero limits take the defaults 3, 10m and 1s.
func NewMonitor(maxAttempts int, maxStageTime, minReentry time.Duration, logger *zap.Logger) *Monitor {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if maxStageTime <= 0 {
		maxStageTime = 10 * time.Minute
	}
	if minReentry <= 0 {
		minReentry = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		MaxAttempts:  maxAttempts,
		MaxStageTime: maxStageTime,
		MinReentry:   minReentry,
		now:          time.Now,
		logger:       logger,
		sessions:     map[string]map[model.Step]*stageState{},
	}
}

// Enter records an entry into stage and returns ErrStageLoop when the
// session should not proceed.
func (m *Monitor) Enter(id string, stage model.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	stages := m.sessions[id]
	if stages == nil {
		stages = map[model.Step]*stageState{}
		m.sessions[id] = stages
	}
	st := stages[stage]
	if st == nil || st.completed {
		stages[stage] = &stageState{first: now, last: now, opened: now, running: true}
		return nil
	}

	if st.running {
		if open := now.Sub(st.opened); open > m.MaxStageTime {
			m.logger.Warn("stage running too long",
				zap.String("session", id), zap.String("stage", string(stage)), zap.Duration("open", open))
			return fmt.Errorf("session %s on %s for %s: %w", id, stage, open.Round(time.Second), ErrStageLoop)
		}
	}
	if st.attempts >= m.MaxAttempts {
		m.logger.Warn("stage attempt limit reached",
			zap.String("session", id), zap.String("stage", string(stage)), zap.Int("attempts", st.attempts))
		return fmt.Errorf("session %s re-entered %s %d times: %w", id, stage, st.attempts, ErrStageLoop)
	}
	if now.Sub(st.last) < m.MinReentry {
		st.attempts++
		m.logger.Warn("rapid stage re-entry",
			zap.String("session", id), zap.String("stage", string(stage)), zap.Int("attempt", st.attempts))
	}
	st.last = now
	if !st.running {
		st.running = true
		st.opened = now
	}
	return nil
}

// Complete marks stage done for the session.
func (m *Monitor) Complete(id string, stage model.Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st := m.sessions[id][stage]; st != nil {
		st.completed = true
		st.running = false
	}
}

// Abort ends the current run of stage without completing it. Attempts are
// kept, so rapid failing retries are still caught.
func (m *Monitor) Abort(id string, stage model.Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st := m.sessions[id][stage]; st != nil && !st.completed {
		st.running = false
	}
}

// IsCompleted reports whether stage was completed since it was last entered.
func (m *Monitor) IsCompleted(id string, stage model.Step) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.sessions[id][stage]
	return st != nil && st.completed
}

// Reset forgets the session's history on stage.
func (m *Monitor) Reset(id string, stage model.Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions[id], stage)
}

// Forget drops everything known about the session.
func (m *Monitor) Forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Stats returns per-stage statistics for the session.
func (m *Monitor) Stats(id string) map[model.Step]StageStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	out := make(map[model.Step]StageStats, len(m.sessions[id]))
	for stage, st := range m.sessions[id] {
		out[stage] = StageStats{
			Attempts:  st.attempts,
			TimeSpent: now.Sub(st.first),
			Completed: st.completed,
		}
	}
	return out
}

// Cleanup drops sessions whose earliest stage entry is older than maxAge and
// returns how many were dropped.
func (m *Monitor) Cleanup(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, stages := range m.sessions {
		var earliest time.Time
		for _, st := range stages {
			if earliest.IsZero() || st.first.Before(earliest) {
				earliest = st.first
			}
		}
		if earliest.IsZero() || now.Sub(earliest) > maxAge {
			delete(m.sessions, id)
			n++
			m.logger.Debug("dropped stage history", zap.String("session", id))
		}
	}
	return n
}
