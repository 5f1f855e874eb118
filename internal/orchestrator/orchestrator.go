// Package orchestrator drives a briefing session through its steps. Every
// operation takes the session's guard, loads the document, mutates it and
// saves it; AI sub-results are saved as soon as they arrive.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/ai"
	"github.com/berth-dev/briefing/internal/competency"
	"github.com/berth-dev/briefing/internal/config"
	"github.com/berth-dev/briefing/internal/dedup"
	"github.com/berth-dev/briefing/internal/lang"
	"github.com/berth-dev/briefing/internal/llm"
	"github.com/berth-dev/briefing/internal/log"
	"github.com/berth-dev/briefing/internal/metrics"
	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/questions"
	"github.com/berth-dev/briefing/internal/refine"
	"github.com/berth-dev/briefing/internal/session"
	"github.com/berth-dev/briefing/internal/validate"
)

// Services are the collaborators an Orchestrator does not build itself.
type Services struct {
	Store   session.Store
	Events  log.Recorder
	Logger  *zap.Logger
	Metrics *metrics.Collector
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Orchestrator owns the session state machine.
type Orchestrator struct {
	store      session.Store
	events     log.Recorder
	logger     *zap.Logger
	metrics    *metrics.Collector
	now        func() time.Time
	preset     lang.Preset
	caller     *ai.Caller
	competency *competency.Analyzer
	questions  *questions.Generator
	refiner    *refine.Refiner
	monitor    *Monitor
	guard      *guard
}

// New wires the interview components for cfg around gen.
func New(cfg *config.Config, gen llm.Generator, svc Services) (*Orchestrator, error) {
	if svc.Store == nil {
		return nil, errors.New("orchestrator: no session store")
	}
	preset, err := lang.Lookup(cfg.Language)
	if err != nil {
		return nil, err
	}
	v, err := validate.New(preset)
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}
	logger := svc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d, err := dedup.New(cfg.Dedup.Threshold, cfg.Dedup.CacheSize, logger.Named("dedup"))
	if err != nil {
		return nil, fmt.Errorf("build deduplicator: %w", err)
	}
	events := svc.Events
	if events == nil {
		events = log.Discard
	}
	now := svc.Clock
	if now == nil {
		now = time.Now
	}

	caller := ai.NewCaller(gen, preset, samplingFrom(cfg.Generation), logger.Named("ai"), svc.Metrics)
	qopts := questions.DefaultOptions()
	qopts.Target = cfg.Generation.QuestionsCount
	if cfg.Generation.BackfillHistory > 0 {
		qopts.History = cfg.Generation.BackfillHistory
	}
	if cfg.Generation.AdaptiveHistory > 0 {
		qopts.AdaptiveHistory = cfg.Generation.AdaptiveHistory
	}

	mon := NewMonitor(cfg.Monitor.MaxAttempts,
		time.Duration(cfg.Monitor.MaxStageSeconds)*time.Second,
		time.Duration(cfg.Monitor.MinReentryMs)*time.Millisecond,
		logger.Named("monitor"))
	mon.now = now

	return &Orchestrator{
		store:      svc.Store,
		events:     events,
		logger:     logger,
		metrics:    svc.Metrics,
		now:        now,
		preset:     preset,
		caller:     caller,
		competency: competency.New(caller, v, cfg.Generation.CompetencyQuestionsCount, logger.Named("competency")),
		questions:  questions.New(caller, v, d, qopts, logger.Named("questions")),
		refiner:    refine.New(caller, logger.Named("refine")),
		monitor:    mon,
		guard:      newGuard(),
	}, nil
}

func samplingFrom(g config.GenerationConfig) ai.Sampling {
	s := ai.DefaultSampling()
	if g.MaxTokensQuestions > 0 {
		s.Questions = ai.Params{MaxTokens: g.MaxTokensQuestions, Temperature: g.TemperatureQuestions}
	}
	if g.MaxTokensRefined > 0 {
		s.Refined = ai.Params{MaxTokens: g.MaxTokensRefined, Temperature: g.TemperatureRefined}
	}
	if g.MaxTokensFinal > 0 {
		s.Final = ai.Params{MaxTokens: g.MaxTokensFinal, Temperature: g.TemperatureFinal}
	}
	if g.DelegateMaxTokens > 0 {
		s.Delegate = ai.Params{MaxTokens: g.DelegateMaxTokens, Temperature: g.DelegateTemperature}
	}
	return s
}

// Preset returns the interview language.
func (o *Orchestrator) Preset() lang.Preset { return o.preset }

// Monitor returns the stage monitor.
func (o *Orchestrator) Monitor() *Monitor { return o.monitor }

// CreateSession starts a new session at input_idea.
func (o *Orchestrator) CreateSession(ctx context.Context) (*model.SessionData, error) {
	s := model.NewSessionData(session.NewID(), o.now())
	s.Language = o.preset.Code
	if err := o.store.Save(s); err != nil {
		return nil, fmt.Errorf("save new session: %w", err)
	}
	o.emit(log.LogEvent{Event: log.EventSessionCreated, SessionID: s.SessionID, Step: string(s.CurrentStep)})
	o.logger.Info("session created", zap.String("session", s.SessionID))
	return s, nil
}

// LoadSession returns the stored session.
func (o *Orchestrator) LoadSession(id string) (*model.SessionData, error) {
	return o.store.Load(id)
}

// SaveSession stores s as is.
func (o *Orchestrator) SaveSession(s *model.SessionData) error {
	release, err := o.guard.acquire(s.SessionID)
	if err != nil {
		return err
	}
	defer release()
	return o.store.Save(s)
}

// ListSessions returns summaries, newest first.
func (o *Orchestrator) ListSessions() ([]model.Summary, error) {
	return o.store.List()
}

// DeleteSession removes the session and its stage history.
func (o *Orchestrator) DeleteSession(id string) error {
	release, err := o.guard.acquire(id)
	if err != nil {
		return err
	}
	defer release()
	if err := o.store.Delete(id); err != nil {
		return err
	}
	o.monitor.Forget(id)
	o.emit(log.LogEvent{Event: log.EventSessionDeleted, SessionID: id})
	return nil
}

// Stats combines the stored counters with the monitor's stage history.
type Stats struct {
	session.Stats
	Stages map[model.Step]StageStats `json:"stages,omitempty"`
}

// Stats returns statistics for the session.
func (o *Orchestrator) Stats(id string) (*Stats, error) {
	s, err := o.store.Load(id)
	if err != nil {
		return nil, err
	}
	return &Stats{Stats: session.StatsOf(s), Stages: o.monitor.Stats(id)}, nil
}

// ResetStage clears the monitor's history so a refused stage can be retried.
func (o *Orchestrator) ResetStage(id string, step model.Step) {
	o.monitor.Reset(id, step)
}

// do runs fn on the loaded session under the session guard. fn persists its
// own progress through checkpoint; do saves once more when fn succeeds.
func (o *Orchestrator) do(ctx context.Context, id string, fn func(ctx context.Context, s *model.SessionData, notes *ai.Notes) error) (*model.SessionData, error) {
	release, err := o.guard.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()
	defer o.metrics.OperationStarted()()

	s, err := o.store.Load(id)
	if err != nil {
		return nil, err
	}

	ctx, notes := ai.WithNotes(ctx)
	if err := fn(ctx, s, notes); err != nil {
		o.record(s, notes, false)
		return nil, err
	}
	if err := o.checkpoint(s, notes); err != nil {
		return nil, err
	}
	return s, nil
}

// checkpoint records pending notes on s and saves it.
func (o *Orchestrator) checkpoint(s *model.SessionData, notes *ai.Notes) error {
	o.record(s, notes, true)
	if err := o.store.Save(s); err != nil {
		return fmt.Errorf("save session %s: %w", s.SessionID, err)
	}
	return nil
}

// record drains notes into the event log and, when onSession is set, into
// the session's validation history.
func (o *Orchestrator) record(s *model.SessionData, notes *ai.Notes, onSession bool) {
	now := o.now()
	for _, n := range notes.Drain() {
		ev := log.LogEvent{SessionID: s.SessionID, Step: string(s.CurrentStep), Component: n.Component}
		switch n.Kind {
		case ai.NoteFallback:
			ev.Event = log.EventFallbackUsed
			ev.Error = n.Detail
			if onSession {
				s.AddEvent(model.ValidationEvent{Kind: model.EventFallback, Component: n.Component, Detail: n.Detail}, now)
			}
		case ai.NoteRejected:
			ev.Event = log.EventQuestionRejected
			ev.Component = "validator"
			ev.Question = n.Question
			ev.Reason = n.Detail
			if onSession {
				s.AddEvent(model.ValidationEvent{
					Kind:      model.EventRejected,
					Component: ev.Component,
					Detail:    n.Question + ": " + n.Detail,
				}, now)
			}
		case ai.NoteDropped:
			ev.Event = log.EventDuplicateDropped
			ev.Question = n.Question
			ev.Count = n.Count
		case ai.NoteBackfill:
			ev.Event = log.EventBackfillRequested
			ev.Count = n.Count
		default:
			continue
		}
		o.emit(ev)
	}
}

func (o *Orchestrator) emit(ev log.LogEvent) {
	if ev.Time.IsZero() {
		ev.Time = o.now()
	}
	if err := o.events.Append(ev); err != nil {
		o.logger.Warn("event log append failed", zap.String("event", ev.Event), zap.Error(err))
	}
}

// advance moves s along the graph.
func (o *Orchestrator) advance(s *model.SessionData, to model.Step) error {
	from := s.CurrentStep
	if !CanTransition(from, to) {
		return fmt.Errorf("session %s: %s -> %s: %w", s.SessionID, from, to, ErrIllegalTransition)
	}
	s.CurrentStep = to
	o.metrics.Transition(string(from), string(to))
	o.emit(log.LogEvent{Event: log.EventStageEntered, SessionID: s.SessionID, Step: string(to), From: string(from)})
	o.logger.Debug("step", zap.String("session", s.SessionID), zap.String("from", string(from)), zap.String("to", string(to)))
	return nil
}

// stageRun is one monitored run of an AI stage. close must be deferred;
// it aborts the run unless complete was called.
type stageRun struct {
	o     *Orchestrator
	id    string
	stage model.Step
	start time.Time
	done  bool
}

// enter registers an AI-running stage with the monitor.
func (o *Orchestrator) enter(s *model.SessionData, stage model.Step) (*stageRun, error) {
	if err := o.monitor.Enter(s.SessionID, stage); err != nil {
		return nil, err
	}
	return &stageRun{o: o, id: s.SessionID, stage: stage, start: o.now()}, nil
}

func (r *stageRun) complete() {
	r.done = true
	r.o.monitor.Complete(r.id, r.stage)
	r.o.emit(log.LogEvent{
		Event:      log.EventStageCompleted,
		SessionID:  r.id,
		Step:       string(r.stage),
		DurationMs: r.o.now().Sub(r.start).Milliseconds(),
	})
}

func (r *stageRun) close() {
	if !r.done {
		r.o.monitor.Abort(r.id, r.stage)
	}
}

// resolveAnswers copies answers for known questions into the given maps,
// asking the model for answers the user delegated.
func (o *Orchestrator) resolveAnswers(ctx context.Context, s *model.SessionData, known []model.Question,
	in []model.Answer, answers, comments map[string]string) error {
	asked := make(map[string]bool, len(known))
	for _, q := range known {
		asked[q.Text] = true
	}
	n := 0
	for _, a := range in {
		q := strings.TrimSpace(a.Question)
		if !asked[q] {
			o.logger.Warn("answer to unknown question ignored", zap.String("session", s.SessionID), zap.String("question", q))
			continue
		}
		text := strings.TrimSpace(a.Answer)
		if text == "" {
			continue
		}
		if text == o.preset.Answers.DelegateToAI {
			resolved, err := o.refiner.DelegatedAnswer(ctx, s.UserIdea, q, s.CompetencyProfile)
			if err != nil {
				return fmt.Errorf("delegated answer: %w", err)
			}
			text = resolved
		}
		answers[q] = text
		if c := strings.TrimSpace(a.Comment); c != "" {
			comments[q] = c
		}
		n++
	}
	if n == 0 {
		return ErrNoAnswers
	}
	return nil
}
