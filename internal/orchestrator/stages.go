package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/ai"
	"github.com/berth-dev/briefing/internal/log"
	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/refine"
)

// MinIdeaLength is the shortest idea, in characters, a session accepts.
const MinIdeaLength = 10

var (
	ErrIdeaTooShort    = fmt.Errorf("idea must be at least %d characters", MinIdeaLength)
	ErrNoAnswers       = errors.New("no answers given")
	ErrNoQuestions     = errors.New("no questions could be generated")
	ErrUnknownFeedback = errors.New("unknown feedback type")
)

// SubmitIdea stores the user's idea and moves to competency analysis.
func (o *Orchestrator) SubmitIdea(ctx context.Context, id, idea string) (*model.SessionData, error) {
	idea = strings.TrimSpace(idea)
	if len([]rune(idea)) < MinIdeaLength {
		return nil, ErrIdeaTooShort
	}
	return o.do(ctx, id, func(ctx context.Context, s *model.SessionData, _ *ai.Notes) error {
		if err := requireStep(s, "SubmitIdea", model.StepInputIdea); err != nil {
			return err
		}
		s.UserIdea = idea
		s.OriginalUserIdea = idea
		s.CompetencyStage = model.StageStart
		return o.advance(s, model.StepCompetencyAnalysis)
	})
}

// RunCompetencyAnalysis runs domain analysis, context questions, required
// competencies and assessment questions, saving after each.
func (o *Orchestrator) RunCompetencyAnalysis(ctx context.Context, id string) (*model.SessionData, error) {
	return o.do(ctx, id, func(ctx context.Context, s *model.SessionData, notes *ai.Notes) error {
		if err := requireStep(s, "RunCompetencyAnalysis", model.StepCompetencyAnalysis); err != nil {
			return err
		}
		run, err := o.enter(s, model.StepCompetencyAnalysis)
		if err != nil {
			return err
		}
		defer run.close()

		if s.DomainAnalysis == nil {
			da, err := o.competency.DomainAnalysis(ctx, s.UserIdea)
			if err != nil {
				return fmt.Errorf("domain analysis: %w", err)
			}
			s.DomainAnalysis = da
			if err := o.checkpoint(s, notes); err != nil {
				return err
			}
		}

		if len(s.ContextQuestions) == 0 {
			cq, err := o.competency.ContextQuestions(ctx, s.UserIdea)
			if err != nil {
				return fmt.Errorf("context questions: %w", err)
			}
			s.ContextQuestions = cq
			if err := o.checkpoint(s, notes); err != nil {
				return err
			}
		}

		if s.RequiredCompetencies == nil {
			req, err := o.competency.RequiredCompetencies(ctx, s.UserIdea, s.ContextQuestions)
			if err != nil {
				return fmt.Errorf("required competencies: %w", err)
			}
			if req == nil {
				req = o.competency.DefaultRequired(s.DomainAnalysis.PrimaryDomain)
			}
			s.RequiredCompetencies = req
			if err := o.checkpoint(s, notes); err != nil {
				return err
			}
		}

		qs, err := o.competency.AssessmentQuestions(ctx, s.UserIdea, s.RequiredCompetencies)
		if err != nil {
			return fmt.Errorf("assessment questions: %w", err)
		}
		s.CompetencyQuestions = qs
		s.RecordAsked(qs...)
		s.CompetencyStage = model.StageAssessment
		if err := o.advance(s, model.StepAnswerCompetencyQuestions); err != nil {
			return err
		}
		run.complete()
		return nil
	})
}

// SubmitCompetencyAnswers records the assessment answers. Answers equal to
// the "delegate to AI" value are replaced by a generated answer.
func (o *Orchestrator) SubmitCompetencyAnswers(ctx context.Context, id string, answers []model.Answer) (*model.SessionData, error) {
	return o.do(ctx, id, func(ctx context.Context, s *model.SessionData, _ *ai.Notes) error {
		if err := requireStep(s, "SubmitCompetencyAnswers", model.StepAnswerCompetencyQuestions); err != nil {
			return err
		}
		got, comments := map[string]string{}, map[string]string{}
		if err := o.resolveAnswers(ctx, s, s.CompetencyQuestions, answers, got, comments); err != nil {
			return err
		}
		s.CompetencyAnswers = got
		s.CompetencyComments = comments
		return o.advance(s, model.StepGenerateQuestions)
	})
}

// GenerateQuestions builds the competency profile, unless this iteration
// already has one, and generates the adaptive question set.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, id string) (*model.SessionData, error) {
	return o.do(ctx, id, func(ctx context.Context, s *model.SessionData, notes *ai.Notes) error {
		if err := requireStep(s, "GenerateQuestions", model.StepGenerateQuestions); err != nil {
			return err
		}
		run, err := o.enter(s, model.StepGenerateQuestions)
		if err != nil {
			return err
		}
		defer run.close()

		if s.CompetencyStage != model.StageProfileBuilt || s.CompetencyProfile == nil {
			answers := model.OrderedAnswers(model.Texts(s.CompetencyQuestions), s.CompetencyAnswers, s.CompetencyComments)
			profile, err := o.competency.BuildProfile(ctx, s.UserIdea, answers, s.RequiredCompetencies)
			if err != nil {
				return fmt.Errorf("competency profile: %w", err)
			}
			s.CompetencyProfile = profile
			s.CompetencyStage = model.StageProfileBuilt
			if err := o.checkpoint(s, notes); err != nil {
				return err
			}
		}

		existing := append([]string(nil), s.AllAskedQuestions...)
		qs, err := o.questions.GenerateAdaptive(ctx, s.UserIdea, s.CompetencyProfile, s.ContextQuestions, existing)
		if err != nil {
			return fmt.Errorf("adaptive questions: %w", err)
		}
		if len(qs) == 0 {
			return ErrNoQuestions
		}
		s.ClarifyingQuestions = qs
		s.RecordAsked(qs...)
		s.CompetencyStage = model.StageMain
		if err := o.advance(s, model.StepAnswerMainQuestions); err != nil {
			return err
		}
		run.complete()
		return nil
	})
}

// SubmitMainAnswers records the answers to the clarifying questions.
func (o *Orchestrator) SubmitMainAnswers(ctx context.Context, id string, answers []model.Answer) (*model.SessionData, error) {
	return o.do(ctx, id, func(ctx context.Context, s *model.SessionData, _ *ai.Notes) error {
		if err := requireStep(s, "SubmitMainAnswers", model.StepAnswerMainQuestions); err != nil {
			return err
		}
		got, comments := map[string]string{}, map[string]string{}
		if err := o.resolveAnswers(ctx, s, s.ClarifyingQuestions, answers, got, comments); err != nil {
			return err
		}
		s.MainAnswers = got
		s.MainComments = comments
		s.Reformulations = nil
		return o.advance(s, model.StepReformulateQuestions)
	})
}

// UnclearItems returns the main answers that ask for a reformulation, in
// question order.
func (o *Orchestrator) UnclearItems(s *model.SessionData) []model.UnclearItem {
	var items []model.UnclearItem
	for _, q := range s.ClarifyingQuestions {
		a, ok := s.MainAnswers[q.Text]
		if !ok || !o.preset.IsUnclear(a) {
			continue
		}
		items = append(items, model.UnclearItem{Question: q.Text, Answer: a, Comment: s.MainComments[q.Text]})
	}
	return items
}

// ReformulateUnclear restates the questions answered with "don't know" or
// "no preference". The session stays on reformulate_questions.
func (o *Orchestrator) ReformulateUnclear(ctx context.Context, id string) (*model.SessionData, error) {
	return o.do(ctx, id, func(ctx context.Context, s *model.SessionData, _ *ai.Notes) error {
		if err := requireStep(s, "ReformulateUnclear", model.StepReformulateQuestions); err != nil {
			return err
		}
		items := o.UnclearItems(s)
		if len(items) == 0 {
			s.Reformulations = nil
			return nil
		}
		refs, err := o.questions.ReformulateUnclear(ctx, s.UserIdea, items, s.CompetencyProfile)
		if err != nil {
			return fmt.Errorf("reformulate: %w", err)
		}
		s.Reformulations = refs
		return nil
	})
}

// ProcessAnswers applies clarifications to the main answers, merges every
// answer given so far and writes the refined idea.
func (o *Orchestrator) ProcessAnswers(ctx context.Context, id string, clarifications []model.Answer) (*model.SessionData, error) {
	return o.do(ctx, id, func(ctx context.Context, s *model.SessionData, _ *ai.Notes) error {
		if err := requireStep(s, "ProcessAnswers", model.StepReformulateQuestions); err != nil {
			return err
		}
		run, err := o.enter(s, model.StepReformulateQuestions)
		if err != nil {
			return err
		}
		defer run.close()

		for _, c := range clarifications {
			q, a := strings.TrimSpace(c.Question), strings.TrimSpace(c.Answer)
			if _, ok := s.MainAnswers[q]; !ok || a == "" {
				continue
			}
			s.MainAnswers[q] = a
			if cm := strings.TrimSpace(c.Comment); cm != "" {
				if s.MainComments == nil {
					s.MainComments = map[string]string{}
				}
				s.MainComments[q] = cm
			}
		}

		s.Answers, s.Comments = mergeAnswers(s)
		answers := model.OrderedAnswers(s.AllAskedQuestions, s.Answers, s.Comments)
		refined, err := o.refiner.RefineIdea(ctx, s.UserIdea, answers)
		if err != nil {
			return fmt.Errorf("refine idea: %w", err)
		}
		s.RefinedIdea = refined
		if err := o.advance(s, model.StepGenerateRefined); err != nil {
			return err
		}
		run.complete()
		return nil
	})
}

// mergeAnswers collects answers and comments from earlier iterations, the
// competency assessment and the current main answers. Later sources win.
func mergeAnswers(s *model.SessionData) (map[string]string, map[string]string) {
	answers, comments := map[string]string{}, map[string]string{}
	for _, it := range s.AllIterations {
		for _, a := range it.Answers {
			answers[a.Question] = a.Answer
			if a.Comment != "" {
				comments[a.Question] = a.Comment
			}
		}
	}
	for _, src := range []struct{ a, c map[string]string }{
		{s.CompetencyAnswers, s.CompetencyComments},
		{s.MainAnswers, s.MainComments},
	} {
		for q, a := range src.a {
			answers[q] = a
		}
		for q, c := range src.c {
			comments[q] = c
		}
	}
	return answers, comments
}

// SubmitFeedback records the user's verdict on the refined idea. "correct"
// completes the session with a final report; the other verdicts rewrite the
// refined idea and return to generate_refined.
func (o *Orchestrator) SubmitFeedback(ctx context.Context, id, feedback, comments string) (*model.SessionData, error) {
	switch feedback {
	case model.FeedbackCorrect, model.FeedbackMostlyCorrect, model.FeedbackMostlyIncorrect:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeedback, feedback)
	}
	return o.do(ctx, id, func(ctx context.Context, s *model.SessionData, notes *ai.Notes) error {
		if err := requireStep(s, "SubmitFeedback", model.StepGenerateRefined, model.StepValidateIdea); err != nil {
			return err
		}
		if s.CurrentStep == model.StepGenerateRefined {
			s.AddEvent(model.ValidationEvent{
				Kind:         model.EventFeedback,
				FeedbackType: feedback,
				Comments:     comments,
			}, o.now())
			if err := o.advance(s, model.StepValidateIdea); err != nil {
				return err
			}
			if err := o.checkpoint(s, notes); err != nil {
				return err
			}
		}

		if feedback == model.FeedbackCorrect {
			report, err := o.refiner.FinalReport(ctx, s.UserIdea, s.RefinedIdea, s.IterationCount+1)
			if err != nil {
				return fmt.Errorf("final report: %w", err)
			}
			s.FinalResult = report
			s.Status = model.StatusCompleted
			if err := o.advance(s, model.StepCompleted); err != nil {
				return err
			}
			o.emit(log.LogEvent{Event: log.EventSessionCompleted, SessionID: s.SessionID, Iteration: s.IterationCount})
			o.logger.Info("session completed", zap.String("session", s.SessionID), zap.Int("iterations", s.IterationCount))
			return nil
		}

		refined, err := o.refiner.ApplyFeedback(ctx, s.UserIdea, s.RefinedIdea, feedback, comments)
		if err != nil {
			return fmt.Errorf("apply feedback: %w", err)
		}
		s.RefinedIdea = refined
		return o.advance(s, model.StepGenerateRefined)
	})
}

// Approve accepts the refined idea as is.
func (o *Orchestrator) Approve(ctx context.Context, id string) (*model.SessionData, error) {
	return o.SubmitFeedback(ctx, id, model.FeedbackCorrect, "")
}

// IterateAgain freezes the current round into AllIterations and starts a
// new round of questions with the existing profile.
func (o *Orchestrator) IterateAgain(ctx context.Context, id, comments string) (*model.SessionData, error) {
	return o.do(ctx, id, func(ctx context.Context, s *model.SessionData, _ *ai.Notes) error {
		if err := requireStep(s, "IterateAgain", model.StepGenerateRefined); err != nil {
			return err
		}
		now := o.now()
		answers := model.OrderedAnswers(model.Texts(s.ClarifyingQuestions), s.MainAnswers, s.MainComments)
		for i := range answers {
			answers[i].Timestamp = now
		}
		s.AllIterations = append(s.AllIterations, model.SessionIteration{
			Iteration:    s.IterationCount,
			Timestamp:    now,
			RefinedIdea:  s.RefinedIdea,
			FeedbackType: model.FeedbackIterateAgain,
			Comments:     comments,
			Questions:    append([]model.Question(nil), s.ClarifyingQuestions...),
			Answers:      answers,
		})
		s.AddEvent(model.ValidationEvent{Kind: model.EventFeedback, FeedbackType: model.FeedbackIterateAgain, Comments: comments}, now)
		s.IterationCount++

		s.MainAnswers = nil
		s.MainComments = nil
		s.ClarifyingQuestions = nil
		s.Reformulations = nil
		s.CompetencyStage = model.StageProfileBuilt

		if err := o.advance(s, model.StepGenerateQuestions); err != nil {
			return err
		}
		o.emit(log.LogEvent{Event: log.EventIterationStarted, SessionID: s.SessionID, Iteration: s.IterationCount})
		return nil
	})
}

// Insights is the complexity assessment and improvement list for an idea.
type Insights struct {
	Complexity   *refine.ComplexityReport `json:"complexity"`
	Improvements []string                 `json:"improvements"`
}

// Insights assesses the session's idea. It does not change the step.
func (o *Orchestrator) Insights(ctx context.Context, id string) (*Insights, error) {
	var out Insights
	_, err := o.do(ctx, id, func(ctx context.Context, s *model.SessionData, _ *ai.Notes) error {
		if s.UserIdea == "" {
			return fmt.Errorf("session %s has no idea yet: %w", s.SessionID, ErrIllegalTransition)
		}
		report, err := o.refiner.Complexity(ctx, s.UserIdea)
		if err != nil {
			return fmt.Errorf("complexity: %w", err)
		}
		target := s.RefinedIdea
		if target == "" {
			target = s.UserIdea
		}
		improvements, err := o.refiner.Improvements(ctx, target)
		if err != nil {
			return fmt.Errorf("improvements: %w", err)
		}
		out = Insights{Complexity: report, Improvements: improvements}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
