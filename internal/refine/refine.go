// Package refine folds the interview answers into a refined idea statement
// and produces the closing texts of a briefing.
package refine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/ai"
	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/parse"
	"github.com/berth-dev/briefing/prompts"
)

// MaxImprovements caps the suggestions returned by Improvements.
const MaxImprovements = 5

// DefaultScore is used for every complexity score the model omits.
const DefaultScore = 3

// ComplexityReport rates an idea on four 1-5 scales.
type ComplexityReport struct {
	Technical   int      `json:"technical_complexity"`
	Resources   int      `json:"required_resources"`
	Time        int      `json:"implementation_time"`
	Knowledge   int      `json:"required_knowledge"`
	Overall     string   `json:"overall_complexity"`
	Description string   `json:"complexity_description"`
	Challenges  []string `json:"main_challenges"`
	Approach    string   `json:"recommended_approach"`
}

// Refiner writes idea statements and reports.
type Refiner struct {
	caller *ai.Caller
	logger *zap.Logger
}

// New returns a Refiner.
func New(caller *ai.Caller, logger *zap.Logger) *Refiner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refiner{caller: caller, logger: logger}
}

// RefineIdea writes a refined version of idea from the answers and their
// comments. An empty reply leaves the idea unchanged.
func (r *Refiner) RefineIdea(ctx context.Context, idea string, answers []model.Answer) (string, error) {
	var commented []model.Answer
	for _, a := range answers {
		if strings.TrimSpace(a.Comment) != "" {
			commented = append(commented, a)
		}
	}
	text, err := r.caller.Text(ctx, prompts.Refine, prompts.RoleRefinement, prompts.Data{
		Idea:     idea,
		Answers:  answers,
		Comments: commented,
	}, r.caller.Sampling().Refined)
	if err != nil {
		return "", err
	}
	return r.orDefault(ctx, string(prompts.Refine), text, idea), nil
}

// ApplyFeedback revises current according to the user's verdict. A correct
// verdict, or one it does not know, returns current without a call.
func (r *Refiner) ApplyFeedback(ctx context.Context, idea, current, feedback, comments string) (string, error) {
	var name prompts.Name
	switch feedback {
	case model.FeedbackCorrect:
		return current, nil
	case model.FeedbackMostlyCorrect:
		name = prompts.FeedbackMostlyCorrect
	case model.FeedbackMostlyIncorrect:
		name = prompts.FeedbackMostlyIncorrect
	default:
		r.logger.Warn("unknown feedback type, keeping refined idea", zap.String("feedback", feedback))
		return current, nil
	}
	text, err := r.caller.Text(ctx, name, prompts.RoleRefinement, prompts.Data{
		Idea:        idea,
		RefinedIdea: current,
		Feedback:    comments,
	}, r.caller.Sampling().Refined)
	if err != nil {
		return "", err
	}
	return r.orDefault(ctx, string(name), text, current), nil
}

// FinalReport writes the closing report of a completed briefing.
func (r *Refiner) FinalReport(ctx context.Context, idea, refined string, iterations int) (string, error) {
	text, err := r.caller.Text(ctx, prompts.FinalReport, prompts.RoleFinal, prompts.Data{
		Idea:        idea,
		RefinedIdea: refined,
		Iterations:  iterations,
	}, r.caller.Sampling().Final)
	if err != nil {
		return "", err
	}
	return r.orDefault(ctx, string(prompts.FinalReport), text, refined), nil
}

// Complexity rates idea. A malformed reply yields the default estimate.
func (r *Refiner) Complexity(ctx context.Context, idea string) (*ComplexityReport, error) {
	obj, err := r.caller.Object(ctx, prompts.Complexity, prompts.RoleMain,
		prompts.Data{Idea: idea}, r.caller.Sampling().Refined)
	if err != nil {
		if !errors.Is(err, parse.ErrMalformed) {
			return nil, err
		}
		r.caller.Fallback(ctx, string(prompts.Complexity), err)
		return r.DefaultComplexity(), nil
	}
	d := r.DefaultComplexity()
	challenges := ai.Strings(obj, "main_challenges")
	if len(challenges) == 0 {
		challenges = d.Challenges
	}
	return &ComplexityReport{
		Technical:   score(obj, "technical_complexity"),
		Resources:   score(obj, "required_resources"),
		Time:        score(obj, "implementation_time"),
		Knowledge:   score(obj, "required_knowledge"),
		Overall:     ai.String(obj, "overall_complexity", d.Overall),
		Description: ai.String(obj, "complexity_description", d.Description),
		Challenges:  challenges,
		Approach:    ai.String(obj, "recommended_approach", d.Approach),
	}, nil
}

// DefaultComplexity is the estimate used when analysis fails.
func (r *Refiner) DefaultComplexity() *ComplexityReport {
	d := r.caller.Preset().DefaultComplexity
	return &ComplexityReport{
		Technical:   DefaultScore,
		Resources:   DefaultScore,
		Time:        DefaultScore,
		Knowledge:   DefaultScore,
		Overall:     d.Overall,
		Description: d.Description,
		Challenges:  append([]string(nil), d.Challenges...),
		Approach:    d.Approach,
	}
}

func score(obj map[string]any, key string) int {
	n := ai.Int(obj, key, DefaultScore)
	if n < 1 || n > 5 {
		return DefaultScore
	}
	return n
}

// Improvements suggests up to MaxImprovements additions to refined.
func (r *Refiner) Improvements(ctx context.Context, refined string) ([]string, error) {
	text, err := r.caller.Text(ctx, prompts.Improvements, prompts.RoleMain,
		prompts.Data{RefinedIdea: refined}, r.caller.Sampling().Refined)
	if err != nil {
		return nil, err
	}
	items := parse.ExtractList(text)
	if len(items) > MaxImprovements {
		items = items[:MaxImprovements]
	}
	return items, nil
}

// DelegatedAnswer answers question on the user's behalf. The profile, when
// present, tells the model the user's level.
func (r *Refiner) DelegatedAnswer(ctx context.Context, idea, question string, profile *model.CompetencyProfile) (string, error) {
	p := r.caller.Preset()
	data := prompts.Data{Idea: idea, Question: question}
	if profile != nil {
		data.Level = p.LevelLabel(profile.OverallLevel)
	}
	text, err := r.caller.Text(ctx, prompts.DelegatedAnswer, prompts.RoleMain, data, r.caller.Sampling().Delegate)
	if err != nil {
		return "", err
	}
	return r.orDefault(ctx, string(prompts.DelegatedAnswer), text, p.DelegatedFallback), nil
}

func (r *Refiner) orDefault(ctx context.Context, component, text, def string) string {
	if t := strings.TrimSpace(text); t != "" {
		return t
	}
	r.caller.Fallback(ctx, component, errors.New("empty reply"))
	return def
}
