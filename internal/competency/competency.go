// Package competency assesses what an idea demands and what the user knows:
// domain analysis, context questions, the required skill vector, assessment
// questions and the synthesized competency profile.
package competency

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/ai"
	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/parse"
	"github.com/berth-dev/briefing/internal/validate"
	"github.com/berth-dev/briefing/prompts"
)

// DefaultQuestionsCount is the number of assessment questions requested.
const DefaultQuestionsCount = 5

// Analyzer runs the competency stages against a text generator.
type Analyzer struct {
	caller    *ai.Caller
	validator *validate.Validator
	count     int
	logger    *zap.Logger
}

// New returns an Analyzer asking for count assessment questions.
func New(caller *ai.Caller, v *validate.Validator, count int, logger *zap.Logger) *Analyzer {
	if count <= 0 {
		count = DefaultQuestionsCount
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{caller: caller, validator: v, count: count, logger: logger}
}

// DomainAnalysis classifies idea against the domain taxonomy. A malformed
// reply yields the general domain.
func (a *Analyzer) DomainAnalysis(ctx context.Context, idea string) (*model.DomainAnalysis, error) {
	p := a.caller.Preset()
	obj, err := a.caller.Object(ctx, prompts.DomainAnalysis, prompts.RoleCompetency,
		prompts.Data{Idea: idea}, a.caller.Sampling().Questions)
	if err != nil {
		if !errors.Is(err, parse.ErrMalformed) {
			return nil, err
		}
		a.caller.Fallback(ctx, string(prompts.DomainAnalysis), err)
		return &model.DomainAnalysis{
			PrimaryDomain:    p.GeneralDomain,
			SecondaryDomains: []string{},
			ComplexityLevel:  p.DefaultComplexity.Overall,
		}, nil
	}

	da := &model.DomainAnalysis{
		PrimaryDomain:                ai.String(obj, "primary_domain", p.GeneralDomain),
		SecondaryDomains:             ai.Strings(obj, "secondary_domains"),
		ComplexityLevel:              ai.String(obj, "complexity_level", p.DefaultComplexity.Overall),
		RequiresTechnicalKnowledge:   ai.Bool(obj, "requires_technical_knowledge", false),
		RequiresSpecializedKnowledge: ai.Bool(obj, "requires_specialized_knowledge", false),
		DomainDescription:            ai.String(obj, "domain_description", ""),
	}
	a.logger.Debug("domain analysed", zap.String("domain", da.PrimaryDomain))
	return da, nil
}

// ContextQuestions returns 8-10 open clarifying questions used only for
// competency reasoning. They are never validated as closed-form.
func (a *Analyzer) ContextQuestions(ctx context.Context, idea string) ([]string, error) {
	text, err := a.caller.Text(ctx, prompts.ContextQuestions, prompts.RoleQuestions,
		prompts.Data{Idea: idea}, a.caller.Sampling().Questions)
	if err != nil {
		return nil, err
	}
	qs := parse.ExtractNumbered(text)
	if len(qs) == 0 {
		a.caller.Fallback(ctx, string(prompts.ContextQuestions), errors.New("no numbered questions in reply"))
		return []string{}, nil
	}
	return qs, nil
}

// RequiredCompetencies derives the skill vector needed to answer the context
// questions. A malformed reply yields nil; callers substitute DefaultRequired.
func (a *Analyzer) RequiredCompetencies(ctx context.Context, idea string, contextQuestions []string) (*model.RequiredCompetencies, error) {
	obj, err := a.caller.Object(ctx, prompts.RequiredCompetencies, prompts.RoleCompetency,
		prompts.Data{Idea: idea, ContextQuestions: contextQuestions}, a.caller.Sampling().Questions)
	if err != nil {
		if errors.Is(err, parse.ErrMalformed) {
			a.logger.Warn("required competencies unavailable", zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	return &model.RequiredCompetencies{
		Domain:       ai.String(obj, "domain", a.caller.Preset().GeneralDomain),
		Competencies: ai.Strings(obj, "competencies"),
		Knowledge:    ai.Strings(obj, "knowledge"),
		Skills:       ai.Strings(obj, "skills"),
		Experience:   ai.Strings(obj, "experience"),
	}, nil
}

// DefaultRequired is the minimal skill vector for domain.
func (a *Analyzer) DefaultRequired(domain string) *model.RequiredCompetencies {
	d := a.caller.Preset().DefaultRequired
	if domain == "" {
		domain = a.caller.Preset().GeneralDomain
	}
	return &model.RequiredCompetencies{
		Domain:       domain,
		Competencies: append([]string(nil), d.Competencies...),
		Knowledge:    append([]string(nil), d.Knowledge...),
		Skills:       append([]string(nil), d.Skills...),
		Experience:   append([]string(nil), d.Experience...),
	}
}

// AssessmentQuestions generates closed-form questions probing the user's
// standing against req. Questions failing the validator are discarded; when
// none survive the generic fallback set is returned.
func (a *Analyzer) AssessmentQuestions(ctx context.Context, idea string, req *model.RequiredCompetencies) ([]model.Question, error) {
	if req == nil {
		req = a.DefaultRequired("")
	}
	arr, err := a.caller.Array(ctx, prompts.AssessmentQuestions, prompts.RoleCompetency,
		prompts.Data{Idea: idea, Required: req, Count: a.count}, a.caller.Sampling().Questions)
	if err != nil {
		if !errors.Is(err, parse.ErrMalformed) {
			return nil, err
		}
		a.caller.Fallback(ctx, string(prompts.AssessmentQuestions), err)
		return a.FallbackQuestions(req.Domain), nil
	}

	var out []model.Question
	for _, item := range arr {
		q, ok := ai.Question(item)
		if !ok {
			continue
		}
		if q.Weight == "" {
			q.Weight = "medium"
		}
		if reasons := a.validator.ExplainFailure(q.Text); len(reasons) > 0 {
			a.caller.Rejected(ctx, q.Text, a.validator.PrimaryReason(q.Text), reasons)
			continue
		}
		out = append(out, q)
		if len(out) == a.count {
			break
		}
	}
	if len(out) == 0 {
		a.caller.Fallback(ctx, string(prompts.AssessmentQuestions), errors.New("no valid assessment questions"))
		return a.FallbackQuestions(req.Domain), nil
	}
	return out, nil
}

// FallbackQuestions returns the three generic assessment questions for domain.
func (a *Analyzer) FallbackQuestions(domain string) []model.Question {
	var out []model.Question
	for _, f := range a.caller.Preset().FallbackCompetencyQuestions(domain) {
		out = append(out, model.Question{
			Text:        f.Template,
			Category:    f.Category,
			Weight:      f.Weight,
			Explanation: f.Explanation,
			Examples:    []string{},
		})
	}
	return out
}

// BuildProfile synthesizes the competency profile from the user's answers.
// A malformed reply yields DefaultProfile; an unknown level label yields basic.
func (a *Analyzer) BuildProfile(ctx context.Context, idea string, answers []model.Answer, req *model.RequiredCompetencies) (*model.CompetencyProfile, error) {
	if req == nil {
		req = a.DefaultRequired("")
	}
	obj, err := a.caller.Object(ctx, prompts.Profile, prompts.RoleCompetency,
		prompts.Data{Idea: idea, Answers: answers, Required: req}, a.caller.Sampling().Refined)
	if err != nil {
		if !errors.Is(err, parse.ErrMalformed) {
			return nil, err
		}
		a.caller.Fallback(ctx, string(prompts.Profile), err)
		return a.DefaultProfile(req.Domain), nil
	}

	p := a.caller.Preset()
	analysis := ai.Map(obj, "competency_analysis")
	strategy := ai.Map(obj, "question_strategy")
	rawLevel := ai.String(obj, "overall_level", "")
	level, known := model.LookupLevel(rawLevel)
	if !known {
		a.logger.Warn("unrecognised overall level, using basic", zap.String("label", rawLevel))
	}

	return &model.CompetencyProfile{
		Domain:               req.Domain,
		OverallLevel:         level,
		EducationLevel:       ai.String(analysis, "education_level", ""),
		PracticalExperience:  ai.String(analysis, "practical_experience", ""),
		TheoreticalKnowledge: ai.String(analysis, "theoretical_knowledge", ""),
		TechnicalSkills:      ai.String(analysis, "technical_skills", ""),
		Strengths:            ai.Strings(obj, "strengths"),
		Gaps:                 ai.Strings(obj, "gaps"),
		QuestionStrategy: model.QuestionStrategy{
			ComplexityLevel:   ai.String(strategy, "complexity_level", p.DefaultProfile.Complexity),
			TerminologyUsage:  ai.String(strategy, "terminology_usage", p.DefaultProfile.Terminology),
			ExplanationNeeded: ai.Bool(strategy, "explanation_needed", true),
			ExamplesNeeded:    ai.Bool(strategy, "examples_needed", true),
		},
		ProfileSummary: ai.String(obj, "profile_summary", ""),
	}, nil
}

// DefaultProfile is the profile used when synthesis fails: basic level,
// minimal experience, explanations and examples required.
func (a *Analyzer) DefaultProfile(domain string) *model.CompetencyProfile {
	d := a.caller.Preset().DefaultProfile
	if domain == "" {
		domain = a.caller.Preset().GeneralDomain
	}
	return &model.CompetencyProfile{
		Domain:               domain,
		OverallLevel:         model.LevelBasic,
		EducationLevel:       d.Education,
		PracticalExperience:  d.Practice,
		TheoreticalKnowledge: d.Theory,
		TechnicalSkills:      d.Technical,
		Strengths:            append([]string(nil), d.Strengths...),
		Gaps:                 append([]string(nil), d.Gaps...),
		QuestionStrategy: model.QuestionStrategy{
			ComplexityLevel:   d.Complexity,
			TerminologyUsage:  d.Terminology,
			ExplanationNeeded: true,
			ExamplesNeeded:    true,
		},
		ProfileSummary: d.Summary,
	}
}
