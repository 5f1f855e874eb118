// Package questions generates the closed-form questions shown to the user.
// Every batch goes through the same pipeline: generate, validate (with one
// regeneration per invalid question), deduplicate against everything already
// asked, then a single backfill round when the batch falls short.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/ai"
	"github.com/berth-dev/briefing/internal/dedup"
	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/parse"
	"github.com/berth-dev/briefing/internal/validate"
	"github.com/berth-dev/briefing/prompts"
)

// Options tunes batch sizes.
type Options struct {
	// Target is the number of questions per batch.
	Target int
	// History is how many recent questions the base and backfill prompts list.
	History int
	// AdaptiveHistory is how many recent questions the adaptive prompt lists.
	AdaptiveHistory int
	// FallbackKeep is how many base questions replace a failed adaptive batch.
	FallbackKeep int
}

// DefaultOptions returns the stock batch sizes.
func DefaultOptions() Options {
	return Options{Target: 7, History: 10, AdaptiveHistory: 15, FallbackKeep: 6}
}

// Generator produces validated, deduplicated question batches.
type Generator struct {
	caller    *ai.Caller
	validator *validate.Validator
	dedup     *dedup.Deduplicator
	opts      Options
	logger    *zap.Logger
}

// New returns a Generator. Zero option fields take their defaults.
func New(caller *ai.Caller, v *validate.Validator, d *dedup.Deduplicator, opts Options, logger *zap.Logger) *Generator {
	def := DefaultOptions()
	if opts.Target <= 0 {
		opts.Target = def.Target
	}
	if opts.History <= 0 {
		opts.History = def.History
	}
	if opts.AdaptiveHistory <= 0 {
		opts.AdaptiveHistory = def.AdaptiveHistory
	}
	if opts.FallbackKeep <= 0 {
		opts.FallbackKeep = def.FallbackKeep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{caller: caller, validator: v, dedup: d, opts: opts, logger: logger}
}

// GenerateBase produces Target closed-form questions for idea that do not
// repeat existing.
func (g *Generator) GenerateBase(ctx context.Context, idea string, existing []string) ([]model.Question, error) {
	text, err := g.caller.Text(ctx, prompts.BaseQuestions, prompts.RoleQuestions, prompts.Data{
		Idea:     idea,
		Count:    g.opts.Target,
		Existing: tail(existing, g.opts.History),
	}, g.caller.Sampling().Questions)
	if err != nil {
		return nil, err
	}

	var batch []model.Question
	for _, candidate := range parse.ExtractNumbered(text) {
		q, err := g.ensureClosed(ctx, idea, candidate)
		if err != nil {
			return nil, err
		}
		batch = append(batch, model.Question{Text: q, Examples: []string{}})
	}

	p := g.caller.Preset()
	return g.complete(ctx, idea, batch, existing, p.GeneralDomain, p.LevelLabel(model.LevelBasic))
}

// GenerateAdaptive produces Target questions whose wording follows the
// profile's strategy. When the reply cannot be parsed at all, base questions
// relabelled for the profile are returned instead.
func (g *Generator) GenerateAdaptive(ctx context.Context, idea string, profile *model.CompetencyProfile, contextQuestions, existing []string) ([]model.Question, error) {
	p := g.caller.Preset()
	if profile == nil {
		return nil, errors.New("adaptive questions need a competency profile")
	}
	level := p.LevelLabel(profile.OverallLevel)

	arr, err := g.caller.Array(ctx, prompts.AdaptiveQuestions, prompts.RoleQuestions, prompts.Data{
		Idea:             idea,
		Level:            level,
		Count:            g.opts.Target,
		Profile:          profile,
		ContextQuestions: contextQuestions,
		Existing:         tail(existing, g.opts.AdaptiveHistory),
	}, g.caller.Sampling().Questions)
	if err != nil {
		if !errors.Is(err, parse.ErrMalformed) {
			return nil, err
		}
		g.caller.Fallback(ctx, string(prompts.AdaptiveQuestions), err)
		return g.adaptiveFallback(ctx, idea, profile, existing)
	}

	var batch []model.Question
	for _, item := range arr {
		q, ok := ai.Question(item)
		if !ok {
			continue
		}
		if q.AdaptedFor == "" {
			q.AdaptedFor = fmt.Sprintf(p.Notes.Level, level)
		}
		if !g.validator.IsClosedForm(q.Text) {
			fixed, err := g.ensureClosed(ctx, idea, q.Text)
			if err != nil {
				return nil, err
			}
			q.Text = fixed
			q.AdaptedFor = fmt.Sprintf(p.Notes.Corrected, level)
		}
		batch = append(batch, q)
	}
	return g.complete(ctx, idea, batch, existing, profile.Domain, level)
}

func (g *Generator) adaptiveFallback(ctx context.Context, idea string, profile *model.CompetencyProfile, existing []string) ([]model.Question, error) {
	p := g.caller.Preset()
	base, err := g.GenerateBase(ctx, idea, existing)
	if err != nil {
		return nil, err
	}
	if len(base) > g.opts.FallbackKeep {
		base = base[:g.opts.FallbackKeep]
	}
	level := p.LevelLabel(profile.OverallLevel)
	out := make([]model.Question, 0, len(base))
	for _, q := range base {
		q.Explanation = ""
		q.Examples = []string{}
		if profile.QuestionStrategy.ExplanationNeeded {
			q.Explanation = p.Notes.FallbackExplanation
		}
		if profile.QuestionStrategy.ExamplesNeeded {
			q.Examples = []string{p.Notes.FallbackExample}
		}
		q.AdaptedFor = fmt.Sprintf(p.Notes.Fallback, level)
		out = append(out, q)
	}
	return out, nil
}

// complete deduplicates batch against existing, backfills any shortfall once
// and trims the result to Target.
func (g *Generator) complete(ctx context.Context, idea string, batch []model.Question, existing []string, domain, level string) ([]model.Question, error) {
	kept, dropped := dedup.Filter(g.dedup, batch, questionText, existing)
	g.caller.Dropped(ctx, model.Texts(dropped))

	if short := g.opts.Target - len(kept); short > 0 {
		g.caller.Backfilled(ctx, len(kept), short)
		seen := append(append([]string(nil), existing...), model.Texts(kept)...)
		extra, err := g.backfill(ctx, idea, domain, level, seen, short)
		if err != nil {
			return nil, err
		}
		kept = append(kept, extra...)
	}
	if len(kept) > g.opts.Target {
		kept = kept[:g.opts.Target]
	}
	g.logger.Debug("question batch ready", zap.Int("count", len(kept)), zap.Int("dropped", len(dropped)))
	return kept, nil
}

// backfill asks once for needed new questions. Invalid or duplicate ones are
// skipped rather than regenerated.
func (g *Generator) backfill(ctx context.Context, idea, domain, level string, seen []string, needed int) ([]model.Question, error) {
	p := g.caller.Preset()
	text, err := g.caller.Text(ctx, prompts.Backfill, prompts.RoleQuestions, prompts.Data{
		Idea:     idea,
		Domain:   domain,
		Level:    level,
		Count:    needed,
		Existing: tail(seen, g.opts.History),
	}, g.caller.Sampling().Questions)
	if err != nil {
		return nil, err
	}

	seen = append([]string(nil), seen...)
	var out []model.Question
	var dropped []string
	for _, candidate := range parse.ExtractNumbered(text) {
		if len(out) >= needed {
			break
		}
		if reasons := g.validator.ExplainFailure(candidate); len(reasons) > 0 {
			g.caller.Rejected(ctx, candidate, g.validator.PrimaryReason(candidate), reasons)
			continue
		}
		if g.dedup.IsDuplicate(candidate, seen) {
			dropped = append(dropped, candidate)
			continue
		}
		seen = append(seen, candidate)
		out = append(out, model.Question{
			Text:       candidate,
			Examples:   []string{},
			AdaptedFor: fmt.Sprintf(p.Notes.Backfill, level),
		})
	}
	g.caller.Dropped(ctx, dropped)
	return out, nil
}

// ensureClosed returns q when it is closed-form, otherwise one regeneration.
func (g *Generator) ensureClosed(ctx context.Context, idea, q string) (string, error) {
	if g.validator.IsClosedForm(q) {
		return q, nil
	}
	g.caller.Rejected(ctx, q, g.validator.PrimaryReason(q), g.validator.ExplainFailure(q))
	return g.Regenerate(ctx, idea, q)
}

// Regenerate asks once for a closed-form rewrite of invalid. If the rewrite is
// still invalid the generic fallback question is returned.
func (g *Generator) Regenerate(ctx context.Context, idea, invalid string) (string, error) {
	text, err := g.caller.Text(ctx, prompts.Regenerate, prompts.RoleQuestions, prompts.Data{
		Idea:     idea,
		Question: invalid,
	}, g.caller.Sampling().Refined)
	if err != nil {
		return "", err
	}
	q := strings.TrimRight(parse.FirstLine(text), "? ") + "?"
	if g.validator.IsClosedForm(q) {
		return q, nil
	}
	g.caller.Fallback(ctx, string(prompts.Regenerate), fmt.Errorf("rewrite %q still invalid", q))
	return g.caller.Preset().FallbackQuestion, nil
}

// ReformulateUnclear restates each question the user answered with "don't
// know" (simplified, with an explanation) or "no preference" (concrete
// options). Malformed replies fall back to a generic restatement.
func (g *Generator) ReformulateUnclear(ctx context.Context, idea string, items []model.UnclearItem, profile *model.CompetencyProfile) ([]model.Reformulation, error) {
	p := g.caller.Preset()
	beginner := profile == nil || profile.OverallLevel.Beginner()

	out := make([]model.Reformulation, 0, len(items))
	for _, item := range items {
		name := prompts.ReformulateDontKnow
		if item.Answer == p.Answers.NoPreference {
			name = prompts.ReformulateNoPreference
		}
		obj, err := g.caller.Object(ctx, name, prompts.RoleQuestions, prompts.Data{
			Idea:     idea,
			Question: item.Question,
			Comment:  item.Comment,
			Beginner: beginner,
		}, g.caller.Sampling().Refined)
		if err != nil && !errors.Is(err, parse.ErrMalformed) {
			return nil, err
		}

		r := model.Reformulation{OriginalQuestion: item.Question, OriginalAnswer: item.Answer}
		if err == nil {
			r.Question = ai.String(obj, "reformulated_question", "")
			r.Explanation = ai.String(obj, "explanation", "")
			r.Options = options(obj)
		}
		if r.Question == "" {
			if err == nil {
				err = errors.New("reply has no reformulated question")
			}
			g.caller.Fallback(ctx, "reformulate", err)
			r = g.fallbackReformulation(item)
		}
		out = append(out, r)
	}
	return out, nil
}

func (g *Generator) fallbackReformulation(item model.UnclearItem) model.Reformulation {
	p := g.caller.Preset()
	r := model.Reformulation{
		OriginalQuestion: item.Question,
		Question:         p.ClarifyPrefix + item.Question,
		Explanation:      p.ClarifyExplanation,
		OriginalAnswer:   item.Answer,
	}
	if item.Answer == p.Answers.NoPreference {
		r.Options = []model.Option{
			{Title: p.Answers.Yes, Description: p.OptionYesText},
			{Title: p.Answers.No, Description: p.OptionNoText},
		}
	}
	return r
}

func options(obj map[string]any) []model.Option {
	raw, ok := obj["options"].([]any)
	if !ok {
		return nil
	}
	var out []model.Option
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title := ai.String(m, "title", "")
		if title == "" {
			continue
		}
		out = append(out, model.Option{Title: title, Description: ai.String(m, "description", "")})
	}
	return out
}

func questionText(q model.Question) string { return q.Text }

func tail(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
