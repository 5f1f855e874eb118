// Package ai is the call layer shared by the interview components: it renders
// a prompt, sends it to the generator and recovers structured data from the
// reply.
package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/lang"
	"github.com/berth-dev/briefing/internal/llm"
	"github.com/berth-dev/briefing/internal/metrics"
	"github.com/berth-dev/briefing/internal/parse"
	"github.com/berth-dev/briefing/prompts"
)

// Params are the sampling parameters of one call.
type Params struct {
	MaxTokens   int
	Temperature float64
}

// Sampling groups the parameters used per kind of call.
type Sampling struct {
	Questions Params
	Refined   Params
	Final     Params
	Delegate  Params
}

// DefaultSampling returns the stock sampling parameters.
func DefaultSampling() Sampling {
	return Sampling{
		Questions: Params{MaxTokens: 8192, Temperature: 0.8},
		Refined:   Params{MaxTokens: 8192, Temperature: 0.6},
		Final:     Params{MaxTokens: 8192, Temperature: 0.5},
		Delegate:  Params{MaxTokens: 300, Temperature: 0.3},
	}
}

// Caller sends rendered prompts to a generator.
type Caller struct {
	gen      llm.Generator
	parser   *parse.Parser
	preset   lang.Preset
	sampling Sampling
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewCaller returns a Caller speaking the preset's language.
func NewCaller(gen llm.Generator, preset lang.Preset, sampling Sampling, logger *zap.Logger, m *metrics.Collector) *Caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Caller{
		gen:      gen,
		parser:   parse.New(preset.Connectors, logger.Named("parse"), m),
		preset:   preset,
		sampling: sampling,
		logger:   logger,
		metrics:  m,
	}
}

// Preset returns the interview language.
func (c *Caller) Preset() lang.Preset { return c.preset }

// Sampling returns the configured sampling parameters.
func (c *Caller) Sampling() Sampling { return c.sampling }

// Text renders the named prompt and returns the generator's reply.
// Generator failures are returned wrapped; they are never absorbed here.
func (c *Caller) Text(ctx context.Context, name prompts.Name, role string, data prompts.Data, p Params) (string, error) {
	data.Lang = c.preset
	prompt, err := prompts.Render(name, data)
	if err != nil {
		return "", err
	}
	out, err := c.gen.Generate(ctx, llm.Request{
		Purpose:      string(name),
		Prompt:       prompt,
		SystemPrompt: prompts.System(role, c.preset),
		MaxTokens:    p.MaxTokens,
		Temperature:  p.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Object is Text followed by recovery of a JSON object. A reply that cannot
// be recovered yields an error wrapping parse.ErrMalformed.
func (c *Caller) Object(ctx context.Context, name prompts.Name, role string, data prompts.Data, p Params) (map[string]any, error) {
	text, err := c.Text(ctx, name, role, data, p)
	if err != nil {
		return nil, err
	}
	obj, err := c.parser.Object(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return obj, nil
}

// Array is Text followed by recovery of a JSON array.
func (c *Caller) Array(ctx context.Context, name prompts.Name, role string, data prompts.Data, p Params) ([]any, error) {
	text, err := c.Text(ctx, name, role, data, p)
	if err != nil {
		return nil, err
	}
	arr, err := c.parser.Array(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return arr, nil
}

// Fallback records that component substituted a default for a failed result.
func (c *Caller) Fallback(ctx context.Context, component string, cause error) {
	fields := []zap.Field{zap.String("component", component)}
	detail := ""
	if cause != nil {
		fields = append(fields, zap.Error(cause))
		detail = cause.Error()
	}
	c.logger.Warn("using fallback result", fields...)
	c.metrics.Fallback(component)
	noteFrom(ctx).add(Note{Kind: NoteFallback, Component: component, Detail: detail})
}

// Rejected records a generated question that failed the closed-form rules.
func (c *Caller) Rejected(ctx context.Context, question, reason string, reasons []string) {
	c.logger.Info("question rejected",
		zap.String("question", question), zap.Strings("reasons", reasons))
	c.metrics.Rejected(reason)
	noteFrom(ctx).add(Note{Kind: NoteRejected, Question: question, Detail: strings.Join(reasons, "; ")})
}

// Dropped records questions removed as near-duplicates.
func (c *Caller) Dropped(ctx context.Context, questions []string) {
	if len(questions) == 0 {
		return
	}
	c.logger.Info("duplicate questions dropped", zap.Strings("questions", questions))
	c.metrics.DuplicatesDropped(len(questions))
	n := noteFrom(ctx)
	for _, q := range questions {
		n.add(Note{Kind: NoteDropped, Question: q})
	}
}

// Backfilled records a backfill request for count questions.
func (c *Caller) Backfilled(ctx context.Context, have, count int) {
	c.logger.Info("requesting backfill questions", zap.Int("have", have), zap.Int("needed", count))
	noteFrom(ctx).add(Note{Kind: NoteBackfill, Count: count})
}
