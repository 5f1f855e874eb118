// Package lang holds the per-language vocabulary the interview engine consults:
// question form rules, answer values, competency level labels and fallback texts.
package lang

import (
	"fmt"
	"sort"

	"github.com/berth-dev/briefing/internal/model"
)

// AnswerSet is the closed vocabulary a user can answer a briefing question with.
type AnswerSet struct {
	Yes          string
	No           string
	DontKnow     string
	NoPreference string
	DelegateToAI string
}

// Preset bundles everything language specific. Patterns are RE2 expressions
// matched against the lower-cased question.
type Preset struct {
	Code string
	Name string

	// OpenKeywords are interrogatives that make a question open-ended.
	// They are matched as whole words.
	OpenKeywords []string
	// ChoicePatterns detect questions offering alternatives.
	ChoicePatterns []string
	// ComplexPatterns detect questions asking for amounts, spans, formats,
	// platforms or purposes.
	ComplexPatterns []string
	// ClosedPatterns are the openers and particles of a valid yes/no question.
	ClosedPatterns []string
	// Openers are suggested to the model as first words of a question.
	Openers []string
	// Connectors are words models sometimes insert between JSON list items.
	Connectors []string

	Answers AnswerSet

	// LevelLabels maps canonical level ids (novice..expert) to display labels.
	LevelLabels map[string]string

	Domains       []string
	GeneralDomain string

	FallbackQuestion   string
	FallbackCompetency []FallbackCompetencyQuestion
	DefaultProfile     DefaultProfileText
	DefaultRequired    DefaultRequiredText

	// Reformulation fallbacks.
	ClarifyPrefix      string
	ClarifyExplanation string
	OptionYesText      string
	OptionNoText       string

	// DelegatedFallback is used when the model returns an empty delegated answer.
	DelegatedFallback string

	// Leads open the refinement texts the model is asked to write.
	Leads RefinementLeads

	DefaultComplexity DefaultComplexityText
	Notes             AdaptationNotes
}

// RefinementLeads are the opening phrases of refined, improved and reworked ideas.
type RefinementLeads struct {
	Refined  string
	Improved string
	Reworked string
}

// DefaultComplexityText fills the complexity estimate when analysis fails.
type DefaultComplexityText struct {
	Overall     string
	Description string
	Challenges  []string
	Approach    string
}

// AdaptationNotes are the adapted_for labels stamped on generated questions.
// Each takes the level label as its only argument.
type AdaptationNotes struct {
	Level     string
	Backfill  string
	Corrected string
	Fallback  string
	// FallbackExplanation and FallbackExample fill base questions reused
	// when adaptive generation fails.
	FallbackExplanation string
	FallbackExample     string
}

// FallbackCompetencyQuestion is a template; %s is replaced with the domain.
type FallbackCompetencyQuestion struct {
	Template    string
	Category    string
	Weight      string
	Explanation string
}

// DefaultProfileText is the text of the profile used when synthesis fails.
type DefaultProfileText struct {
	Education   string
	Practice    string
	Theory      string
	Technical   string
	Strengths   []string
	Gaps        []string
	Complexity  string
	Terminology string
	Summary     string
}

// DefaultRequiredText is the minimal skill vector used when derivation fails.
type DefaultRequiredText struct {
	Competencies []string
	Knowledge    []string
	Skills       []string
	Experience   []string
}

// FallbackCompetencyQuestions renders the generic assessment questions for domain.
func (p Preset) FallbackCompetencyQuestions(domain string) []FallbackCompetencyQuestion {
	out := make([]FallbackCompetencyQuestion, 0, len(p.FallbackCompetency))
	for _, q := range p.FallbackCompetency {
		q.Template = fmt.Sprintf(q.Template, domain)
		out = append(out, q)
	}
	return out
}

// LevelLabel returns the display label of l.
func (p Preset) LevelLabel(l model.Level) string {
	if s, ok := p.LevelLabels[string(l)]; ok {
		return s
	}
	return string(l)
}

// IsUnclear reports whether an answer asks for a reformulation.
func (p Preset) IsUnclear(answer string) bool {
	return answer == p.Answers.DontKnow || answer == p.Answers.NoPreference
}

var presets = map[string]Preset{
	"ru": russian,
	"en": english,
}

// Default is the language used when none is configured.
const Default = "ru"

// Lookup returns the preset registered under code.
func Lookup(code string) (Preset, error) {
	p, ok := presets[code]
	if !ok {
		return Preset{}, fmt.Errorf("unknown language %q (available: %v)", code, Codes())
	}
	return p, nil
}

// MustLookup is Lookup for codes known at compile time.
func MustLookup(code string) Preset {
	p, err := Lookup(code)
	if err != nil {
		panic(err)
	}
	return p
}

// Codes lists the registered language codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(presets))
	for c := range presets {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
