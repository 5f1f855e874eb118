// Package validate classifies generated questions as closed-form (yes/no).
//
// Validation runs in two phases. A question is rejected if it contains an
// open interrogative keyword, offers alternatives, or asks for an amount,
// span, format, platform or purpose. A question that survives is accepted
// only if it matches one of the preset's closed-question patterns; anything
// else is rejected.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/berth-dev/briefing/internal/lang"
)

// ErrNotClosedForm marks a question that failed validation.
var ErrNotClosedForm = errors.New("question is not closed-form")

// Reason codes reported by Explain.
const (
	ReasonOpenKeyword = "open_keyword"
	ReasonChoice      = "choice"
	ReasonComplex     = "complex_answer"
	ReasonStructure   = "structure"
)

// Failure describes why a question was rejected.
type Failure struct {
	Reason   string
	Keywords []string
}

func (f Failure) String() string {
	switch f.Reason {
	case ReasonOpenKeyword:
		return "contains open-ended words: " + strings.Join(f.Keywords, ", ")
	case ReasonChoice:
		return "offers alternatives"
	case ReasonComplex:
		return "asks for a detailed answer"
	default:
		return "not structured as a yes/no question"
	}
}

type keyword struct {
	word string
	re   *regexp.Regexp
}

// Validator checks questions against one language preset.
type Validator struct {
	keywords []keyword
	choice   []*regexp.Regexp
	complex  []*regexp.Regexp
	closed   []*regexp.Regexp
}

// New compiles the preset's rules.
func New(p lang.Preset) (*Validator, error) {
	v := &Validator{}
	for _, kw := range p.OpenKeywords {
		re, err := regexp.Compile(`(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(strings.ToLower(kw)) + `(?:$|[^\p{L}\p{N}])`)
		if err != nil {
			return nil, fmt.Errorf("compile keyword %q: %w", kw, err)
		}
		v.keywords = append(v.keywords, keyword{word: kw, re: re})
	}
	var err error
	if v.choice, err = compileAll(p.ChoicePatterns); err != nil {
		return nil, err
	}
	if v.complex, err = compileAll(p.ComplexPatterns); err != nil {
		return nil, err
	}
	if v.closed, err = compileAll(p.ClosedPatterns); err != nil {
		return nil, err
	}
	return v, nil
}

// MustNew is New for the built-in presets.
func MustNew(p lang.Preset) *Validator {
	v, err := New(p)
	if err != nil {
		panic(err)
	}
	return v
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", e, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// IsClosedForm reports whether q can only be answered yes or no.
func (v *Validator) IsClosedForm(q string) bool {
	return v.Check(q) == nil
}

// Check returns nil for a valid question or an error wrapping ErrNotClosedForm.
func (v *Validator) Check(q string) error {
	lower := normalize(q)
	if lower == "" {
		return fmt.Errorf("empty question: %w", ErrNotClosedForm)
	}
	if f, ok := v.reject(lower); ok {
		return fmt.Errorf("%s: %w", f, ErrNotClosedForm)
	}
	for _, re := range v.closed {
		if re.MatchString(lower) {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", Failure{Reason: ReasonStructure}, ErrNotClosedForm)
}

func (v *Validator) reject(lower string) (Failure, bool) {
	if found := v.openKeywords(lower); len(found) > 0 {
		return Failure{Reason: ReasonOpenKeyword, Keywords: found}, true
	}
	if matchAny(v.choice, lower) {
		return Failure{Reason: ReasonChoice}, true
	}
	if matchAny(v.complex, lower) {
		return Failure{Reason: ReasonComplex}, true
	}
	return Failure{}, false
}

// Explain lists every rule q breaks. It is empty for a valid question.
func (v *Validator) Explain(q string) []Failure {
	lower := normalize(q)
	var out []Failure
	if found := v.openKeywords(lower); len(found) > 0 {
		out = append(out, Failure{Reason: ReasonOpenKeyword, Keywords: found})
	}
	if matchAny(v.choice, lower) {
		out = append(out, Failure{Reason: ReasonChoice})
	}
	if matchAny(v.complex, lower) {
		out = append(out, Failure{Reason: ReasonComplex})
	}
	if !matchAny(v.closed, lower) {
		out = append(out, Failure{Reason: ReasonStructure})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ExplainFailure renders Explain as human-readable reasons.
func (v *Validator) ExplainFailure(q string) []string {
	failures := v.Explain(q)
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.String())
	}
	return out
}

// PrimaryReason returns the reason code of the first failed rule, or "".
func (v *Validator) PrimaryReason(q string) string {
	lower := normalize(q)
	if f, ok := v.reject(lower); ok {
		return f.Reason
	}
	if !matchAny(v.closed, lower) {
		return ReasonStructure
	}
	return ""
}

// Filter keeps the valid questions, preserving order.
func (v *Validator) Filter(questions []string) []string {
	var out []string
	for _, q := range questions {
		if v.IsClosedForm(q) {
			out = append(out, q)
		}
	}
	return out
}

func (v *Validator) openKeywords(lower string) []string {
	var found []string
	for _, kw := range v.keywords {
		if kw.re.MatchString(lower) {
			found = append(found, kw.word)
		}
	}
	return found
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
