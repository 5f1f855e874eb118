// Package parse recovers structured JSON from free-text model output.
//
// Strategies are tried in order and the first success wins:
//
//  1. the raw text as-is
//  2. the text with a surrounding code fence and language tag removed
//  3. the first balanced object or array found in the text
//  4. textual repairs (trailing commas, single quotes, stray connector
//     words), with jsonrepair as the last pass
//
// Only objects and arrays count as success.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/metrics"
)

// ErrMalformed is returned when no strategy yields an object or array.
var ErrMalformed = errors.New("response malformed")

// Strategy identifies the recovery step that produced a value.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyRaw
	StrategyFenced
	StrategyExtracted
	StrategyRepaired
)

func (s Strategy) String() string {
	switch s {
	case StrategyRaw:
		return "raw"
	case StrategyFenced:
		return "fenced"
	case StrategyExtracted:
		return "extracted"
	case StrategyRepaired:
		return "repaired"
	default:
		return "failed"
	}
}

var (
	fenceOpenRe     = regexp.MustCompile("(?i)^```\\s*json\\s*")
	fenceCloseRe    = regexp.MustCompile("```\\s*$")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	singleKeyRe     = regexp.MustCompile(`'([^'"]*)'\s*:`)
	singleValueRe   = regexp.MustCompile(`:\s*'([^']*)'`)
	singleItemRe    = regexp.MustCompile(`([\[,])\s*'([^']*)'`)
	strayWordRe     = regexp.MustCompile(`",\s+[\p{L}]+\s+"`)
)

// Parser applies the recovery strategies.
type Parser struct {
	connectorRe *regexp.Regexp
	logger      *zap.Logger
	metrics     *metrics.Collector
}

// New returns a Parser that also strips the given connector words when
// they appear between list items.
func New(connectors []string, logger *zap.Logger, m *metrics.Collector) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Parser{logger: logger, metrics: m}
	if len(connectors) > 0 {
		quoted := make([]string, len(connectors))
		for i, c := range connectors {
			quoted[i] = regexp.QuoteMeta(c)
		}
		p.connectorRe = regexp.MustCompile(`",\s+(?:` + strings.Join(quoted, "|") + `)\s+(["'])`)
	}
	return p
}

// Parse returns the first object or array recovered from text.
func (p *Parser) Parse(text string) (any, Strategy, error) {
	v, strategy := p.parse(text)
	p.metrics.Parsed(strategy.String())
	if strategy == StrategyNone {
		p.logger.Warn("unable to recover JSON from response",
			zap.Int("length", len(text)),
			zap.String("head", head(text, 200)))
		return nil, StrategyNone, ErrMalformed
	}
	p.logger.Debug("recovered JSON", zap.Stringer("strategy", strategy))
	return v, strategy, nil
}

func (p *Parser) parse(text string) (any, Strategy) {
	if strings.TrimSpace(text) == "" {
		return nil, StrategyNone
	}

	if v, ok := decode(strings.TrimSpace(text)); ok {
		return v, StrategyRaw
	}

	cleaned := StripFence(text)
	if v, ok := decode(cleaned); ok {
		return v, StrategyFenced
	}

	if v, ok := extract(text); ok {
		return v, StrategyExtracted
	}

	repaired := p.repair(cleaned)
	if v, ok := decode(repaired); ok {
		return v, StrategyRepaired
	}
	if v, ok := extract(repaired); ok {
		return v, StrategyRepaired
	}
	if fixed, err := jsonrepair.JSONRepair(repaired); err == nil {
		if v, ok := decode(fixed); ok {
			return v, StrategyRepaired
		}
	}
	return nil, StrategyNone
}

// Object parses text and requires a JSON object.
func (p *Parser) Object(text string) (map[string]any, error) {
	v, _, err := p.Parse(text)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T: %w", v, ErrMalformed)
	}
	return obj, nil
}

// Array parses text and requires a JSON array.
func (p *Parser) Array(text string) ([]any, error) {
	v, _, err := p.Parse(text)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T: %w", v, ErrMalformed)
	}
	return arr, nil
}

// Decode parses text and re-marshals the recovered value into v.
func (p *Parser) Decode(text string, v any) error {
	raw, _, err := p.Parse(text)
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("re-encode recovered value: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode recovered value: %v: %w", err, ErrMalformed)
	}
	return nil
}

// StripFence removes a surrounding code fence and a leading json tag.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") && len(text) > 6 {
		lines := strings.Split(text, "\n")
		if len(lines) >= 2 {
			text = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func (p *Parser) repair(text string) string {
	text = trailingCommaRe.ReplaceAllString(text, "$1")
	text = singleKeyRe.ReplaceAllString(text, `"$1":`)
	text = singleValueRe.ReplaceAllString(text, `: "$1"`)
	text = singleItemRe.ReplaceAllString(text, `$1 "$2"`)
	if p.connectorRe != nil {
		text = p.connectorRe.ReplaceAllString(text, `", $1`)
	}
	text = strayWordRe.ReplaceAllString(text, `", "`)
	return text
}

// decode accepts only objects and arrays.
func decode(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	}
	return nil, false
}

// extract tries each '{' or '[' in order of position and returns the first
// balanced span that decodes.
func extract(text string) (any, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		end := balancedEnd(text, i)
		if end < 0 {
			continue
		}
		if v, ok := decode(text[i : end+1]); ok {
			return v, true
		}
	}
	return nil, false
}

// balancedEnd returns the index of the bracket closing the one at start,
// ignoring brackets inside string literals, or -1.
func balancedEnd(text string, start int) int {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
