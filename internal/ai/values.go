package ai

import (
	"fmt"
	"strings"

	"github.com/berth-dev/briefing/internal/model"
)

// String returns m[key] as a trimmed string, or def when absent or empty.
// Numbers and booleans are formatted.
func String(m map[string]any, key, def string) string {
	switch v := m[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case float64, bool:
		return fmt.Sprint(v)
	}
	return def
}

// Strings returns m[key] as a list of non-empty strings. A lone string is
// treated as a one-element list.
func Strings(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	}
	return []string{}
}

// Bool returns m[key] as a boolean. Strings "true"/"false" are accepted.
func Bool(m map[string]any, key string, def bool) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "да":
			return true
		case "false", "no", "нет":
			return false
		}
	}
	return def
}

// Int returns m[key] as an int.
func Int(m map[string]any, key string, def int) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return def
}

// Map returns m[key] as an object, or an empty one.
func Map(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

// Question converts an array item into a Question. Items that are not
// objects or carry no text are reported as not ok.
func Question(item any) (model.Question, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return model.Question{}, false
	}
	text := String(m, "text", "")
	if text == "" {
		return model.Question{}, false
	}
	return model.Question{
		Text:        text,
		Explanation: String(m, "explanation", ""),
		Examples:    Strings(m, "examples"),
		Category:    String(m, "category", ""),
		Weight:      String(m, "weight", ""),
		AdaptedFor:  String(m, "adapted_for", ""),
	}, true
}
