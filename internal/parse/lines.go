package parse

import (
	"regexp"
	"strings"
)

var (
	numberedRe = regexp.MustCompile(`^\d+[.)]\s*(.+)$`)
	bulletRe   = regexp.MustCompile(`^[-•*]\s+(.+)$`)
)

// ExtractNumbered returns the questions found on numbered or bulleted lines
// ("1. ...?", "- ...?", "• ...?"). Lines not ending in '?' are skipped and
// repeated questions are returned once.
func ExtractNumbered(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range ExtractList(text) {
		if !strings.HasSuffix(item, "?") || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// ExtractList returns the text of every numbered or bulleted line.
func ExtractList(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var item string
		if m := numberedRe.FindStringSubmatch(line); m != nil {
			item = m[1]
		} else if m := bulletRe.FindStringSubmatch(line); m != nil {
			item = m[1]
		} else {
			continue
		}
		item = strings.TrimSpace(strings.ReplaceAll(item, "**", ""))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// FirstLine returns the first non-empty line of text with list markers and
// surrounding quotes removed.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := numberedRe.FindStringSubmatch(line); m != nil {
			line = m[1]
		}
		return strings.Trim(strings.TrimSpace(line), `"«»`)
	}
	return ""
}
