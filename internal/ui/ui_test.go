package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berth-dev/briefing/internal/model"
)

func TestProgress_Plain(t *testing.T) {
	s := model.NewSessionData("0f8fad5b-d9cb-469f-a165-70867728950e", time.Now())
	s.CurrentStep = model.StepAnswerMainQuestions
	s.IterationCount = 1

	var buf bytes.Buffer
	NewProgress(&buf, false).Render(s)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "Briefing 0f8fad5b (iteration 2)", lines[0])
	assert.Equal(t, "[DONE] Clarifying questions", lines[4])
	assert.Equal(t, "[CURRENT] Your answers", lines[5])
	assert.Equal(t, "[PENDING] Final report", lines[9])
}

func TestProgress_Completed(t *testing.T) {
	s := model.NewSessionData("abc", time.Now())
	s.CurrentStep = model.StepCompleted
	s.Status = model.StatusCompleted

	var buf bytes.Buffer
	NewProgress(&buf, false).Render(s)
	assert.NotContains(t, buf.String(), "PENDING")
	assert.NotContains(t, buf.String(), "CURRENT")
}

func TestPrompter_Choose(t *testing.T) {
	choices := []string{"Yes", "No", "Don't know"}
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"by number", "2\n", "No"},
		{"by text", "don't know\n", "Don't know"},
		{"retry after bad input", "7\nmaybe\n1\n", "Yes"},
		{"last line without newline", "3", "Don't know"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := NewPrompter(strings.NewReader(tt.input), &out, false).Choose("Is it mobile?", "", choices)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "  1) Yes")
		})
	}
}

func TestPrompter_EOF(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader(""), &out, false)
	_, err := p.Choose("Is it mobile?", "", []string{"Yes"})
	assert.ErrorIs(t, err, ErrAborted)

	ok, err := NewPrompter(strings.NewReader("y\n"), &out, false).Confirm("Delete?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m5s", FormatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "1h2m3s", FormatDuration(time.Hour+2*time.Minute+3*time.Second))
}
