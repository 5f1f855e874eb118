package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/berth-dev/briefing/internal/model"
)

// stepTitles are the tracker lines, in interview order.
var stepTitles = []struct {
	step  model.Step
	title string
}{
	{model.StepInputIdea, "Idea"},
	{model.StepCompetencyAnalysis, "Competency analysis"},
	{model.StepAnswerCompetencyQuestions, "Assessment answers"},
	{model.StepGenerateQuestions, "Clarifying questions"},
	{model.StepAnswerMainQuestions, "Your answers"},
	{model.StepReformulateQuestions, "Clarifications"},
	{model.StepGenerateRefined, "Refined idea"},
	{model.StepValidateIdea, "Validation"},
	{model.StepCompleted, "Final report"},
}

// IsTTY reports whether stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Progress draws the step tracker of a session.
type Progress struct {
	w   io.Writer
	tty bool
}

// NewProgress writes to w; styling is used only when tty is set.
func NewProgress(w io.Writer, tty bool) *Progress {
	return &Progress{w: w, tty: tty}
}

// Render prints every step with its state relative to current.
func (p *Progress) Render(s *model.SessionData) {
	cur := stepIndex(s.CurrentStep)
	header := fmt.Sprintf("Briefing %s", shortID(s.SessionID))
	if s.IterationCount > 0 {
		header += fmt.Sprintf(" (iteration %d)", s.IterationCount+1)
	}
	if p.tty {
		fmt.Fprintln(p.w, TitleStyle.Render(header))
	} else {
		fmt.Fprintln(p.w, header)
	}

	for i, st := range stepTitles {
		fmt.Fprintln(p.w, p.line(i, cur, st.title, s.Status == model.StatusCompleted))
	}
	fmt.Fprintln(p.w)
}

func (p *Progress) line(i, cur int, title string, finished bool) string {
	state := "pending"
	switch {
	case finished || i < cur:
		state = "done"
	case i == cur:
		state = "current"
	}
	if !p.tty {
		return fmt.Sprintf("[%s] %s", strings.ToUpper(state), title)
	}
	switch state {
	case "done":
		return fmt.Sprintf("  %s %s", StepDone, title)
	case "current":
		return fmt.Sprintf("  %s %s", StepCurrent, QuestionStyle.Render(title))
	default:
		return fmt.Sprintf("  %s %s", StepPending, DimStyle.Render(title))
	}
}

func stepIndex(step model.Step) int {
	for i, st := range stepTitles {
		if st.step == step {
			return i
		}
	}
	return 0
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", h, m, s)
}
