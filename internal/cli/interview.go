// interview.go implements "briefing new" and "briefing resume", the
// interactive interview driven step by step from the terminal.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/orchestrator"
	"github.com/berth-dev/briefing/internal/ui"
)

var newCmd = &cobra.Command{
	Use:   "new [idea]",
	Short: "Start a new briefing",
	Long: `Start a new briefing. The idea may be passed as arguments; otherwise
you are asked for it. Progress is saved after every step, so an
interrupted briefing can be continued with "briefing resume".`,
	RunE: runNew,
}

var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Continue an unfinished briefing",
	Long: `Continue a briefing from the step it stopped at. Without an id the
most recently created active session is resumed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResume,
}

var commentsFlag bool

func init() {
	for _, c := range []*cobra.Command{newCmd, resumeCmd} {
		c.Flags().BoolVar(&commentsFlag, "comments", false, "Ask for an optional comment after each answer")
	}
}

func runNew(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	e, err := openEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.orch.CreateSession(ctx)
	if err != nil {
		return err
	}
	if idea := strings.TrimSpace(strings.Join(args, " ")); idea != "" {
		if _, err := e.orch.SubmitIdea(ctx, s.SessionID, idea); err != nil && !errors.Is(err, orchestrator.ErrIdeaTooShort) {
			return err
		}
	}
	return newInterviewer(e.orch, cmd.InOrStdin(), cmd.OutOrStdout(), ui.IsTTY()).run(ctx, s.SessionID)
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	e, err := openEnv(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	var id string
	if len(args) == 1 {
		id = args[0]
	} else {
		list, err := e.orch.ListSessions()
		if err != nil {
			return err
		}
		for _, sum := range list {
			if sum.Status == model.StatusActive {
				id = sum.SessionID
				break
			}
		}
		if id == "" {
			return fmt.Errorf("no active sessions; start one with: briefing new")
		}
	}
	return newInterviewer(e.orch, cmd.InOrStdin(), cmd.OutOrStdout(), ui.IsTTY()).run(ctx, id)
}

// feedback choices offered on a refined idea.
const (
	choiceCorrect         = "Correct"
	choiceMostlyCorrect   = "Mostly correct"
	choiceMostlyIncorrect = "Mostly incorrect"
	choiceIterate         = "Ask me more questions"
)

var feedbackOf = map[string]string{
	choiceCorrect:         model.FeedbackCorrect,
	choiceMostlyCorrect:   model.FeedbackMostlyCorrect,
	choiceMostlyIncorrect: model.FeedbackMostlyIncorrect,
}

type interviewer struct {
	orch     *orchestrator.Orchestrator
	prompt   *ui.Prompter
	progress *ui.Progress
	out      io.Writer
	tty      bool
	comments bool
}

func newInterviewer(orch *orchestrator.Orchestrator, in io.Reader, out io.Writer, tty bool) *interviewer {
	return &interviewer{
		orch:     orch,
		prompt:   ui.NewPrompter(in, out, tty),
		progress: ui.NewProgress(out, tty),
		out:      out,
		tty:      tty,
		comments: commentsFlag,
	}
}

// run drives the session until it completes or input ends. Every call
// into the orchestrator persists the session, so stopping anywhere is safe.
func (iv *interviewer) run(ctx context.Context, id string) error {
	s, err := iv.orch.LoadSession(id)
	if err != nil {
		return err
	}
	last := model.Step("")
	for {
		if s.CurrentStep != last {
			iv.progress.Render(s)
			last = s.CurrentStep
		}
		if s.CurrentStep == model.StepCompleted {
			iv.section("Final report")
			iv.boxed(s.FinalResult)
			return nil
		}

		next, err := iv.step(ctx, s)
		switch {
		case errors.Is(err, ui.ErrAborted):
			fmt.Fprintf(iv.out, "\nStopped. Continue with: briefing resume %s\n", s.SessionID)
			return nil
		case errors.Is(err, orchestrator.ErrIdeaTooShort), errors.Is(err, orchestrator.ErrNoAnswers):
			iv.warn(err.Error())
			continue
		case err != nil:
			return err
		}
		s = next
	}
}

func (iv *interviewer) step(ctx context.Context, s *model.SessionData) (*model.SessionData, error) {
	id := s.SessionID
	switch s.CurrentStep {
	case model.StepInputIdea:
		idea, err := iv.prompt.Line("Describe your idea: ")
		if err != nil {
			return nil, err
		}
		return iv.orch.SubmitIdea(ctx, id, idea)

	case model.StepCompetencyAnalysis:
		iv.status("Analysing the domain of your idea...")
		return iv.orch.RunCompetencyAnalysis(ctx, id)

	case model.StepAnswerCompetencyQuestions:
		iv.section("A few questions about your background")
		answers, err := iv.askAll(s.CompetencyQuestions)
		if err != nil {
			return nil, err
		}
		return iv.orch.SubmitCompetencyAnswers(ctx, id, answers)

	case model.StepGenerateQuestions:
		iv.status("Preparing questions...")
		return iv.orch.GenerateQuestions(ctx, id)

	case model.StepAnswerMainQuestions:
		iv.section("Questions about your idea")
		answers, err := iv.askAll(s.ClarifyingQuestions)
		if err != nil {
			return nil, err
		}
		return iv.orch.SubmitMainAnswers(ctx, id, answers)

	case model.StepReformulateQuestions:
		if len(s.Reformulations) == 0 && len(iv.orch.UnclearItems(s)) > 0 {
			iv.status("Rephrasing the questions you were unsure about...")
			var err error
			if s, err = iv.orch.ReformulateUnclear(ctx, id); err != nil {
				return nil, err
			}
		}
		clarifications, err := iv.clarify(s.Reformulations)
		if err != nil {
			return nil, err
		}
		iv.status("Refining your idea...")
		return iv.orch.ProcessAnswers(ctx, id, clarifications)

	case model.StepGenerateRefined, model.StepValidateIdea:
		return iv.review(ctx, s)
	}
	return nil, fmt.Errorf("session %s is at unknown step %q", id, s.CurrentStep)
}

func (iv *interviewer) askAll(qs []model.Question) ([]model.Answer, error) {
	a := iv.orch.Preset().Answers
	choices := []string{a.Yes, a.No, a.DontKnow, a.NoPreference, a.DelegateToAI}
	out := make([]model.Answer, 0, len(qs))
	for i, q := range qs {
		fmt.Fprintln(iv.out)
		hint := q.Explanation
		if len(q.Examples) > 0 {
			hint = strings.TrimSpace(hint + " e.g. " + strings.Join(q.Examples, "; "))
		}
		reply, err := iv.prompt.Choose(fmt.Sprintf("%d/%d %s", i+1, len(qs), q.Text), hint, choices)
		if err != nil {
			return nil, err
		}
		comment, err := iv.comment()
		if err != nil {
			return nil, err
		}
		out = append(out, model.Answer{Question: q.Text, Answer: reply, Comment: comment})
	}
	return out, nil
}

func (iv *interviewer) clarify(refs []model.Reformulation) ([]model.Answer, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	iv.section("Let's try those again")
	a := iv.orch.Preset().Answers
	out := make([]model.Answer, 0, len(refs))
	for _, r := range refs {
		fmt.Fprintln(iv.out)
		choices := []string{a.Yes, a.No}
		hint := r.Explanation
		if len(r.Options) > 0 {
			choices = choices[:0]
			for _, o := range r.Options {
				choices = append(choices, o.Title)
				hint = strings.TrimSpace(hint + "\n  " + o.Title + ": " + o.Description)
			}
		}
		choices = append(choices, r.OriginalAnswer)
		reply, err := iv.prompt.Choose(r.Question, hint, dedupChoices(choices))
		if err != nil {
			return nil, err
		}
		comment, err := iv.comment()
		if err != nil {
			return nil, err
		}
		out = append(out, model.Answer{Question: r.OriginalQuestion, Answer: reply, Comment: comment})
	}
	return out, nil
}

func (iv *interviewer) review(ctx context.Context, s *model.SessionData) (*model.SessionData, error) {
	iv.section("Refined idea")
	iv.boxed(s.RefinedIdea)
	fmt.Fprintln(iv.out)

	choices := []string{choiceCorrect, choiceMostlyCorrect, choiceMostlyIncorrect}
	if s.CurrentStep == model.StepGenerateRefined {
		choices = append(choices, choiceIterate)
	}
	verdict, err := iv.prompt.Choose("Does this capture your idea?", "", choices)
	if err != nil {
		return nil, err
	}
	if verdict == choiceCorrect {
		iv.status("Writing the final report...")
		return iv.orch.Approve(ctx, s.SessionID)
	}

	comments, err := iv.prompt.Line("What should change? ")
	if err != nil {
		return nil, err
	}
	if verdict == choiceIterate {
		return iv.orch.IterateAgain(ctx, s.SessionID, comments)
	}
	iv.status("Revising...")
	return iv.orch.SubmitFeedback(ctx, s.SessionID, feedbackOf[verdict], comments)
}

func (iv *interviewer) comment() (string, error) {
	if !iv.comments {
		return "", nil
	}
	return iv.prompt.Line("Comment (optional): ")
}

func (iv *interviewer) section(title string) {
	fmt.Fprintln(iv.out)
	if iv.tty {
		fmt.Fprintln(iv.out, ui.TitleStyle.Render(title))
		return
	}
	fmt.Fprintf(iv.out, "== %s ==\n", title)
}

func (iv *interviewer) boxed(text string) {
	if iv.tty {
		fmt.Fprintln(iv.out, ui.BoxStyle.Render(text))
		return
	}
	fmt.Fprintln(iv.out, text)
}

func (iv *interviewer) status(msg string) {
	if iv.tty {
		fmt.Fprintln(iv.out, ui.DimStyle.Render(msg))
		return
	}
	fmt.Fprintln(iv.out, msg)
}

func (iv *interviewer) warn(msg string) {
	if iv.tty {
		fmt.Fprintln(iv.out, ui.WarningStyle.Render(msg))
		return
	}
	fmt.Fprintln(iv.out, "Warning: "+msg)
}

func dedupChoices(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, c := range in {
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		out = append(out, c)
	}
	return out
}
