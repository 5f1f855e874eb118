// sessions.go implements the commands that inspect and move saved sessions.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/berth-dev/briefing/internal/model"
	"github.com/berth-dev/briefing/internal/orchestrator"
	"github.com/berth-dev/briefing/internal/session"
	"github.com/berth-dev/briefing/internal/ui"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved briefings, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a briefing and its statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a briefing",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var exportCmd = &cobra.Command{
	Use:   "export <session-id> <file>",
	Short: "Write a briefing to a JSON file",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a briefing from a JSON file under a new id",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var insightsCmd = &cobra.Command{
	Use:   "insights <session-id>",
	Short: "Estimate the complexity of an idea and suggest improvements",
	Args:  cobra.ExactArgs(1),
	RunE:  runInsights,
}

var (
	jsonFlag  bool
	forceFlag bool
)

func init() {
	showCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the raw session JSON")
	insightsCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON")
	deleteCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Do not ask for confirmation")
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	list, err := e.orch.ListSessions()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No briefings yet. Start one with: briefing new")
		return nil
	}
	for _, s := range list {
		fmt.Fprintf(out, "%s  %-9s  %-27s  %s\n", s.SessionID[:8], s.Status, s.CurrentStep, clip(s.UserIdea, 50))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := e.orch.LoadSession(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonFlag {
		return writeJSON(out, s)
	}
	st, err := e.orch.Stats(s.SessionID)
	if err != nil {
		return err
	}
	ui.NewProgress(out, ui.IsTTY()).Render(s)
	printSession(out, s, st)
	return nil
}

func printSession(out io.Writer, s *model.SessionData, st *orchestrator.Stats) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Idea:          %s\n", s.UserIdea)
	if s.OriginalUserIdea != "" && s.OriginalUserIdea != s.UserIdea {
		fmt.Fprintf(out, "Original idea: %s\n", s.OriginalUserIdea)
	}
	if s.CompetencyProfile != nil {
		fmt.Fprintf(out, "Profile:       %s (%s)\n", s.CompetencyProfile.Domain, s.CompetencyProfile.OverallLevel)
	}
	fmt.Fprintf(out, "Created:       %s\n", s.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Duration:      %s\n", ui.FormatDuration(st.Duration))
	fmt.Fprintf(out, "Questions:     %d asked, %d answered\n", st.AskedCount, st.AnswersCount)
	fmt.Fprintf(out, "Iterations:    %d\n", st.IterationCount+1)

	if len(st.Stages) > 0 {
		steps := make([]string, 0, len(st.Stages))
		for step := range st.Stages {
			steps = append(steps, string(step))
		}
		sort.Strings(steps)
		fmt.Fprintln(out, "Stages:")
		for _, step := range steps {
			ss := st.Stages[model.Step(step)]
			fmt.Fprintf(out, "  %-27s attempts=%d time=%s completed=%t\n", step, ss.Attempts, ui.FormatDuration(ss.TimeSpent), ss.Completed)
		}
	}
	if s.RefinedIdea != "" {
		fmt.Fprintln(out, "\nRefined idea:")
		fmt.Fprintln(out, s.RefinedIdea)
	}
	if s.FinalResult != "" {
		fmt.Fprintln(out, "\nFinal report:")
		fmt.Fprintln(out, s.FinalResult)
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if !forceFlag {
		ok, err := ui.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), ui.IsTTY()).Confirm("Delete briefing " + args[0] + "?")
		if err != nil || !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}
	if err := e.orch.DeleteSession(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := session.Export(e.store, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], args[1])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	id, err := session.Import(e.store, args[0], time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported as %s\n", id)
	return nil
}

func runInsights(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	in, err := e.orch.Insights(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonFlag {
		return writeJSON(out, in)
	}
	c := in.Complexity
	fmt.Fprintf(out, "Complexity: %s\n", c.Overall)
	fmt.Fprintf(out, "  technical %d/5, resources %d/5, time %d/5, knowledge %d/5\n", c.Technical, c.Resources, c.Time, c.Knowledge)
	if c.Description != "" {
		fmt.Fprintln(out, "  "+c.Description)
	}
	for _, ch := range c.Challenges {
		fmt.Fprintln(out, "  - "+ch)
	}
	if c.Approach != "" {
		fmt.Fprintln(out, "Approach: "+c.Approach)
	}
	if len(in.Improvements) > 0 {
		fmt.Fprintln(out, "Improvements:")
		for i, imp := range in.Improvements {
			fmt.Fprintf(out, "  %d. %s\n", i+1, imp)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
