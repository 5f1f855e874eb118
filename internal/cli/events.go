// events.go implements "briefing log", which prints the JSONL event log.
package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/berth-dev/briefing/internal/log"
)

var logCmd = &cobra.Command{
	Use:   "log [session-id]",
	Short: "Print recorded engine events",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLog,
}

var tailFlag int

func init() {
	logCmd.Flags().IntVarP(&tailFlag, "tail", "n", 0, "Show only the last N events")
}

func runLog(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.events == nil {
		return fmt.Errorf("event logging is disabled (log.events in config)")
	}
	events, err := e.events.ReadAll()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		events = log.ForSession(events, args[0])
	}
	if tailFlag > 0 && len(events) > tailFlag {
		events = events[len(events)-tailFlag:]
	}

	out := cmd.OutOrStdout()
	for _, ev := range events {
		fmt.Fprintln(out, formatEvent(ev))
	}
	return nil
}

func formatEvent(ev log.LogEvent) string {
	var b strings.Builder
	b.WriteString(ev.Time.Local().Format(time.DateTime))
	b.WriteString("  ")
	b.WriteString(ev.Event)
	if ev.SessionID != "" {
		b.WriteString("  " + ev.SessionID[:min(8, len(ev.SessionID))])
	}
	if ev.From != "" {
		b.WriteString("  " + ev.From + " -> " + ev.Step)
	} else if ev.Step != "" {
		b.WriteString("  " + ev.Step)
	}
	if ev.Component != "" {
		b.WriteString("  component=" + ev.Component)
	}
	if ev.Count > 0 {
		fmt.Fprintf(&b, "  count=%d", ev.Count)
	}
	if ev.DurationMs > 0 {
		fmt.Fprintf(&b, "  took=%dms", ev.DurationMs)
	}
	if ev.Question != "" {
		b.WriteString("  q=" + ev.Question)
	}
	if ev.Reason != "" {
		b.WriteString("  reason=" + ev.Reason)
	}
	if ev.Error != "" {
		b.WriteString("  error=" + ev.Error)
	}
	return b.String()
}
