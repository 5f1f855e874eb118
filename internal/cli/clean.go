// clean.go implements the "briefing clean" command for removing old sessions.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/berth-dev/briefing/internal/cleanup"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old briefings",
	Long: `Remove old briefings from the session store.

By default, removes sessions not updated within the configured max_age_days (default 30).
Use --keep to keep only the N most recent sessions instead.
Use --dry-run to preview what would be removed.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

var (
	keepFlag   int
	dryRunFlag bool
)

func init() {
	cleanCmd.Flags().IntVar(&keepFlag, "keep", 0, "Keep only the last N sessions (0 = use age-based cleanup)")
	cleanCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Preview what would be removed without deleting")
}

func runClean(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	var pruned []string
	if keepFlag > 0 {
		pruned, err = cleanup.PruneKeepRecent(e.store, keepFlag, dryRunFlag)
	} else {
		maxAge := e.cfg.Cleanup.MaxAgeDays
		if maxAge <= 0 {
			maxAge = 30
		}
		pruned, err = cleanup.PruneByAge(e.store, maxAge, time.Now(), dryRunFlag)
	}
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(pruned) == 0 {
		fmt.Fprintln(out, "No sessions to clean up.")
		return nil
	}

	verb := "Removed"
	if dryRunFlag {
		verb = "Would remove"
	}
	for _, id := range pruned {
		fmt.Fprintf(out, "  %s %s\n", verb, id)
	}
	fmt.Fprintf(out, "%s %d session(s).\n", verb, len(pruned))
	return nil
}
