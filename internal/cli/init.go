// init.go implements the "briefing init" command.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/berth-dev/briefing/internal/config"
	"github.com/berth-dev/briefing/internal/lang"
	"github.com/berth-dev/briefing/internal/log"
	"github.com/berth-dev/briefing/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize briefing in the current project",
	Long: `Create .briefing/config.yaml with defaults, adjusted by the flags below,
and add the session store and logs to .gitignore.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	languageFlag string
	backendFlag  string
	providerFlag string
	modelFlag    string
)

func init() {
	initCmd.Flags().StringVar(&languageFlag, "language", "", "Interview language ("+strings.Join(lang.Codes(), ", ")+")")
	initCmd.Flags().StringVar(&backendFlag, "backend", "", "Session store backend (file, sqlite)")
	initCmd.Flags().StringVar(&providerFlag, "provider", "", "Text generation provider (openai, genai, claude)")
	initCmd.Flags().StringVar(&modelFlag, "model", "", "Model name passed to the provider")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(dirFlag)
	if err != nil {
		return fmt.Errorf("resolving project directory: %w", err)
	}
	out := cmd.OutOrStdout()

	stateDir := filepath.Join(dir, log.StateDir)
	if info, statErr := os.Stat(filepath.Join(stateDir, "config.yaml")); statErr == nil && !info.IsDir() {
		fmt.Fprintf(out, "Warning: %s/config.yaml already exists.\n", log.StateDir)
		ok, err := ui.NewPrompter(cmd.InOrStdin(), out, ui.IsTTY()).Confirm("Reinitialize?")
		if err != nil || !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if languageFlag != "" {
		cfg.Language = languageFlag
	}
	if backendFlag != "" {
		cfg.Store.Backend = backendFlag
	}
	if providerFlag != "" {
		cfg.LLM.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.LLM.Model = modelFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.WriteConfig(dir, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := ensureGitignore(dir); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to set up .gitignore: %v\n", err)
	}

	fmt.Fprintln(out, "Briefing initialized")
	fmt.Fprintf(out, "  Language: %s\n", cfg.Language)
	fmt.Fprintf(out, "  Store:    %s\n", cfg.Store.Backend)
	fmt.Fprintf(out, "  Provider: %s (%s)\n", cfg.LLM.Provider, cfg.LLM.Model)
	if cfg.LLM.APIKeyEnv != "" {
		fmt.Fprintf(out, "  API key:  read from $%s\n", cfg.LLM.APIKeyEnv)
	}
	fmt.Fprintf(out, "\nConfiguration written to %s/config.yaml\n", log.StateDir)
	fmt.Fprintln(out, `Start with: briefing new "your idea"`)
	return nil
}

// ensureGitignore appends the runtime files under .briefing/ to .gitignore,
// adding only entries that are missing.
func ensureGitignore(dir string) error {
	gitignorePath := filepath.Join(dir, ".gitignore")

	requiredEntries := []string{
		log.StateDir + "/sessions/",
		log.StateDir + "/*.db",
		log.StateDir + "/*.db-*",
		log.StateDir + "/log.jsonl",
	}

	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}

	var missing []string
	for _, entry := range requiredEntries {
		if !strings.Contains(existing, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var toAppend strings.Builder
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		toAppend.WriteString("\n")
	}
	if existing != "" {
		toAppend.WriteString("\n# Added by briefing init\n")
	}
	for _, entry := range missing {
		toAppend.WriteString(entry + "\n")
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening .gitignore: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(toAppend.String()); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}
