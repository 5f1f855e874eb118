// serve.go implements "briefing serve" and "briefing check".
package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/berth-dev/briefing/internal/api"
	"github.com/berth-dev/briefing/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the briefing API over HTTP",
	Long: `Serve the briefing engine as a JSON API under /api/v1/sessions, with
/health, /ready and Prometheus metrics on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured text generator answers",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

var (
	addrFlag      string
	reapEveryFlag time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().DurationVar(&reapEveryFlag, "reap-every", time.Minute, "How often stale stage histories are dropped (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e, err := openEnv(ctx, reg)
	if err != nil {
		return err
	}
	defer e.Close()

	addr := addrFlag
	if addr == "" {
		addr = e.cfg.Server.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", ln.Addr())

	reapAge := time.Duration(e.cfg.Monitor.MaxStageSeconds) * time.Second * 2
	return api.NewServer(e.orch, e.gen, reg, e.logger.Named("api")).Serve(ctx, ln, reapEveryFlag, reapAge)
}

func runCheck(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	target := e.cfg.LLM.Provider + " (" + e.cfg.LLM.Model + ")"
	if !e.gen.CheckAvailability(cmd.Context()) {
		fmt.Fprintln(out, ui.ErrorStyle.Render("unavailable: "+target))
		return fmt.Errorf("text generator %s is not reachable", target)
	}
	fmt.Fprintln(out, ui.SuccessStyle.Render("available: "+target))
	return nil
}
