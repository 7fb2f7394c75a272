package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/bikedash/internal/report"
	"github.com/KaramelBytes/bikedash/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interactive dashboard over HTTP",
	Long: `Serve the dashboard. GET / renders the HTML dashboard, GET /api/report returns
the report as JSON; both accept start and end query parameters. /healthz and
/metrics (Prometheus) are exposed alongside. Datasets are cached and reloaded
only when the files change on disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		cache, err := newCache()
		if err != nil {
			return err
		}
		s := server.New(server.Options{
			Addr:     addr,
			DayPath:  cfg.DayPath,
			HourPath: cfg.HourPath,
			Params: report.Params{
				Segmentation:  cfg.Segmentation,
				HourRankLimit: cfg.HourRankLimit,
			},
			Charts: chartOptions(),
		}, cache, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Dashboard on http://%s/ (Ctrl+C to stop)\n", displayAddr(addr))
		return s.ListenAndServe(ctx)
	},
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config listen_addr)")
}
