package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/bikedash/internal/config"
	"github.com/KaramelBytes/bikedash/internal/logging"
	"github.com/KaramelBytes/bikedash/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagDayPath  string
	flagHourPath string

	// Loaded configuration and logger
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "bikedash",
	Short: "Bike sharing usage reports and dashboard",
	Long: `bikedash loads the daily and hourly bike sharing datasets, filters them by date
and reports rentals by season, weather, hour and user type, with an RFM
segmentation of the hourly rows. Reports render as Markdown, HTML, terminal
text or JSON, or are served as a live dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.bikedash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDayPath, "day", "", "daily dataset path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagHourPath, "hour", "", "hourly dataset path (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("day") && flagDayPath != "" {
		cfg.DayPath = expandFlagPath(flagDayPath)
	}
	if f.Changed("hour") && flagHourPath != "" {
		cfg.HourPath = expandFlagPath(flagHourPath)
	}

	l, err := logging.New(cfg.LogLevel, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; logging disabled\n", err)
		l = zap.NewNop()
	}
	logger = l
}

// expandFlagPath expands "~/" in --day=~/... where the shell leaves it alone.
func expandFlagPath(p string) string {
	if x, err := utils.ExpandHome(p); err == nil {
		return x
	}
	return p
}
