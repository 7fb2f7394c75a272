package cmd

import (
	"fmt"

	"github.com/KaramelBytes/bikedash/internal/report"
	"github.com/spf13/cobra"
)

var (
	expDir   string
	expStart string
	expEnd   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered datasets and aggregate tables as Parquet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := expDir
		if dir == "" {
			dir = cfg.OutputDir
		}
		ds, r, err := buildReport(cmd, expStart, expEnd, cfg.Segmentation)
		if err != nil {
			return err
		}
		files, err := report.Export(dir, ds, r)
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", f)
		}
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d files for %s to %s\n", len(files), r.Range, dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&expDir, "dir", "", "output directory (default from config output_dir)")
	exportCmd.Flags().StringVar(&expStart, "start", "", "first date to include (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&expEnd, "end", "", "last date to include (YYYY-MM-DD)")
}
