package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/bikedash/internal/report"
	"github.com/KaramelBytes/bikedash/internal/utils"
	"github.com/spf13/cobra"
)

var (
	repStart  string
	repEnd    string
	repFormat string
	repOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the usage report for a date range",
	Long: `Build the usage report for a date range and print it, or write it to a file with -o.
Without --start/--end the full span of the daily dataset is used.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(repFormat))
		if format == "" && repOutput != "" {
			format = formatFromExt(repOutput)
		}
		if format == "" {
			format = "markdown"
		}
		switch format {
		case "markdown", "md", "html", "text", "json":
		default:
			return fmt.Errorf("unsupported --format: %s (use markdown|html|text|json)", repFormat)
		}

		_, r, err := buildReport(cmd, repStart, repEnd, cfg.Segmentation)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		switch format {
		case "markdown", "md":
			buf.WriteString(r.Markdown())
		case "html":
			err = report.RenderHTML(&buf, r, report.HTMLOptions{Charts: chartOptions(), Logger: logger})
		case "text":
			err = report.RenderText(&buf, r)
		case "json":
			err = report.RenderJSON(&buf, r)
		}
		if err != nil {
			return err
		}

		if repOutput == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.EnsureDir(filepath.Dir(repOutput)); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := utils.SafeWriteFile(repOutput, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s report for %s to %s\n", format, r.Range, repOutput)
		if r.SegmentWarning != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠ %s\n", r.SegmentWarning)
		}
		return nil
	},
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "html"
	case ".json":
		return "json"
	case ".txt":
		return "text"
	}
	return ""
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&repStart, "start", "", "first date to include (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&repEnd, "end", "", "last date to include (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&repFormat, "format", "", "output format: markdown|html|text|json (default from -o extension, else markdown)")
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "write the report to a file instead of stdout")
}
