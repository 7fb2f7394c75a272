package cmd

import (
	"fmt"

	"github.com/KaramelBytes/bikedash/internal/report"
	"github.com/spf13/cobra"
)

var (
	segStart string
	segEnd   string
	segLimit int
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "Print the RFM segmentation table for a date range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, r, err := buildReport(cmd, segStart, segEnd, true)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Range: %s\n", r.Range)
		fmt.Fprintf(out, "Note: %s\n", r.GroupingNote)
		if r.SegmentWarning != "" {
			// not fatal: the dashboard shows the same warning in place of the chart
			fmt.Fprintf(out, "⚠ %s\n", r.SegmentWarning)
			return nil
		}
		fmt.Fprintf(out, "Reference date: %s\n\n", r.RFM.ReferenceDate.Format("2006-01-02"))
		for _, s := range r.Segments {
			fmt.Fprintf(out, "%-14s %5d groups %12s rentals\n", s.Segment, s.Groups, report.FormatThousands(s.Rentals))
		}
		fmt.Fprintf(out, "\n%10s %8s %9s %9s %4s  %s\n", "registered", "recency", "frequency", "monetary", "rfm", "segment")
		rows := r.RFM.Rows
		if segLimit > 0 && len(rows) > segLimit {
			rows = rows[:segLimit]
		}
		for _, row := range rows {
			fmt.Fprintf(out, "%10d %8d %9d %9d %4s  %s\n", row.Registered, row.Recency, row.Frequency, row.Monetary, row.Code, row.Segment)
		}
		if len(rows) < len(r.RFM.Rows) {
			fmt.Fprintf(out, "... %d more groups (use --limit 0 to show all)\n", len(r.RFM.Rows)-len(rows))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
	segmentsCmd.Flags().StringVar(&segStart, "start", "", "first date to include (YYYY-MM-DD)")
	segmentsCmd.Flags().StringVar(&segEnd, "end", "", "last date to include (YYYY-MM-DD)")
	segmentsCmd.Flags().IntVar(&segLimit, "limit", 20, "maximum groups to list (0 = all)")
}
