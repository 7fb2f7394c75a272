package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/bikedash/internal/analysis"
	"github.com/KaramelBytes/bikedash/internal/utils"
	"github.com/spf13/cobra"
)

var inspectOutput string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Profile the columns of the daily and hourly datasets",
	Long: `Print a schema summary of both datasets: numeric ranges, mean and standard
deviation, robust outlier counts, top categories and pairwise correlations.
Useful for checking a freshly cleaned export before building reports from it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDatasets(cmd)
		if err != nil {
			return err
		}
		md := analysis.ProfileDays(ds.Days).Markdown() + "\n" + analysis.ProfileHours(ds.Hours).Markdown()
		if inspectOutput == "" {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		if err := utils.EnsureDir(filepath.Dir(inspectOutput)); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := utils.SafeWriteFile(inspectOutput, []byte(md)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote dataset profile to %s\n", inspectOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectOutput, "output", "o", "", "write the profile to a file instead of stdout")
}
