package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	cfgpkg "github.com/KaramelBytes/bikedash/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dayCSV = `dteday,season,weather_situation,category_days,humidity,count_rent,registered,casual
2011-01-01,Spring,Clear,weekend,0.81,985,654,331
2011-01-02,Spring,Mist,weekend,0.69,801,670,131
2011-01-03,Spring,Clear,weekday,0.44,1349,1229,120
`

const hourCSV = `instant,dteday,hours,category_days,count_rent,registered,casual
1,2011-01-01,0,weekend,16,13,3
2,2011-01-01,1,weekend,40,32,8
3,2011-01-02,0,weekend,17,13,4
4,2011-01-03,8,weekday,93,88,5
`

// resetFlags clears values and Changed state that cobra keeps between
// Execute calls on the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setupEnv isolates HOME and the working directory and writes both datasets.
func setupEnv(t *testing.T) (dir, dayPath, hourPath string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir = t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	dayPath = filepath.Join(dir, "day.csv")
	hourPath = filepath.Join(dir, "hour.csv")
	require.NoError(t, os.WriteFile(dayPath, []byte(dayCSV), 0o644))
	require.NoError(t, os.WriteFile(hourPath, []byte(hourCSV), 0o644))
	return dir, dayPath, hourPath
}

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	require.NoError(t, err, "command %v failed: %s", args, out)
	return out
}

func TestCLI_ReportMarkdownToStdout(t *testing.T) {
	_, day, hour := setupEnv(t)
	out := mustRun(t, "report", "--day", day, "--hour", hour)
	assert.Contains(t, out, "[BIKE SHARING REPORT]")
	assert.Contains(t, out, "3.135")
	assert.Contains(t, out, "[SEGMENTS]")

	out = mustRun(t, "report", "--day", day, "--hour", hour, "--start", "2011-01-02", "--end", "2011-01-03")
	assert.Contains(t, out, "2.150")
	assert.NotContains(t, out, "3.135")
}

func TestCLI_ReportFormatsFromExtension(t *testing.T) {
	dir, day, hour := setupEnv(t)

	jsonPath := filepath.Join(dir, "out", "report.json")
	out := mustRun(t, "report", "--day", day, "--hour", hour, "-o", jsonPath)
	assert.Contains(t, out, "✓ Wrote json report")
	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded struct {
		Totals struct {
			CountRent int64 `json:"count_rent"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, int64(3135), decoded.Totals.CountRent)

	htmlPath := filepath.Join(dir, "report.html")
	mustRun(t, "report", "--day", day, "--hour", hour, "-o", htmlPath)
	b, err = os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")

	out = mustRun(t, "report", "--day", day, "--hour", hour, "--format", "text")
	assert.Contains(t, out, "Total Rentals")
}

func TestCLI_ReportRejectsBadInput(t *testing.T) {
	_, day, hour := setupEnv(t)
	_, err := runCmd(t, "report", "--day", day, "--hour", hour, "--start", "2011-01-03", "--end", "2011-01-01")
	assert.Error(t, err)
	_, err = runCmd(t, "report", "--day", day, "--hour", hour, "--format", "pdf")
	assert.Error(t, err)
	_, err = runCmd(t, "report", "--day", "missing.csv", "--hour", hour)
	assert.Error(t, err)
}

func TestCLI_SegmentsWarnsOnTooFewGroups(t *testing.T) {
	_, day, hour := setupEnv(t)
	out := mustRun(t, "segments", "--day", day, "--hour", hour, "--start", "2011-01-02")
	assert.Contains(t, out, "Range: 2011-01-02")
	assert.Contains(t, out, "⚠")
}

func TestCLI_ExportWritesParquet(t *testing.T) {
	dir, day, hour := setupEnv(t)
	outDir := filepath.Join(dir, "export")
	out := mustRun(t, "export", "--day", day, "--hour", hour, "--dir", outDir)
	assert.Contains(t, out, "✓ Exported")
	for _, name := range []string{"day.parquet", "hour.parquet", "report.json"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestCLI_InspectProfilesBothDatasets(t *testing.T) {
	_, day, hour := setupEnv(t)
	out := mustRun(t, "inspect", "--day", day, "--hour", hour)
	assert.Contains(t, out, "[DATASET SUMMARY: DAY]")
	assert.Contains(t, out, "[DATASET SUMMARY: HOUR]")
	assert.Contains(t, out, "Rows: 4")
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	setupEnv(t)
	out := mustRun(t, "config", "set", "hour_rank_limit", "3")
	assert.Contains(t, out, "✓ Saved hour_rank_limit")

	out = mustRun(t, "config", "show")
	assert.Contains(t, out, "hour_rank_limit: 3")
	assert.Contains(t, out, "listen_addr: :8080")

	_, err := runCmd(t, "config", "set", "no_such_key", "1")
	assert.Error(t, err)
}

func TestCLI_ConfigSetDoesNotPersistEnvironment(t *testing.T) {
	setupEnv(t)
	t.Setenv("BIKEDASH_LISTEN_ADDR", ":7000")
	mustRun(t, "config", "set", "hour_rank_limit", "3")

	saved, err := cfgpkg.LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 3, saved.HourRankLimit)
	assert.Equal(t, ":8080", saved.ListenAddr)
}

func TestCLI_DatasetPathsExpandHome(t *testing.T) {
	_, _, hour := setupEnv(t)
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(home, "day.csv"), []byte(dayCSV), 0o644))

	out := mustRun(t, "report", "--day=~/day.csv", "--hour", hour)
	assert.Contains(t, out, "3.135")
}
