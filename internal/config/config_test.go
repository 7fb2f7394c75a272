package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("dashboard", "day_clean.csv"), c.DayPath)
	assert.Equal(t, ":8080", c.ListenAddr)
	assert.True(t, c.Segmentation)
	assert.Equal(t, 5, c.HourRankLimit)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadPrecedence(t *testing.T) {
	home := isolate(t)
	c := &Global{DayPath: "from-file.csv", ListenAddr: ":9000", CacheEntries: 2, LogLevel: "warn"}
	require.NoError(t, Save(c, ""))
	_, err := os.Stat(filepath.Join(home, ".bikedash", "config.yaml"))
	require.NoError(t, err)

	t.Setenv("BIKEDASH_LISTEN_ADDR", ":7000")
	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-file.csv", got.DayPath)
	assert.Equal(t, ":7000", got.ListenAddr, "env wins over file")
	assert.Equal(t, 2, got.CacheEntries)
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("BIKEDASH_HOUR_PATH=data/hour.parquet\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("BIKEDASH_HOUR_PATH") })
	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data/hour.parquet", got.HourPath)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSetAndGet(t *testing.T) {
	c := &Global{}
	require.NoError(t, c.Set("hour_rank_limit", "3"))
	require.NoError(t, c.Set("segmentation", "false"))
	v, err := c.Get("hour_rank_limit")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
	v, err = c.Get("segmentation")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	assert.Error(t, c.Set("cache_entries", "0"))
	assert.Error(t, c.Set("log_level", "loud"))
	assert.Error(t, c.Set("nope", "x"))
	_, err = c.Get("nope")
	assert.Error(t, err)

	for _, k := range Keys() {
		_, err := c.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestDefaultsIgnoresEnvironment(t *testing.T) {
	t.Setenv("BIKEDASH_LISTEN_ADDR", ":1")
	c := Defaults()
	assert.Equal(t, ":8080", c.ListenAddr)
	assert.Equal(t, 4, c.CacheEntries)
}

func TestLoadExpandsHomeInPaths(t *testing.T) {
	home := isolate(t)
	require.NoError(t, Save(&Global{DayPath: "~/data/day_clean.csv", HourPath: "hour.csv", OutputDir: "~/out"}, ""))
	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "day_clean.csv"), got.DayPath)
	assert.Equal(t, "hour.csv", got.HourPath)
	assert.Equal(t, filepath.Join(home, "out"), got.OutputDir)
}

func TestLoadFileIgnoresEnvironment(t *testing.T) {
	isolate(t)
	require.NoError(t, Save(&Global{DayPath: "~/day.csv", ListenAddr: ":9000"}, ""))
	require.NoError(t, os.WriteFile(".env", []byte("BIKEDASH_HOUR_PATH=from-dotenv.csv\n"), 0o644))
	t.Setenv("BIKEDASH_LISTEN_ADDR", ":7000")

	got, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, ":9000", got.ListenAddr)
	assert.Equal(t, "~/day.csv", got.DayPath, "paths stay as written")
	assert.Empty(t, got.HourPath)
	assert.Equal(t, 5, got.HourRankLimit)
}
