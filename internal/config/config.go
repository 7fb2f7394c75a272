package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/KaramelBytes/bikedash/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DayPath  string `mapstructure:"day_path" yaml:"day_path"`
	HourPath string `mapstructure:"hour_path" yaml:"hour_path"`

	// HTTP dashboard
	ListenAddr   string `mapstructure:"listen_addr" yaml:"listen_addr"`
	CacheEntries int    `mapstructure:"cache_entries" yaml:"cache_entries"`

	// Report content
	Segmentation  bool `mapstructure:"segmentation" yaml:"segmentation"`
	HourRankLimit int  `mapstructure:"hour_rank_limit" yaml:"hour_rank_limit"`
	ChartWidth    int  `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight   int  `mapstructure:"chart_height" yaml:"chart_height"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

var defaults = map[string]any{
	"day_path":        filepath.Join("dashboard", "day_clean.csv"),
	"hour_path":       filepath.Join("dashboard", "hour_clean.csv"),
	"listen_addr":     ":8080",
	"cache_entries":   4,
	"segmentation":    true,
	"hour_rank_limit": 5,
	"chart_width":     960,
	"chart_height":    480,
	"log_level":       "info",
	"output_dir":      "export",
}

// Keys lists every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultPath returns ~/.bikedash/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".bikedash", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.bikedash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is read first and never overrides variables already set.
// Path settings starting with "~/" are expanded to the home directory.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c, err := read(cfgFile, true)
	if err != nil {
		return nil, err
	}
	for _, p := range []*string{&c.DayPath, &c.HourPath, &c.OutputDir} {
		if *p, err = utils.ExpandHome(*p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadFile reads only the config file over the defaults, leaving values as
// written. It is the base for edits that are saved back to disk.
func LoadFile(cfgFile string) (*Global, error) {
	return read(cfgFile, false)
}

func read(cfgFile string, env bool) (*Global, error) {
	v := viper.New()
	if env {
		v.SetEnvPrefix("BIKEDASH")
		v.AutomaticEnv()
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set assigns a value given as text to key.
func (c *Global) Set(key, val string) error {
	atoi := func(lowest int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < lowest {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "day_path":
		c.DayPath = val
	case "hour_path":
		c.HourPath = val
	case "listen_addr":
		c.ListenAddr = val
	case "cache_entries":
		c.CacheEntries, err = atoi(1)
	case "segmentation":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return fmt.Errorf("invalid bool for segmentation: %v", val)
		}
		c.Segmentation = b
	case "hour_rank_limit":
		c.HourRankLimit, err = atoi(0)
	case "chart_width":
		c.ChartWidth, err = atoi(100)
	case "chart_height":
		c.ChartHeight, err = atoi(100)
	case "log_level":
		switch val {
		case "debug", "info", "warn", "error":
			c.LogLevel = val
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "output_dir":
		c.OutputDir = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

// Get returns the text form of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "day_path":
		return c.DayPath, nil
	case "hour_path":
		return c.HourPath, nil
	case "listen_addr":
		return c.ListenAddr, nil
	case "cache_entries":
		return strconv.Itoa(c.CacheEntries), nil
	case "segmentation":
		return strconv.FormatBool(c.Segmentation), nil
	case "hour_rank_limit":
		return strconv.Itoa(c.HourRankLimit), nil
	case "chart_width":
		return strconv.Itoa(c.ChartWidth), nil
	case "chart_height":
		return strconv.Itoa(c.ChartHeight), nil
	case "log_level":
		return c.LogLevel, nil
	case "output_dir":
		return c.OutputDir, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Defaults returns the built-in configuration without reading any file or
// environment variable.
func Defaults() *Global {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}
