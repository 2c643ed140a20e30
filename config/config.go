package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"imagematcher/signalhandler"
	"imagematcher/utils"
)

type Config struct {
	Match   MatchConfig   `yaml:"match"`
	Vision  VisionConfig  `yaml:"vision"`
	Log     LogConfig     `yaml:"log"`
	History HistoryConfig `yaml:"history"`
}

type MatchConfig struct {
	Threshold      float64 `yaml:"threshold"` // 0..100, lower is stricter
	BatchSize      int     `yaml:"batch_size"`
	Workers        int     `yaml:"workers"`         // <= 0 means host parallelism
	FollowSymlinks bool    `yaml:"follow_symlinks"` // include symlinked image files
}

type VisionConfig struct {
	Width           int `yaml:"width"`
	Height          int `yaml:"height"`
	ThumbnailWidth  int `yaml:"thumbnail_width"`
	ThumbnailHeight int `yaml:"thumbnail_height"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Match: MatchConfig{
			Threshold:      utils.DefaultThreshold,
			BatchSize:      10,
			Workers:        signalhandler.GetOptimalProcs(),
			FollowSymlinks: true,
		},
		Vision: VisionConfig{
			Width:           400,
			Height:          300,
			ThumbnailWidth:  50,
			ThumbnailHeight: 50,
		},
		Log: LogConfig{
			File: "imagematcher.log",
		},
		History: HistoryConfig{
			Path: utils.GetDefaultDatabasePath(),
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// IMAGEMATCHER_* environment variables, in that order. A missing file is
// not an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if s := os.Getenv("IMAGEMATCHER_THRESHOLD"); s != "" {
		v, err := utils.ParseThreshold(s)
		if err != nil {
			return fmt.Errorf("IMAGEMATCHER_THRESHOLD: %w", err)
		}
		c.Match.Threshold = v
	}
	c.Match.BatchSize = envInt("IMAGEMATCHER_BATCH_SIZE", c.Match.BatchSize)
	c.Match.Workers = envInt("IMAGEMATCHER_WORKERS", c.Match.Workers)
	c.Vision.Width = envInt("IMAGEMATCHER_WIDTH", c.Vision.Width)
	c.Vision.Height = envInt("IMAGEMATCHER_HEIGHT", c.Vision.Height)
	if b, err := strconv.ParseBool(os.Getenv("IMAGEMATCHER_FOLLOW_SYMLINKS")); err == nil {
		c.Match.FollowSymlinks = b
	}
	if s := os.Getenv("IMAGEMATCHER_LOG_FILE"); s != "" {
		c.Log.File = s
	}
	if b, err := strconv.ParseBool(os.Getenv("IMAGEMATCHER_DEBUG")); err == nil {
		c.Log.Debug = b
	}
	if s := os.Getenv("IMAGEMATCHER_HISTORY_DB"); s != "" {
		c.History.Path = s
	}
	if b, err := strconv.ParseBool(os.Getenv("IMAGEMATCHER_HISTORY")); err == nil {
		c.History.Enabled = b
	}
	return nil
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if math.IsNaN(c.Match.Threshold) || c.Match.Threshold < 0 || c.Match.Threshold > 100 {
		return fmt.Errorf("threshold %.2f out of range [0, 100]", c.Match.Threshold)
	}
	if c.Match.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.Match.BatchSize)
	}
	if c.Vision.Width <= 0 || c.Vision.Height <= 0 {
		return fmt.Errorf("canonical size must be positive, got %dx%d", c.Vision.Width, c.Vision.Height)
	}
	if c.Vision.ThumbnailWidth <= 0 || c.Vision.ThumbnailHeight <= 0 {
		return fmt.Errorf("thumbnail size must be positive, got %dx%d", c.Vision.ThumbnailWidth, c.Vision.ThumbnailHeight)
	}
	return nil
}
