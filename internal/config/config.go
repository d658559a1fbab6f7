// Package config loads the player configuration from TOML files.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Audio output settings.
	SampleRate int `koanf:"sample_rate"` // output sample rate in Hz
	BufferMs   int `koanf:"buffer_ms"`   // device buffer period
	ProgressMs int `koanf:"progress_ms"` // progress event period

	Volume float64 `koanf:"volume"` // initial volume when no saved state exists

	// MusicFolder is scanned when no paths are given on the command line.
	MusicFolder string `koanf:"music_folder"`

	Log LogConfig `koanf:"log"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
	File  string `koanf:"file"`  // empty disables the file sink
}

// Load reads config files in order of priority (last wins): the xdg
// config dir, then ./tide.toml. Missing files are skipped.
func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.MusicFolder != "" {
		cfg.MusicFolder = expandPath(cfg.MusicFolder)
	}
	cfg.clamp()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		SampleRate: 44100,
		BufferMs:   100,
		ProgressMs: 250,
		Volume:     0.8,
		Log:        LogConfig{Level: "info"},
	}
}

func (c *Config) clamp() {
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.BufferMs <= 0 {
		c.BufferMs = 100
	}
	if c.ProgressMs <= 0 {
		c.ProgressMs = 250
	}
	if c.Volume < 0 {
		c.Volume = 0
	}
	if c.Volume > 1 {
		c.Volume = 1
	}
}

func configPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, "tide", "config.toml"),
		// ./tide.toml has the highest priority.
		"tide.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
