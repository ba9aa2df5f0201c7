package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr      string `yaml:"listen_addr"`
	ScenePath       string `yaml:"scene_path"`
	AssetBase       string `yaml:"asset_base"`
	LogLevel        string `yaml:"log_level"`
	PlayerRateLimit int    `yaml:"player_rate_limit"` // milliseconds between commands
	PlayersCanRez   bool   `yaml:"players_can_rez"`
	Audio           Audio  `yaml:"audio"`
	Tool            Tool   `yaml:"tool"`
}

type Audio struct {
	Enabled    bool `yaml:"enabled"`
	SampleRate int  `yaml:"sample_rate"`
	BufferMs   int  `yaml:"buffer_ms"`
}

type Tool struct {
	ResetDelayMs int     `yaml:"reset_delay_ms"`
	Volume       float64 `yaml:"volume"`
}

func Default() *Config {
	return &Config{
		ListenAddr:      ":4000",
		ScenePath:       "data/scene.lua",
		AssetBase:       "data",
		LogLevel:        "info",
		PlayerRateLimit: 250,
		PlayersCanRez:   true,
		Audio: Audio{
			SampleRate: 44100,
			BufferMs:   100,
		},
		Tool: Tool{
			ResetDelayMs: 5000,
			Volume:       0.3,
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("read config '%s': %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config '%s': %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.ScenePath == "" {
		errs = append(errs, errors.New("scene_path is required"))
	}
	if c.PlayerRateLimit < 0 {
		errs = append(errs, fmt.Errorf("player_rate_limit must not be negative, got %d", c.PlayerRateLimit))
	}
	if c.Tool.ResetDelayMs <= 0 {
		errs = append(errs, fmt.Errorf("tool.reset_delay_ms must be positive, got %d", c.Tool.ResetDelayMs))
	}
	if c.Tool.Volume < 0 || c.Tool.Volume > 1 {
		errs = append(errs, fmt.Errorf("tool.volume must be within [0, 1], got %g", c.Tool.Volume))
	}
	if c.Audio.Enabled && c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.Enabled && c.Audio.BufferMs <= 0 {
		errs = append(errs, fmt.Errorf("audio.buffer_ms must be positive, got %d", c.Audio.BufferMs))
	}

	return errors.Join(errs...)
}

func (c *Config) ResetDelay() time.Duration {
	return time.Duration(c.Tool.ResetDelayMs) * time.Millisecond
}

func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.PlayerRateLimit) * time.Millisecond
}
