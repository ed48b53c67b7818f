package main

import (
	"fmt"
	"os"
	"path/filepath"

	env "github.com/Netflix/go-env"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Send    SendConfig    `yaml:"send"`
	Tracker TrackerConfig `yaml:"tracker"`
	Logging LoggingConfig `yaml:"logging"`
}

type BrowserConfig struct {
	Variant             string `yaml:"variant" env:"WASENDER_BROWSER"`
	ExecPath            string `yaml:"exec_path" env:"WASENDER_BROWSER_PATH"`
	ProfileDir          string `yaml:"profile_dir" env:"WASENDER_PROFILE_DIR"`
	Headless            bool   `yaml:"headless" env:"WASENDER_HEADLESS"`
	LoginProbeSeconds   int    `yaml:"login_probe_seconds"`
	ReadyTimeoutSeconds int    `yaml:"ready_timeout_seconds"`
}

type SendConfig struct {
	RetryAttempts     int    `yaml:"retry_attempts"`
	CooldownMinMillis int    `yaml:"cooldown_min_millis"`
	CooldownMaxMillis int    `yaml:"cooldown_max_millis"`
	MessagesPerMinute int    `yaml:"messages_per_minute" env:"WASENDER_MESSAGES_PER_MINUTE"`
	ScreenshotDir     string `yaml:"screenshot_dir"`
}

type TrackerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" env:"WASENDER_LOG_LEVEL"`
	OutputFile string `yaml:"output_file"`
}

// LoadConfig reads the YAML config file, applies environment overrides and
// fills in defaults. A missing file is not an error; the defaults alone make
// a runnable configuration.
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() error {
	if c.Browser.Variant == "" {
		c.Browser.Variant = "chrome"
	}
	if c.Browser.ProfileDir == "" {
		c.Browser.ProfileDir = "./browser-profile"
	}

	// The profile directory outlives a single run, so pin it down to an
	// absolute path before the browser process inherits it.
	absProfile, err := filepath.Abs(c.Browser.ProfileDir)
	if err != nil {
		return fmt.Errorf("failed to resolve profile directory path: %w", err)
	}
	c.Browser.ProfileDir = absProfile

	if c.Browser.LoginProbeSeconds == 0 {
		c.Browser.LoginProbeSeconds = 30
	}
	if c.Browser.ReadyTimeoutSeconds == 0 {
		c.Browser.ReadyTimeoutSeconds = 60
	}
	if c.Send.RetryAttempts == 0 {
		c.Send.RetryAttempts = 3
	}
	if c.Send.CooldownMinMillis == 0 {
		c.Send.CooldownMinMillis = 2000
	}
	if c.Send.CooldownMaxMillis == 0 {
		c.Send.CooldownMaxMillis = 5000
	}
	if c.Send.CooldownMaxMillis < c.Send.CooldownMinMillis {
		c.Send.CooldownMaxMillis = c.Send.CooldownMinMillis
	}
	if c.Send.ScreenshotDir == "" {
		c.Send.ScreenshotDir = "."
	}
	if c.Tracker.Path == "" {
		c.Tracker.Path = "sent.csv"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
