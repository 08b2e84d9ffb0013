package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateSurvey(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if err := ensurePositiveMap(map[string]int{
		"telegram.poll_timeout":    c.Telegram.PollTimeout,
		"telegram.request_timeout": c.Telegram.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Telegram.RequestTimeout <= c.Telegram.PollTimeout {
		return errors.New("telegram.request_timeout must be greater than telegram.poll_timeout")
	}
	if !strings.HasPrefix(c.Telegram.BaseURL, "http://") && !strings.HasPrefix(c.Telegram.BaseURL, "https://") {
		return fmt.Errorf("telegram.base_url %q must be an http(s) URL", c.Telegram.BaseURL)
	}
	return nil
}

func (c *Config) validateSurvey() error {
	if c.Survey.VideosPerTheme <= 0 {
		return errors.New("survey.videos_per_theme must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive (seconds)", key)
		}
	}
	return nil
}
