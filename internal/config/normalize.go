package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTelegram(); err != nil {
		return err
	}
	if err := c.normalizeSurvey(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTelegram() error {
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	c.Telegram.BaseURL = strings.TrimRight(strings.TrimSpace(c.Telegram.BaseURL), "/")
	if c.Telegram.BaseURL == "" {
		c.Telegram.BaseURL = defaultBaseURL
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = defaultPollTimeout
	}
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = defaultRequestTimeout
	}
	if c.Telegram.TokenPath == "" {
		return nil
	}
	expanded, err := expandPath(c.Telegram.TokenPath)
	if err != nil {
		return fmt.Errorf("telegram.token_path: %w", err)
	}
	c.Telegram.TokenPath = expanded
	return nil
}

func (c *Config) normalizeSurvey() error {
	if c.Survey.VideosPerTheme <= 0 {
		c.Survey.VideosPerTheme = defaultVideosPerTheme
	}
	if c.Survey.CatalogPath == "" {
		return nil
	}
	expanded, err := expandPath(c.Survey.CatalogPath)
	if err != nil {
		return fmt.Errorf("survey.catalog_path: %w", err)
	}
	c.Survey.CatalogPath = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
