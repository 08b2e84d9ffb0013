// Package config loads, normalizes, and validates cliprate configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files from the standard location or an explicit
// path. The Config type centralizes every knob the daemon and CLI need: data
// and log directories, Telegram transport credentials and timeouts, and the
// survey catalog location.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
