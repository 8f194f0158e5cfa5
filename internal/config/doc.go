// Package config loads, validates, and normalizes the medialink TOML
// configuration.
package config
