// Package logging constructs the application slog logger and provides
// attribute helpers shared across components.
package logging
