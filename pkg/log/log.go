// Package log configures the process-wide structured logger.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs a text handler on stderr as the default slog logger.
// Unknown level names fall back to info so a typo in STUDYFLOW_LOG_LEVEL
// never silences the process.
func Setup(logLevel string) {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(strings.TrimSpace(logLevel))); err != nil {
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// WithModule returns the default logger tagged with the subsystem name.
// Every package logs through one of these so audit output can be filtered
// by the "module" attribute.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
