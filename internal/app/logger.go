package app

import (
	"io"
	"log/slog"
	"strings"
)

// parseLevel maps a level name to a slog level. Empty or unknown names
// select info.
func parseLevel(levelStr string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(levelStr))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// newLogger creates a logger writing to outW. It does not set the global
// logger, so every App keeps an isolated instance. Any format other than
// "json" selects the text handler.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}

	var handler slog.Handler
	if strings.EqualFold(formatStr, "json") {
		handler = slog.NewJSONHandler(outW, opts)
	} else {
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler)
}
