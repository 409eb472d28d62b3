package logging

import (
	"log/slog"
	"strings"
)

// ParseLevel reads a configured level name such as "debug", "WARN" or
// "info+2". A missing or unknown name gives fallback.
func ParseLevel(name *string, fallback slog.Level) slog.Level {
	if name == nil {
		return fallback
	}
	s := strings.TrimSpace(*name)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return fallback
	}
	return level
}
