package logger

import (
	"io"
	"log/slog"
	"strings"
)

func levelFromString(s string) (l slog.Level, ok bool) {
	switch strings.ToLower(s) {
	case "debug", "dbg":
		return slog.LevelDebug, true
	case "info", "inf":
		return slog.LevelInfo, true
	case "warn", "wrn", "warning":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Init installs a text handler writing to w as the default logger. An
// unknown level falls back to info and is reported once.
func Init(w io.Writer, level string) {
	loglevel, ok := levelFromString(level)

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: loglevel})
	slog.SetDefault(slog.New(handler))

	if !ok && level != "" {
		slog.Warn("unknown log level, using info", "level", level)
	}
}
