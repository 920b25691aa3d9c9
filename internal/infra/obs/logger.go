package obs

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the process logger: tinted console output for local
// development, JSON elsewhere. Debug level is enabled outside production so
// the settlement handlers can be traced without a config flag.
func NewLogger(env string) *slog.Logger {
	env = strings.ToLower(strings.TrimSpace(env))
	prod := env == "prod" || env == "production"

	level := slog.LevelDebug
	if prod {
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch env {
	case "dev", "local", "test", "testing":
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
	}
	return slog.New(handler).With("service", "homelet")
}
