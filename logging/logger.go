package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger: JSON at Info in production, text at
// Debug everywhere else.
func Init(env string) {
	var handler slog.Handler
	if strings.EqualFold(env, "production") {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithRequest returns a logger carrying the request's method and path.
func WithRequest(method, path string) *slog.Logger {
	return slog.With("method", method, "path", path)
}
