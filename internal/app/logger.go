package app

import (
	"log/slog"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/internal/config"
)

// NewLogger returns the process logger. Development output is concise text at
// debug level, other environments log JSON at info level.
func NewLogger(cfg *config.Config) *httplog.Logger {
	opts := httplog.Options{
		LogLevel: slog.LevelInfo,
		JSON:     true,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	}

	if cfg.Env == config.EnvDev {
		opts.LogLevel = slog.LevelDebug
		opts.JSON = false
		opts.Concise = true
	}

	return httplog.NewLogger("shortlink", opts)
}
