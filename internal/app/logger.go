package app

import (
	"log/slog"
	"os"
)

// NewLogger returns a configured slog.Logger. Production runs emit JSON
// without source locations; elsewhere the handler follows LOG_FORMAT and
// adds the call site so log lines point back at the code.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: !cfg.IsProduction()}
	if cfg.IsProduction() || (cfg != nil && cfg.LogFormat == "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
