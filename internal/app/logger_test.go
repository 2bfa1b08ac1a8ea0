package app

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerProductionUsesJSON(t *testing.T) {
	logger := NewLogger(&Config{AppEnv: "production", LogFormat: "pretty"})
	_, ok := logger.Handler().(*slog.JSONHandler)
	require.True(t, ok)
}

func TestNewLoggerDevelopmentHonorsFormat(t *testing.T) {
	logger := NewLogger(&Config{AppEnv: "development", LogFormat: "pretty"})
	_, ok := logger.Handler().(*slog.TextHandler)
	require.True(t, ok)

	logger = NewLogger(&Config{AppEnv: "development", LogFormat: "json"})
	_, ok = logger.Handler().(*slog.JSONHandler)
	require.True(t, ok)
}
