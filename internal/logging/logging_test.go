package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	logger, closer := New(Options{Level: "info", File: path})

	logger.Debug("hidden")
	logger.Info("prompt rendered", "model", "midjourney")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"prompt rendered"`)
	assert.Contains(t, string(data), `"model":"midjourney"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewCustomOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(Options{Level: "debug", Output: &buf})
	defer closer.Close()

	logger.Debug("catalog loaded", "categories", 51)
	assert.Contains(t, buf.String(), `"categories":51`)
}
