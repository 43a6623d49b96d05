package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
)

func TestTextFormatSelection(t *testing.T) {
	assert.True(t, textFormat(coreconfig.LoggingConfig{Format: "kv"}))
	assert.True(t, textFormat(coreconfig.LoggingConfig{Format: " Pretty "}))
	assert.False(t, textFormat(coreconfig.LoggingConfig{Format: "json", Profile: "dev"}))
	assert.True(t, textFormat(coreconfig.LoggingConfig{Profile: "DEBUG"}))
	assert.False(t, textFormat(coreconfig.LoggingConfig{}))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel(" ERROR "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestOpenSinksCreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	w, err := openSinks(coreconfig.LoggingConfig{Dir: dir, BotFile: "bot.log"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Shutdown() })

	_, err = w.Write([]byte("line\n"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "bot.log"))
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
}

func TestOpenSinksStdoutOnly(t *testing.T) {
	w, err := openSinks(coreconfig.LoggingConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Same(t, os.Stdout, w)
}
