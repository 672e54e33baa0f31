package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setStateHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return dir
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{-1, zerolog.WarnLevel},
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestSetupLogger_WritesConsoleAndFile(t *testing.T) {
	dir := setStateHome(t)
	var console bytes.Buffer

	closeLog := SetupLogger(1, &console)
	logger := GetLogger("runner")
	logger.Info().Str("step", "python").Msg("Starting Python")
	closeLog()

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	assert.Contains(t, console.String(), "Starting Python")

	data, err := os.ReadFile(filepath.Join(dir, "devstrap", "devstrap.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"runner"`)
	assert.Contains(t, string(data), `"step":"python"`)
}

func TestSetupLogger_FileOnly(t *testing.T) {
	dir := setStateHome(t)

	closeLog := SetupLogger(0, nil)
	log.Warn().Msg("quiet warning")
	closeLog()

	data, err := os.ReadFile(filepath.Join(dir, "devstrap", "devstrap.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "quiet warning"))
}

func TestLogFilePath(t *testing.T) {
	dir := setStateHome(t)

	assert.Equal(t, filepath.Join(dir, "devstrap", "devstrap.log"), LogFilePath())
	assert.Equal(t, filepath.Join(dir, "devstrap"), StateDir())
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	done := LogOperationStart(logger, "provision")
	done()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"operation":"provision"`)
	assert.Contains(t, lines[0], "Operation started")
	assert.Contains(t, lines[1], `"duration"`)
	assert.Contains(t, lines[1], "Operation completed")
}
