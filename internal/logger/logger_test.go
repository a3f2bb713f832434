package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerBuilder_Default(t *testing.T) {
	logger, err := NewLoggerBuilder().WithConsoleOutput(&bytes.Buffer{}).Build()
	require.NoError(t, err)

	cfg := logger.GetConfig()
	assert.Equal(t, zerolog.InfoLevel, cfg.Level)
	assert.Equal(t, FormatConsole, cfg.Format)
	assert.True(t, cfg.EnableConsole)
	assert.False(t, cfg.EnableFile)
}

func TestLoggerBuilder_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerBuilder().
		WithFormat(FormatJSON).
		WithLevel(zerolog.WarnLevel).
		WithConsoleOutput(&buf).
		Build()
	require.NoError(t, err)

	logger.GetZerolog().Info().Msg("hidden")
	logger.GetZerolog().Warn().Str("component", "FileWatcher").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"component":"FileWatcher"`)
}

func TestLoggerBuilder_FileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "test.log")

	logger, err := NewLoggerBuilder().
		WithLevel(zerolog.DebugLevel).
		WithFormat(FormatJSON).
		WithFile(logFile, 1, 1).
		WithConsole(false).
		Build()
	require.NoError(t, err)

	logger.GetZerolog().Debug().Msg("this is a test")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"level":"debug"`)
	assert.Contains(t, string(content), `"message":"this is a test"`)
}

func TestLoggerBuilder_NoWriters(t *testing.T) {
	_, err := NewLoggerBuilder().WithConsole(false).Build()
	assert.Error(t, err)
}

func TestLoggerBuilder_FileWithoutPath(t *testing.T) {
	_, err := NewLoggerBuilder().WithFile("", 1, 1).Build()
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestNew_FromConfig(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	logger, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, logger.GetConfig().Level)
	assert.Equal(t, FormatText, logger.GetConfig().Format)
	assert.NoError(t, logger.Close())

	cfg.LogLevel = "loud"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestConfigConverter(t *testing.T) {
	out, err := NewConfigConverter().ConvertConfig(config.LogConfig{LogFile: "/tmp/x.log"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, out.Level)
	assert.Equal(t, FormatConsole, out.Format)
	assert.True(t, out.EnableFile)
	assert.Equal(t, config.DefaultMaxLogSizeMB, out.MaxSizeMB)
	assert.Equal(t, config.DefaultMaxLogBackups, out.MaxBackups)
}

func TestParsers(t *testing.T) {
	levels := NewLogLevelParser()
	level, err := levels.ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, level)
	_, err = levels.ParseLevel("")
	assert.Error(t, err)

	formats := NewLogFormatParser()
	assert.Equal(t, FormatJSON, formats.ParseFormat("JSON"))
	assert.Equal(t, FormatText, formats.ParseFormat("text"))
	assert.Equal(t, FormatConsole, formats.ParseFormat("unknown"))
	assert.Equal(t, "json", FormatJSON.String())
}
