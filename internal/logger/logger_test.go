package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"empty format uses the console logger", ""},
		{"console format", "console"},
		{"json format", "json"},
		{"format is case insensitive", " JSON "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.format, "warn")

			require.NoError(t, err)
			assert.IsType(t, &zap.Logger{}, logger)
			assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
			assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
		})
	}

	t.Run("should reject an unknown format", func(t *testing.T) {
		logger, err := New("xml", "info")

		assert.Nil(t, logger)
		assert.EqualError(t, err, `invalid log format "xml": must be one of console, json`)
	})
}

func TestNewProductionLogger(t *testing.T) {
	t.Run("should honour the requested level", func(t *testing.T) {
		// Act
		logger, err := NewProductionLogger("debug")

		// Assert
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("should reject an unknown level", func(t *testing.T) {
		logger, err := NewProductionLogger("loud")

		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestNewCLILogger(t *testing.T) {
	t.Run("should honour the requested level", func(t *testing.T) {
		logger, err := NewCLILogger("warn")
		require.NoError(t, err)

		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("should default to info for an empty level", func(t *testing.T) {
		logger, err := NewCLILogger("")
		require.NoError(t, err)

		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("should reject an unknown level", func(t *testing.T) {
		logger, err := NewCLILogger("chatty")

		assert.Error(t, err)
		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" error ", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lvl, err := ParseLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, lvl)
		})
	}
}
