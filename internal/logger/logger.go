package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New builds the logger for the given output format and level
func New(format, level string) (*zap.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		return NewCLILogger(level)
	case FormatJSON:
		return NewProductionLogger(level)
	default:
		return nil, fmt.Errorf("invalid log format %q: must be one of %s, %s", format, FormatConsole, FormatJSON)
	}
}

// NewProductionLogger creates a JSON logger on stderr for log collectors
func NewProductionLogger(level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build production logger: %w", err)
	}
	return logger, nil
}

// NewCLILogger creates a console logger on stderr at the given level.
// Stack traces are disabled so errors reach the user as a single line.
func NewCLILogger(level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Development = false
	config.DisableStacktrace = true
	config.DisableCaller = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build CLI logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a textual level to a zap level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
