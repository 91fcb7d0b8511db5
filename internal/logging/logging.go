// Package logging builds the zap loggers used by every command
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is written inside the data dir when logging to a file
const LogFileName = "natal-terminal.log"

// New builds a production JSON logger at level writing to stderr
func New(level string) (*zap.Logger, error) {
	return build(level, []string{"stderr"})
}

// NewFile builds a production JSON logger that appends to a file under
// dataDir, keeping the terminal free for the TUI
func NewFile(level, dataDir string) (*zap.Logger, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return build(level, []string{filepath.Join(dataDir, LogFileName)})
}

func build(level string, outputs []string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = outputs
	config.ErrorOutputPaths = outputs
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("natal"), nil
}
