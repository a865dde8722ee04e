// Package logging builds the file-backed zap logger. The terminal belongs to
// the UI, so nothing is written to stdout or stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options select the log destination and verbosity.
type Options struct {
	Path  string
	Level string // debug, info, warn, error; empty means info
}

// New opens (or creates) the log file and returns a JSON logger writing to
// it. The returned close function flushes and closes the file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if raw := strings.TrimSpace(opts.Level); raw != "" {
		parsed, err := zapcore.ParseLevel(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, nil, fmt.Errorf("log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(file), level)
	logger := zap.New(core, zap.AddCaller())

	closeFn := func() error {
		_ = logger.Sync()
		return file.Close()
	}
	return logger, closeFn, nil
}
