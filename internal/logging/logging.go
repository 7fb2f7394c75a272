// Package logging builds the zap logger shared by commands and the server.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing to stderr at the given level. debug
// switches to the human-readable development encoder at debug level.
func New(level string, debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		lvl := zapcore.InfoLevel
		if strings.TrimSpace(level) != "" {
			parsed, err := zapcore.ParseLevel(level)
			if err != nil {
				return nil, fmt.Errorf("parse log level: %w", err)
			}
			lvl = parsed
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.Sampling = nil
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
