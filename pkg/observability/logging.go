// Package observability provides logging and metrics plumbing shared by the
// composition core and the reference application.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. Production environments get JSON
// output with sampling; everything else gets the human-readable development
// encoder.
func NewLogger(environment, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
