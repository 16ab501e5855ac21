// Package logging builds the process logger and sanitizes user-supplied
// text before it reaches the logs.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger creates the process logger. Production environments get JSON
// output; everything else gets the development console encoder.
func NewLogger(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
