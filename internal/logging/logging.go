// Package logging builds the run logger.
package logging

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger on stderr. verbose enables debug, quiet raises
// the level to warn; verbose wins when both are set. Every entry carries
// the run_id of this invocation.
func New(verbose, quiet bool) (*zap.Logger, string, error) {
	config := zap.NewProductionConfig()
	switch {
	case verbose:
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case quiet:
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	config.Sampling = nil
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize logger: %w", err)
	}
	runID := uuid.NewString()
	return logger.With(zap.String("run_id", runID)), runID, nil
}
