package common

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dreamer-zq/savekit/internal/config"
)

// NewLogger builds a zap logger from the logging configuration
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Environment == "pro" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// LogMsgDo runs fn and reports a failure on stderr, tagged with msg. Meant for defers.
func LogMsgDo(msg string, fn func() error) {
	if err := fn(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error in %s: %v\n", msg, err)
	}
}
