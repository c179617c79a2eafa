// logging/logger.go

package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/securenet/dyngroups/config"
)

// New builds the process logger. Components receive it through their constructors.
func New(cfg config.LogConfiguration) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()

	// LOG_LEVEL wins over the configured level
	levelName := cfg.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		levelName = env
	}
	if levelName != "" {
		level, err := zapcore.ParseLevel(levelName)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
		}
		zcfg.Level.SetLevel(level)
	}

	zcfg.OutputPaths = []string{"stdout"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zcfg.OutputPaths = append(zcfg.OutputPaths, filepath.Join(cfg.Dir, "dyngroups.log"))
		zcfg.ErrorOutputPaths = append(zcfg.ErrorOutputPaths, filepath.Join(cfg.Dir, "dyngroups_error.log"))
	}

	// Add caller and stack trace to log output
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.StacktraceKey = "stacktrace"

	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
