package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger for the given environment.
// "production" yields a JSON logger at info level; anything else a colored development logger at debug level.
// A non-empty level overrides the default for either mode.
func New(env, level string) (*zap.Logger, error) {
	if env == "production" {
		cfg := zap.NewProductionConfig()
		// Include caller and stacktrace on error in production
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(level, zapcore.InfoLevel))
		return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level, zapcore.DebugLevel))
	return cfg.Build(zap.AddCaller())
}

// FromEnv reads LOG_ENV (falling back to APP_ENV) and LOG_LEVEL.
func FromEnv() (*zap.Logger, error) {
	env := os.Getenv("LOG_ENV")
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	return New(env, os.Getenv("LOG_LEVEL"))
}

func parseLevel(level string, fallback zapcore.Level) zapcore.Level {
	if strings.TrimSpace(level) == "" {
		return fallback
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fallback
	}
	return l
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
