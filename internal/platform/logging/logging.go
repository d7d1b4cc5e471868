// internal/platform/logging/logging.go
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. format is "json" (production encoder) or
// "console" (development encoder). level accepts zap level names.
func New(format, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
			return nil, fmt.Errorf("logging: level %q: %w", level, err)
		}
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// MaskID keeps the first 8 characters of an opaque id.
func MaskID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "…"
}
