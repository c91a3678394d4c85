// Package logger builds the zap logger for an environment.
//
//	prod     JSON at INFO, ISO8601 "timestamp" key, for log aggregators
//	staging  JSON at DEBUG
//	dev      human-readable console output at DEBUG (also the fallback)
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

// New returns a *zap.Logger configured for env.
func New(env string) (*zap.Logger, error) {
	switch env {
	case EnvProd:
		return productionConfig(zapcore.InfoLevel).Build()
	case EnvStaging:
		return productionConfig(zapcore.DebugLevel).Build()
	default:
		return zap.NewDevelopment()
	}
}

func productionConfig(level zapcore.Level) zap.Config {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config
}
