// Package logger wraps zap behind the project-wide logging contract.
package logger

import (
	"go.uber.org/zap"
)

// InterfaceLogger is the contract every component depends on. Components take
// a logger at construction time; nothing reaches for a package-level default.
type InterfaceLogger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Fatal(args ...interface{})
	Sync() error
}

// Config controls logger construction.
type Config struct {
	Level       string `yaml:"level" env:"LOG_LEVEL"`
	Development bool   `yaml:"development" env:"LOG_DEV"`
}

// Logger is the concrete zap-backed implementation of InterfaceLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

var _ InterfaceLogger = (*Logger)(nil)

// NewLogger builds a Logger from Config. An empty/invalid level falls back to info.
func NewLogger(cfg *Config) (*Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg != nil && cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}
	}

	var zc zap.Config
	if cfg != nil && cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level

	zl, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zl.Sugar()}, nil
}

func (l *Logger) Infof(template string, args ...interface{})  { l.sugar.Infof(template, args...) }
func (l *Logger) Errorf(template string, args ...interface{}) { l.sugar.Errorf(template, args...) }
func (l *Logger) Fatalf(template string, args ...interface{}) { l.sugar.Fatalf(template, args...) }
func (l *Logger) Fatal(args ...interface{})                   { l.sugar.Fatal(args...) }
func (l *Logger) Sync() error                                 { return l.sugar.Sync() }
