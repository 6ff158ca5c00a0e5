package orm

import (
	"fmt"

	"go.uber.org/zap"
)

type LogLevel int

const (
	LogLevelDev LogLevel = iota
	LogLevelProd
)

// Logger receives every statement a connection runs at debug level.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NewLogger builds a Logger from zap's development or production preset.
func NewLogger(level LogLevel) (Logger, error) {
	var cfg zap.Config
	switch level {
	case LogLevelDev:
		cfg = zap.NewDevelopmentConfig()
	case LogLevelProd:
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("log level should be either LogLevelDev or LogLevelProd, got %d", level)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return ZapLogger(l), nil
}

// ZapLogger adapts an existing zap logger. Callers are reported as the
// orm call site, not this adapter.
func ZapLogger(l *zap.Logger) Logger {
	return zapLogger{l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

type zapLogger struct {
	l *zap.SugaredLogger
}

func (z zapLogger) Debugf(format string, args ...any) { z.l.Debugf(format, args...) }
func (z zapLogger) Infof(format string, args ...any)  { z.l.Infof(format, args...) }
func (z zapLogger) Warnf(format string, args ...any)  { z.l.Warnf(format, args...) }
func (z zapLogger) Errorf(format string, args ...any) { z.l.Errorf(format, args...) }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
