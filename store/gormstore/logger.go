package gormstore

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// zapWriter lets gorm's logger print through zap.
type zapWriter struct {
	l *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.l.Infof(format, args...)
}

// newLogger logs every statement when verbose, otherwise only slow queries
// and errors. A nil zap logger silences gorm.
func newLogger(l *zap.Logger, verbose bool) logger.Interface {
	if l == nil {
		return logger.Default.LogMode(logger.Silent)
	}
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	return logger.New(zapWriter{l.Sugar()}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
