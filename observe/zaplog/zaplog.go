// Package zaplog provides a coop.Observer that writes structured log entries
// with go.uber.org/zap.
package zaplog

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/NetPo4ki/go-coop/coop"
)

type Option func(*Logger)

// WithLevel sets the level of routine events. Task failures and panics are
// always logged at error level. The default is debug.
func WithLevel(l zapcore.Level) Option { return func(o *Logger) { o.level = l } }

// Logger implements coop.Observer on top of a *zap.Logger.
type Logger struct {
	log   *zap.Logger
	level zapcore.Level
}

var _ coop.Observer = (*Logger)(nil)

// New returns an observer writing to log. A nil log discards everything.
func New(log *zap.Logger, opts ...Option) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Logger{log: log, level: zapcore.DebugLevel}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Logger) emit(msg string, fields ...zap.Field) {
	if ce := l.log.Check(l.level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *Logger) LockAcquired(name string, p coop.Permission, wait time.Duration) {
	l.emit("lock acquired", zap.String("name", name), zap.Stringer("permission", p), zap.Duration("wait", wait))
}

func (l *Logger) LockReleased(name string, p coop.Permission) {
	l.emit("lock released", zap.String("name", name), zap.Stringer("permission", p))
}

func (l *Logger) CounterChanged(name string, counter int) {
	l.emit("counter changed", zap.String("name", name), zap.Int("counter", counter))
}

func (l *Logger) GroupJoined(name string, wait time.Duration) {
	l.emit("group joined", zap.String("name", name), zap.Duration("wait", wait))
}

func (l *Logger) TaskScheduled(_ context.Context, name string) {
	l.emit("task scheduled", zap.String("name", name))
}

func (l *Logger) TaskFinished(_ context.Context, name string, dur time.Duration, err error, panicked bool) {
	fields := []zap.Field{zap.String("name", name), zap.Duration("duration", dur)}
	switch {
	case panicked:
		l.log.Error("task panicked", append(fields, zap.Error(err))...)
	case err != nil:
		l.log.Error("task failed", append(fields, zap.Error(err))...)
	default:
		l.emit("task finished", fields...)
	}
}

func (l *Logger) TasksCancelled(name string, n int) {
	l.emit("tasks cancelled", zap.String("name", name), zap.Int("tasks", n))
}
