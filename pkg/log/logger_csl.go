package log

import (
	"context"
	"io"
	"log"
	"os"
)

type CslLogger struct {
	out   *log.Logger
	debug bool
}

func NewCslLogger() (*CslLogger, error) {
	return NewCslLoggerTo(os.Stderr, true)
}

// NewCslLoggerTo writes to w. Debug lines are dropped unless debug is set.
func NewCslLoggerTo(w io.Writer, debug bool) (*CslLogger, error) {
	return &CslLogger{
		out:   log.New(w, "", log.LstdFlags),
		debug: debug,
	}, nil
}

func (l *CslLogger) print(ctx context.Context, level string, format string, args ...interface{}) {
	prefix := "[" + level + "] "
	if id := RunID(ctx); id != "" {
		prefix += "[run=" + id + "] "
	}
	l.out.Printf(prefix+format, args...)
}

func (l *CslLogger) Info(ctx context.Context, format string, args ...interface{}) {
	l.print(ctx, "INFO", format, args...)
}

func (l *CslLogger) Alert(ctx context.Context, format string, args ...interface{}) {
	l.print(ctx, "ALERT", format, args...)
}

func (l *CslLogger) Error(ctx context.Context, format string, args ...interface{}) {
	l.print(ctx, "ERROR", format, args...)
}

func (l *CslLogger) Warn(ctx context.Context, format string, args ...interface{}) {
	l.print(ctx, "WARN", format, args...)
}

func (l *CslLogger) Debug(ctx context.Context, format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.print(ctx, "DEBUG", format, args...)
}

func (l *CslLogger) Critical(ctx context.Context, format string, args ...interface{}) {
	l.print(ctx, "CRITICAL", format, args...)
}

func (l *CslLogger) Emergency(ctx context.Context, format string, args ...interface{}) {
	l.print(ctx, "EMERGENCY", format, args...)
}

func (l *CslLogger) Notice(ctx context.Context, format string, args ...interface{}) {
	l.print(ctx, "NOTICE", format, args...)
}
