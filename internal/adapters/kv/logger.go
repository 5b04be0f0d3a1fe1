package kv

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SlogLogger adapts a slog.Logger to badger.Logger.
// Badger's info chatter is demoted to debug.
type SlogLogger struct {
	logger func() *slog.Logger
}

// NewSlogLogger returns a badger.Logger writing through the logger returned by fn.
func NewSlogLogger(fn func() *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: fn}
}

func (l *SlogLogger) log(level slog.Level, format string, args ...any) {
	lg := l.logger()
	if lg == nil {
		return
	}
	lg.Log(context.Background(), level, "badger: "+strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Errorf logs at error level.
func (l *SlogLogger) Errorf(format string, args ...any) { l.log(slog.LevelError, format, args...) }

// Warningf logs at warn level.
func (l *SlogLogger) Warningf(format string, args ...any) { l.log(slog.LevelWarn, format, args...) }

// Infof logs at debug level.
func (l *SlogLogger) Infof(format string, args ...any) { l.log(slog.LevelDebug, format, args...) }

// Debugf logs at debug level.
func (l *SlogLogger) Debugf(format string, args ...any) { l.log(slog.LevelDebug-4, format, args...) }
