// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logging provides the severity-gated logger every boot and
// dispatch component reports through. Emission is delegated to a Sink,
// so the gate itself stays free of any output concerns.
package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Level is a log severity, ranked 1 (Debug) through 8 (Emergency).
type Level int32

const (
	Debug Level = iota + 1
	Info
	Notice
	Warning
	Error
	Critical
	Alert
	Emergency
)

const (
	minLevel = Debug
	maxLevel = Emergency
)

// String implements the fmt.Stringer interface.
func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Notice:
		return "notice"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	case Alert:
		return "alert"
	case Emergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name to its Level. The second return value
// reports whether the name named a defined level.
func ParseLevel(name string) (Level, bool) {
	for l := minLevel; l <= maxLevel; l++ {
		if strings.EqualFold(name, l.String()) {
			return l, true
		}
	}
	return 0, false
}

// Sink receives every record that passes the logger's threshold.
type Sink interface {
	Emit(level Level, msg string, attrs ...slog.Attr)
}

// NopSink discards everything.
type NopSink struct{}

// Emit implements the Sink interface.
func (NopSink) Emit(Level, string, ...slog.Attr) {}

// Logger gates records by severity before handing them to its Sink.
// It is safe for concurrent use.
type Logger struct {
	sink      Sink
	threshold atomic.Int32
}

// New returns a Logger emitting to sink. The initial threshold is Warning.
func New(sink Sink) *Logger {
	l := &Logger{sink: sink}
	l.threshold.Store(int32(Warning))
	return l
}

// SetOutputLevel stores n as the emission threshold, clamped into [1, 8].
func (l *Logger) SetOutputLevel(n int) {
	if n < int(minLevel) {
		n = int(minLevel)
	}
	if n > int(maxLevel) {
		n = int(maxLevel)
	}
	l.threshold.Store(int32(n))
}

// Log emits msg iff the stored threshold does not exceed level's rank.
// Levels outside the defined range never emit.
func (l *Logger) Log(level Level, msg string, attrs ...slog.Attr) {
	if level < minLevel || level > maxLevel {
		return
	}
	if Level(l.threshold.Load()) > level {
		return
	}
	l.sink.Emit(level, msg, attrs...)
}

// Per-level convenience methods. Each is exactly Log(level, ...).

func (l *Logger) Debug(msg string, attrs ...slog.Attr)     { l.Log(Debug, msg, attrs...) }
func (l *Logger) Info(msg string, attrs ...slog.Attr)      { l.Log(Info, msg, attrs...) }
func (l *Logger) Notice(msg string, attrs ...slog.Attr)    { l.Log(Notice, msg, attrs...) }
func (l *Logger) Warning(msg string, attrs ...slog.Attr)   { l.Log(Warning, msg, attrs...) }
func (l *Logger) Error(msg string, attrs ...slog.Attr)     { l.Log(Error, msg, attrs...) }
func (l *Logger) Critical(msg string, attrs ...slog.Attr)  { l.Log(Critical, msg, attrs...) }
func (l *Logger) Alert(msg string, attrs ...slog.Attr)     { l.Log(Alert, msg, attrs...) }
func (l *Logger) Emergency(msg string, attrs ...slog.Attr) { l.Log(Emergency, msg, attrs...) }

// SlogSink adapts a slog.Handler into a Sink.
type SlogSink struct {
	handler slog.Handler
}

// NewSlogSink returns a Sink emitting through h.
func NewSlogSink(h slog.Handler) SlogSink {
	return SlogSink{handler: h}
}

// slogLevel widens the 4 slog levels to cover all 8 aerys levels.
// Notice lands between Info and Warn; Critical and above land past Error.
func slogLevel(l Level) slog.Level {
	switch l {
	case Debug:
		return slog.LevelDebug
	case Info:
		return slog.LevelInfo
	case Notice:
		return slog.LevelInfo + 2
	case Warning:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelError + 2*slog.Level(l-Critical+1)
	}
}

// Emit implements the Sink interface.
func (s SlogSink) Emit(level Level, msg string, attrs ...slog.Attr) {
	record := slog.NewRecord(time.Now(), slogLevel(level), msg, 0)
	record.AddAttrs(slog.String("severity", level.String()))
	record.AddAttrs(attrs...)
	_ = s.handler.Handle(context.Background(), record)
}
