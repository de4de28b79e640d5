// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package zapsink emits aerys log records through a zap.Logger.
package zapsink

import (
	"log/slog"

	"github.com/tyx/aerys/logging"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink adapts a zap.Logger into a logging.Sink.
type Sink struct {
	logger *zap.Logger
}

// New returns a Sink emitting through logger.
func New(logger *zap.Logger) Sink {
	return Sink{logger: logger}
}

func zapLevel(l logging.Level) zapcore.Level {
	switch l {
	case logging.Debug:
		return zapcore.DebugLevel
	case logging.Info, logging.Notice:
		return zapcore.InfoLevel
	case logging.Warning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func zapFields(level logging.Level, attrs []slog.Attr) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs)+1)
	fields = append(fields, zap.String("severity", level.String()))
	for _, attr := range attrs {
		fields = append(fields, zap.Any(attr.Key, attr.Value.Any()))
	}
	return fields
}

// Emit implements the logging.Sink interface.
func (s Sink) Emit(level logging.Level, msg string, attrs ...slog.Attr) {
	if ce := s.logger.Check(zapLevel(level), msg); ce != nil {
		ce.Write(zapFields(level, attrs)...)
	}
}
