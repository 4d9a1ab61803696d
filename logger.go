// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// nopLogger, the default logger, drops everything.
type nopLogger struct{}

func (*nopLogger) Level() kgo.LogLevel { return kgo.LogLevelNone }
func (*nopLogger) Log(kgo.LogLevel, string, ...any) {
}

// zerologLogger writes kgo log lines to a zerolog.Logger.
type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a kgo.Logger backed by logger. The level reported
// to franz-go follows the zerolog logger's level.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewZerologLogger(logger zerolog.Logger) kgo.Logger {
	return &zerologLogger{logger: logger}
}

func (l *zerologLogger) Level() kgo.LogLevel {
	switch l.logger.GetLevel() {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return kgo.LogLevelDebug
	case zerolog.InfoLevel:
		return kgo.LogLevelInfo
	case zerolog.WarnLevel:
		return kgo.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return kgo.LogLevelError
	default:
		return kgo.LogLevelNone
	}
}

func (l *zerologLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	var event *zerolog.Event
	switch level {
	case kgo.LogLevelDebug:
		event = l.logger.Debug()
	case kgo.LogLevelInfo:
		event = l.logger.Info()
	case kgo.LogLevelWarn:
		event = l.logger.Warn()
	case kgo.LogLevelError:
		event = l.logger.Error()
	default:
		return
	}

	event.Fields(keyvals).Msg(msg)
}

// clientLogger turns franz-go log lines into slog records.
type clientLogger struct {
	handler slog.Handler
	level   kgo.LogLevel
}

// NewClientLogger returns a kgo.Logger that writes franz-go's own log lines
// to h, each record carrying the attribute "logger" set to ClientNamespace.
//
// Pointing h at a Handler that feeds an Appender, and setting the result as
// that Appender's Logger, ships the client's diagnostics to Kafka as well.
// Those records match the default DeferredLoggers, so they are queued and
// never delivered from inside the client.
func NewClientLogger(h slog.Handler, level kgo.LogLevel) kgo.Logger {
	return &clientLogger{
		handler: h.WithAttrs([]slog.Attr{slog.String(DefaultLoggerKey, ClientNamespace)}),
		level:   level,
	}
}

func (l *clientLogger) Level() kgo.LogLevel { return l.level }

func (l *clientLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	slevel, ok := slogLevel(level)
	if !ok || level > l.level {
		return
	}

	ctx := context.Background()
	if !l.handler.Enabled(ctx, slevel) {
		return
	}

	r := slog.NewRecord(time.Now(), slevel, msg, 0)
	r.Add(normalizeKeyvals(keyvals)...)
	_ = l.handler.Handle(ctx, r)
}

func slogLevel(level kgo.LogLevel) (slog.Level, bool) {
	switch level {
	case kgo.LogLevelDebug:
		return slog.LevelDebug, true
	case kgo.LogLevelInfo:
		return slog.LevelInfo, true
	case kgo.LogLevelWarn:
		return slog.LevelWarn, true
	case kgo.LogLevelError:
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// normalizeKeyvals stringifies keys, since franz-go passes them as any.
func normalizeKeyvals(keyvals []any) []any {
	out := make([]any, 0, len(keyvals))
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		out = append(out, key, keyvals[i+1])
	}
	if len(keyvals)%2 == 1 {
		out = append(out, "!BADKEY", keyvals[len(keyvals)-1])
	}
	return out
}
