// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogSink returns a Sink that re-emits events into h, for example a
// slog.TextHandler on stderr. The logger and thread names travel as the
// DefaultLoggerKey and DefaultThreadKey attributes.
func SlogSink(h slog.Handler) Sink {
	return SinkFunc(func(e *LogEvent) {
		ctx := context.Background()
		if !h.Enabled(ctx, e.Level) {
			return
		}

		r := slog.NewRecord(e.Time, e.Level, e.Message, 0)
		if e.Logger != "" {
			r.AddAttrs(slog.String(DefaultLoggerKey, e.Logger))
		}
		if e.Thread != "" {
			r.AddAttrs(slog.String(DefaultThreadKey, e.Thread))
		}
		r.AddAttrs(e.Attrs...)

		_ = h.Handle(ctx, r)
	})
}

// ZerologSink returns a Sink that writes events to logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ZerologSink(logger zerolog.Logger) Sink {
	return SinkFunc(func(e *LogEvent) {
		event := logger.WithLevel(zerologLevel(e.Level))
		if event == nil {
			return
		}

		if !e.Time.IsZero() {
			event = event.Time("event_time", e.Time)
		}
		if e.Logger != "" {
			event = event.Str(DefaultLoggerKey, e.Logger)
		}
		if e.Thread != "" {
			event = event.Str(DefaultThreadKey, e.Thread)
		}
		if attrs := attrMap(e.Attrs); len(attrs) > 0 {
			event = event.Fields(attrs)
		}

		event.Msg(e.Message)
	})
}

// zerologLevel converts slog.Level to zerolog.Level.
func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelDebug:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
