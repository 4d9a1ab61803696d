// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// DefaultLoggerKey is the attribute that carries the logger name.
	DefaultLoggerKey = "logger"

	// DefaultThreadKey is the attribute that carries the thread name.
	DefaultThreadKey = "thread"
)

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Level is the minimum level handled. Default: slog.LevelInfo.
	Level slog.Leveler

	// LoggerName is the LogEvent.Logger used when no record carries the
	// LoggerKey attribute.
	LoggerName string

	// LoggerKey is the attribute that overrides LoggerName. It is removed
	// from the event's Attrs. Default: DefaultLoggerKey.
	LoggerKey string

	// ThreadKey is the attribute copied to LogEvent.Thread and removed from
	// the event's Attrs. Default: DefaultThreadKey.
	ThreadKey string
}

func (o *HandlerOptions) resolve() HandlerOptions {
	var rv HandlerOptions
	if o != nil {
		rv = *o
	}
	if rv.Level == nil {
		rv.Level = slog.LevelInfo
	}
	if rv.LoggerKey == "" {
		rv.LoggerKey = DefaultLoggerKey
	}
	if rv.ThreadKey == "" {
		rv.ThreadKey = DefaultThreadKey
	}
	return rv
}

// Handler is a slog.Handler that turns records into LogEvents and hands them
// to a Sink, usually an Appender.
//
// Group names are folded into the attribute keys with dots, so
// slog.Group("req", slog.String("id", "x")) becomes the attribute "req.id".
type Handler struct {
	sink   Sink
	opts   HandlerOptions
	attrs  []slog.Attr
	prefix string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a Handler feeding sink.
func NewHandler(sink Sink, opts *HandlerOptions) *Handler {
	return &Handler{
		sink: sink,
		opts: opts.resolve(),
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle converts r to a LogEvent and hands it to the sink. It never fails.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	e := LogEvent{
		Time:    r.Time,
		Logger:  h.opts.LoggerName,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs()),
	}

	for _, a := range h.attrs {
		h.add(&e, a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.add(&e, qualify(h.prefix, a))
		return true
	})

	h.sink.Accept(&e)
	return nil
}

// add appends a to e, lifting the logger and thread attributes into their
// fields.
func (h *Handler) add(e *LogEvent, a slog.Attr) {
	switch a.Key {
	case h.opts.LoggerKey:
		e.Logger = a.Value.Resolve().String()
	case h.opts.ThreadKey:
		e.Thread = a.Value.Resolve().String()
	default:
		e.Attrs = append(e.Attrs, a)
	}
}

// WithAttrs returns a new Handler with the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		newAttrs = append(newAttrs, qualify(h.prefix, a))
	}

	clone := *h
	clone.attrs = newAttrs
	return &clone
}

// WithGroup returns a new Handler with the given group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	if h.prefix == "" {
		clone.prefix = name
	} else {
		clone.prefix = h.prefix + "." + name
	}
	return &clone
}

// qualify prefixes the key of a with the open groups. Group values are left
// as they are; the encoders flatten them.
func qualify(prefix string, a slog.Attr) slog.Attr {
	if prefix == "" {
		return a
	}
	if a.Key == "" {
		return a
	}
	return slog.Attr{
		Key:   strings.Join([]string{prefix, a.Key}, "."),
		Value: a.Value,
	}
}
