// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"log/slog"
	"time"
)

// LogEvent is a single log line produced by a logging call site.
//
// A LogEvent is treated as immutable once it is handed to an Appender. The
// Appender passes the same pointer it received to every Sink in the fallback
// chain, so sinks may compare events by identity.
type LogEvent struct {
	// Time is when the event was produced.
	Time time.Time

	// Logger is the name of the logger (the source) that produced the event.
	// Events whose Logger matches one of the Appender's DeferredLoggers are
	// deferred instead of delivered directly.
	Logger string

	// Thread identifies the calling goroutine or worker, when known.
	Thread string

	// Level is the event severity.
	Level slog.Level

	// Message is the fully formatted log message.
	Message string

	// Attrs are optional structured attributes. Group attributes are expected
	// to be flattened into dotted keys by the producer.
	Attrs []slog.Attr
}

// Attr returns the string form of the first attribute with the given key.
func (e *LogEvent) Attr(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value.Resolve().String(), true
		}
	}
	return "", false
}
