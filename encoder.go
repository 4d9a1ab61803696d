// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xmidt-org/wrp-go/v5"
)

// Encoder turns a LogEvent into the payload of a Kafka record.
// Implementations must be safe for concurrent use and must not retain e.
type Encoder interface {
	Encode(e *LogEvent) ([]byte, error)
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(*LogEvent) ([]byte, error)

// Encode calls f(e).
func (f EncoderFunc) Encode(e *LogEvent) ([]byte, error) {
	return f(e)
}

// document is the wire shape shared by the JSON and msgpack encoders.
type document struct {
	Time    string         `json:"@timestamp" msgpack:"@timestamp"`
	Logger  string         `json:"logger,omitempty" msgpack:"logger,omitempty"`
	Thread  string         `json:"thread,omitempty" msgpack:"thread,omitempty"`
	Level   string         `json:"level" msgpack:"level"`
	Message string         `json:"message" msgpack:"message"`
	Attrs   map[string]any `json:"attrs,omitempty" msgpack:"attrs,omitempty"`
}

func newDocument(e *LogEvent, timeFormat string) document {
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	return document{
		Time:    e.Time.Format(timeFormat),
		Logger:  e.Logger,
		Thread:  e.Thread,
		Level:   e.Level.String(),
		Message: e.Message,
		Attrs:   attrMap(e.Attrs),
	}
}

// attrMap flattens attrs into a map, joining group keys with dots.
func attrMap(attrs []slog.Attr) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]any, len(attrs))
	flattenAttrs(m, "", attrs)
	return m
}

func flattenAttrs(m map[string]any, prefix string, attrs []slog.Attr) {
	for _, a := range attrs {
		v := a.Value.Resolve()
		key := a.Key
		if prefix != "" && key != "" {
			key = prefix + "." + key
		} else if key == "" {
			key = prefix
		}

		switch v.Kind() {
		case slog.KindGroup:
			flattenAttrs(m, key, v.Group())
		case slog.KindTime:
			m[key] = v.Time().Format(time.RFC3339Nano)
		case slog.KindDuration:
			m[key] = v.Duration().String()
		default:
			if key != "" {
				m[key] = v.Any()
			}
		}
	}
}

// JSONEncoder encodes events as a JSON object.
type JSONEncoder struct {
	// TimeFormat is the layout used for the @timestamp field.
	// Default: time.RFC3339Nano.
	TimeFormat string
}

// Encode implements Encoder.
func (enc JSONEncoder) Encode(e *LogEvent) ([]byte, error) {
	return json.Marshal(newDocument(e, enc.TimeFormat))
}

// MsgpackEncoder encodes events as a msgpack map with the same fields as
// JSONEncoder.
type MsgpackEncoder struct {
	// TimeFormat is the layout used for the @timestamp field.
	// Default: time.RFC3339Nano.
	TimeFormat string
}

// Encode implements Encoder.
func (enc MsgpackEncoder) Encode(e *LogEvent) ([]byte, error) {
	return msgpack.Marshal(newDocument(e, enc.TimeFormat))
}

// WRPEncoder wraps each event in a WRP simple event message, msgpack
// encoded, so that log lines can flow through WRP consumers. The JSON
// document produced by JSONEncoder becomes the message payload.
type WRPEncoder struct {
	// Source is the WRP source locator, e.g. "dns:my-service.example.com".
	// Required.
	Source string

	// EventType becomes the authority of the "event:" destination.
	// Default: "log".
	EventType string
}

// Encode implements Encoder.
func (enc WRPEncoder) Encode(e *LogEvent) ([]byte, error) {
	if enc.Source == "" {
		return nil, fmt.Errorf("wrp encoder requires a source")
	}

	eventType := enc.EventType
	if eventType == "" {
		eventType = "log"
	}

	payload, err := JSONEncoder{}.Encode(e)
	if err != nil {
		return nil, err
	}

	msg := wrp.Message{
		Type:        wrp.SimpleEventMessageType,
		Source:      enc.Source,
		Destination: "event:" + eventType,
		ContentType: "application/json",
		Payload:     payload,
		Metadata: map[string]string{
			"/logger": e.Logger,
			"/level":  e.Level.String(),
		},
	}

	return msg.EncodeMsgpack(nil)
}
