// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

const eventRefPrefix = "event."

// headerBuilder builds Kafka record headers from Appender.Headers. Each value
// is either a literal or an event.* reference:
//
//   - "event.Logger", "event.Thread", "event.Level": fields of the LogEvent
//   - "event.Host", "event.Context": the appender's HostName and ContextName
//   - "event.Attr.<key>": the value of the named attribute
//
// References that resolve to an empty string produce no header.
type headerBuilder struct {
	headers map[string][]string
	host    string
	context string
}

// build returns the headers for e, or nil when none are configured.
func (hb *headerBuilder) build(e *LogEvent) []kgo.RecordHeader {
	if hb == nil || len(hb.headers) == 0 {
		return nil
	}

	headers := make([]kgo.RecordHeader, 0, len(hb.headers))
	for key, values := range hb.headers {
		for _, value := range values {
			if !strings.HasPrefix(value, eventRefPrefix) {
				headers = append(headers, kgo.RecordHeader{Key: key, Value: []byte(value)})
				continue
			}

			if v := hb.resolve(e, value[len(eventRefPrefix):]); v != "" {
				headers = append(headers, kgo.RecordHeader{Key: key, Value: []byte(v)})
			}
		}
	}

	return headers
}

func (hb *headerBuilder) resolve(e *LogEvent, field string) string {
	switch field {
	case "Logger":
		return e.Logger
	case "Thread":
		return e.Thread
	case "Level":
		return e.Level.String()
	case "Host":
		return hb.host
	case "Context":
		return hb.context
	}

	if name, ok := strings.CutPrefix(field, "Attr."); ok {
		v, _ := e.Attr(name)
		return v
	}

	return ""
}

// validEventFieldNames contains the event.* references that need no suffix.
var validEventFieldNames = map[string]struct{}{
	"Logger":  {},
	"Thread":  {},
	"Level":   {},
	"Host":    {},
	"Context": {},
}

// isValidEventReference returns false for an event.* reference to an unknown
// field. Literal values are always valid.
func isValidEventReference(value string) bool {
	field, ok := strings.CutPrefix(value, eventRefPrefix)
	if !ok {
		return true
	}

	if name, ok := strings.CutPrefix(field, "Attr."); ok {
		return strings.TrimSpace(name) != ""
	}

	_, ok = validEventFieldNames[field]
	return ok
}

func validateHeaders(headers map[string][]string) error {
	for key, values := range headers {
		if key == "" {
			return errors.Join(ErrValidation, fmt.Errorf("header key must not be empty"))
		}
		if len(values) == 0 {
			return errors.Join(ErrValidation, fmt.Errorf("header %q must have at least one value", key))
		}
		for _, value := range values {
			if !isValidEventReference(value) {
				return errors.Join(ErrValidation, fmt.Errorf("header %q has invalid event field reference %q", key, value))
			}
		}
	}
	return nil
}
