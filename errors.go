// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"context"
	"errors"

	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	// ErrEncoding indicates the Encoder failed to encode a LogEvent.
	ErrEncoding = &metricError{
		metric:  "encoding_error",
		message: "encoding failed",
	}

	// ErrBufferFull indicates the client's produce buffer was exhausted.
	ErrBufferFull = &metricError{
		metric:  "buffer_full",
		message: "buffer full",
	}

	// ErrBroker indicates Kafka rejected the record or the client failed it.
	ErrBroker = &metricError{
		metric:  "broker_error",
		message: "broker error",
	}

	// ErrTimeout indicates a delivery or record timeout was exceeded.
	ErrTimeout = &metricError{
		metric:  "timeout",
		message: "timeout",
	}

	// ErrValidation indicates configuration validation failed.
	ErrValidation = &metricError{
		metric:  "validation_error",
		message: "validation error",
	}

	// ErrNotStarted indicates the appender is not in the Started state.
	ErrNotStarted = &metricError{
		metric:  "not_started",
		message: "appender not started",
	}

	// ErrAlreadyStarted indicates Start was called on a running appender.
	ErrAlreadyStarted = &metricError{
		metric:  "already_started",
		message: "appender already started",
	}

	// ErrProducerUnavailable indicates the Kafka client could not be
	// constructed, or has already been released.
	ErrProducerUnavailable = &metricError{
		metric:  "producer_unavailable",
		message: "producer unavailable",
	}
)

// metricError is an internal error type that wraps errors with a type classification
// for metrics and observability. The errorType field provides a string label for grouping
// errors in metrics systems.
type metricError struct {
	metric  string // Type classification for metrics (e.g., "encoding_error", "validation_error")
	message string // Human-readable message
}

// Error implements the error interface.
func (e *metricError) Error() string {
	return e.message
}

func (e *metricError) Metric() string {
	return e.metric
}

func (e *metricError) Is(target error) bool {
	if t, ok := target.(*metricError); ok {
		return e.message == t.message
	}
	return false
}

// errorType extracts the error type string for metrics classification.
// Walks the error chain to find metricError types.
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var me *metricError
	if errors.As(err, &me) {
		return me.Metric()
	}

	return "unknown"
}

// classifyProduceError joins a franz-go produce error with the sentinel that
// best describes it. A nil error stays nil.
func classifyProduceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, kgo.ErrMaxBuffered):
		return errors.Join(ErrBufferFull, err)
	case errors.Is(err, kgo.ErrRecordTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrTimeout, err)
	default:
		return errors.Join(ErrBroker, err)
	}
}
