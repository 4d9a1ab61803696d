// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

// Outcome is what a delivery strategy knows about a record when its send
// call returns. Only Accepted means the broker confirmed the record.
type Outcome int

const (
	// Accepted indicates the record was delivered AND confirmed by Kafka.
	// Only returned by the blocking strategy.
	Accepted Outcome = iota

	// Queued indicates the record was buffered by the client but not yet
	// confirmed. A failure is reported later through the failure callback.
	// Returned by the async strategy.
	Queued

	// Attempted indicates the record was offered to the client without
	// waiting for buffer space. Returned by the try strategy.
	Attempted

	// Deferred indicates the event came from the client's own namespace and
	// was parked in the deferred queue.
	Deferred

	// FellBack indicates the event went to the fallback chain without a
	// delivery attempt (appender not started, producer unavailable, or
	// encoding failure).
	FellBack

	// Failed indicates a delivery attempt failed, either before send returned
	// or in a later report from the client, and the event was handed to the
	// fallback chain.
	Failed
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "Accepted"
	case Queued:
		return "Queued"
	case Attempted:
		return "Attempted"
	case Deferred:
		return "Deferred"
	case FellBack:
		return "FellBack"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}
