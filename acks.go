// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Acks is how many replicas must confirm a record before it counts as written.
type Acks string

const (
	// AcksAll waits for every in-sync replica.
	AcksAll Acks = "all"

	// AcksLeader waits for the partition leader only.
	AcksLeader Acks = "leader"

	// AcksNone does not wait at all. Broker-side failures are invisible, so
	// such records never reach the fallback chain.
	AcksNone Acks = "none"
)

var acksTypes = map[Acks][]kgo.Opt{
	AcksAll: {kgo.RequiredAcks(kgo.AllISRAcks())},

	// Idempotent writes require acks from all replicas.
	AcksLeader: {kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite()},
	AcksNone:   {kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite()},
}

var acksList = []string{string(AcksAll), string(AcksLeader), string(AcksNone)}

// validateAcks accepts the known values and the empty string.
func validateAcks(acks Acks) error {
	if acks == "" {
		return nil
	}

	if _, ok := acksTypes[acks]; ok {
		return nil
	}

	return errors.Join(ErrValidation,
		fmt.Errorf("acks '%s' is invalid: must be '%s' or empty", acks, strings.Join(acksList, "', '")))
}

// kgoOpts returns the client options for a; none for the empty value.
func (a Acks) kgoOpts() []kgo.Opt {
	return acksTypes[a]
}
