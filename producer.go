// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// producerState is an immutable snapshot published by producerHandle.
// Exactly one of client and err is set.
type producerState struct {
	client kafkaClient
	err    error
}

// releasedState is published once the handle has been released by Stop.
var releasedState = &producerState{err: ErrProducerUnavailable}

// producerHandle lazily constructs the Kafka client on first use and owns it
// until release. Construction runs at most once; every caller that arrives
// before it completes waits on mu and then observes the same published state.
// A failed construction is never retried.
type producerHandle struct {
	build   func() (kafkaClient, error)
	onError func(error)

	mu    sync.Mutex
	state atomic.Pointer[producerState]
}

func newProducerHandle(build func() (kafkaClient, error), onError func(error)) *producerHandle {
	return &producerHandle{
		build:   build,
		onError: onError,
	}
}

// get returns the client, constructing it if this is the first call.
// The error is ErrProducerUnavailable (possibly joined with the construction
// failure) when no client can be used.
func (h *producerHandle) get() (kafkaClient, error) {
	if s := h.state.Load(); s != nil {
		return s.client, s.err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if s := h.state.Load(); s != nil {
		return s.client, s.err
	}

	s := &producerState{}
	client, err := h.build()
	switch {
	case err != nil:
		s.err = errors.Join(ErrProducerUnavailable, err)
		if h.onError != nil {
			h.onError(err)
		}
	case client == nil:
		s.err = ErrProducerUnavailable
	default:
		s.client = client
	}

	h.state.Store(s)
	return s.client, s.err
}

// current returns the client without constructing it. It is nil unless a
// client was constructed and has not been released.
func (h *producerHandle) current() kafkaClient {
	if s := h.state.Load(); s != nil {
		return s.client
	}
	return nil
}

// release flushes and closes the client, if one was constructed. The handle
// reports ErrProducerUnavailable afterwards. The returned error is the flush
// error, if any.
func (h *producerHandle) release(ctx context.Context) error {
	h.mu.Lock()
	s := h.state.Swap(releasedState)
	h.mu.Unlock()

	if s == nil || s.client == nil {
		return nil
	}

	err := s.client.Flush(ctx)
	s.client.Close()
	return err
}
