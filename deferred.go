// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"sync"

	"github.com/eapache/queue"
)

// deferredQueue is an unbounded FIFO of events that must not be delivered
// from the goroutine that produced them. It is safe for concurrent use.
type deferredQueue struct {
	mu sync.Mutex
	q  *queue.Queue
}

func newDeferredQueue() *deferredQueue {
	return &deferredQueue{q: queue.New()}
}

// push appends e to the tail of the queue.
func (d *deferredQueue) push(e *LogEvent) {
	d.mu.Lock()
	d.q.Add(e)
	d.mu.Unlock()
}

// poll removes and returns the oldest event, or nil if the queue is empty.
func (d *deferredQueue) poll() *LogEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.q.Length() == 0 {
		return nil
	}
	return d.q.Remove().(*LogEvent)
}

// len returns the number of queued events.
func (d *deferredQueue) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.q.Length()
}
