// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

// Sink accepts log events the appender could not deliver to Kafka.
//
// Accept must not panic and must be safe for concurrent use: with the async
// delivery strategy it is called from franz-go's own goroutines while other
// goroutines keep appending.
type Sink interface {
	Accept(*LogEvent)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(*LogEvent)

// Accept calls f(e).
func (f SinkFunc) Accept(e *LogEvent) {
	f(e)
}

// fallbackChain is the ordered, immutable list of sinks of a started
// appender. An empty chain drops events.
type fallbackChain struct {
	sinks []Sink
}

// newFallbackChain copies sinks, skipping nil entries and the owner itself so
// that a dispatch can never re-enter the appender that owns the chain. It
// returns the number of skipped entries.
func newFallbackChain(owner Sink, sinks []Sink) (*fallbackChain, int) {
	c := fallbackChain{
		sinks: make([]Sink, 0, len(sinks)),
	}

	var skipped int
	for _, s := range sinks {
		if s == nil || s == owner {
			skipped++
			continue
		}
		c.sinks = append(c.sinks, s)
	}

	return &c, skipped
}

// dispatch hands e to every sink in configured order.
func (c *fallbackChain) dispatch(e *LogEvent) {
	if c == nil {
		return
	}
	for _, s := range c.sinks {
		s.Accept(e)
	}
}

func (c *fallbackChain) len() int {
	if c == nil {
		return 0
	}
	return len(c.sinks)
}
