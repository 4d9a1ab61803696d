// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/twmb/franz-go/pkg/kgo"
)

// mockKafkaClient is a mock implementation of kafkaClient for testing.
type mockKafkaClient struct {
	mock.Mock
}

func (m *mockKafkaClient) Produce(ctx context.Context, r *kgo.Record, cb func(*kgo.Record, error)) {
	m.Called(ctx, r, cb)
}

func (m *mockKafkaClient) TryProduce(ctx context.Context, r *kgo.Record, cb func(*kgo.Record, error)) {
	m.Called(ctx, r, cb)
}

func (m *mockKafkaClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockKafkaClient) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockKafkaClient) Close() {
	m.Called()
}

func (m *mockKafkaClient) BufferedProduceRecords() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *mockKafkaClient) BufferedProduceBytes() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *mockKafkaClient) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	args := m.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

// recordingSink remembers every event it accepts, in order.
type recordingSink struct {
	mu     sync.Mutex
	events []*LogEvent
}

func (s *recordingSink) Accept(e *LogEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) got() []*LogEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*LogEvent(nil), s.events...)
}

// recordingClient is a kafkaClient that succeeds every produce call and
// remembers the records, in order.
type recordingClient struct {
	mu      sync.Mutex
	records []*kgo.Record
	flushed bool
	closed  bool
}

func (c *recordingClient) add(r *kgo.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

func (c *recordingClient) TryProduce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	c.add(r)
	promise(r, nil)
}

func (c *recordingClient) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	c.add(r)
	promise(r, nil)
}

func (c *recordingClient) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		c.add(r)
		results = append(results, kgo.ProduceResult{Record: r})
	}
	return results
}

func (c *recordingClient) Ping(context.Context) error { return nil }

func (c *recordingClient) Flush(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushed = true
	return nil
}

func (c *recordingClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recordingClient) BufferedProduceRecords() int64 { return 0 }
func (c *recordingClient) BufferedProduceBytes() int64   { return 0 }

func (c *recordingClient) got() []*kgo.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*kgo.Record(nil), c.records...)
}

// staticFactory returns a clientFactory that always returns client.
func staticFactory(client kafkaClient) clientFactory {
	return func(...kgo.Opt) (kafkaClient, error) {
		return client, nil
	}
}
