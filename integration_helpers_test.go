// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package logkafka_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/logkafka"
)

const (
	messageConsumeWait = 10 * time.Second
)

// setupKafka starts Kafka using testcontainers and returns the broker address.
// Automatically registers cleanup to stop Kafka when test completes.
func setupKafka(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// confluent-local is designed for testcontainers; the version tag is
	// pinned because testcontainers validates it for KRaft mode.
	kafkaContainer, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		kafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "Failed to start Kafka container")

	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "Failed to get Kafka brokers")
	require.NotEmpty(t, brokers, "No Kafka brokers available")

	require.NoError(t, waitForKafka(ctx, t, brokers[0]))
	return brokers[0]
}

// waitForKafka pings the broker until it responds or 30 seconds pass.
func waitForKafka(ctx context.Context, t *testing.T, broker string) error {
	t.Helper()

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		client, err := kgo.NewClient(
			kgo.SeedBrokers(broker),
			kgo.RequestTimeoutOverhead(5*time.Second),
		)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := client.Ping(pingCtx)
			cancel()
			client.Close()

			if err == nil {
				return nil
			}
			t.Logf("Kafka not ready yet: %v", err)
		}

		time.Sleep(1 * time.Second)
	}

	return context.DeadlineExceeded
}

// createTestAppender creates an Appender with test configuration.
func createTestAppender(t *testing.T, broker, topic string, fallbacks ...logkafka.Sink) *logkafka.Appender {
	t.Helper()

	return &logkafka.Appender{
		Name:                   t.Name(),
		Topic:                  topic,
		Brokers:                []string{broker},
		Encoder:                logkafka.JSONEncoder{},
		Fallbacks:              fallbacks,
		AllowAutoTopicCreation: true,
		CleanupTimeout:         10 * time.Second,
	}
}

// consumeMessages reads records from topic until at least want arrived or
// the timeout expires.
func consumeMessages(t *testing.T, broker, topic string, want int, timeout time.Duration) []*kgo.Record {
	t.Helper()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err, "Failed to create Kafka consumer")
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var records []*kgo.Record
	for len(records) < want && ctx.Err() == nil {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if ctx.Err() == nil {
				t.Logf("Fetch error on %s[%d]: %v", topic, partition, err)
			}
		})

		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}

	return records
}

// messageOf returns the "message" field of a JSON encoded record.
func messageOf(t *testing.T, r *kgo.Record) string {
	t.Helper()

	var doc map[string]any
	require.NoError(t, json.Unmarshal(r.Value, &doc))
	msg, _ := doc["message"].(string)
	return msg
}

// collectingSink is a thread-safe fallback sink.
type collectingSink struct {
	mu     sync.Mutex
	events []*logkafka.LogEvent
}

func (s *collectingSink) Accept(e *logkafka.LogEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *collectingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
