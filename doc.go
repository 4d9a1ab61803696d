// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package logkafka ships log events to Apache Kafka without letting the Kafka
// client's own log output loop back into itself.
//
// # Overview
//
// An Appender takes LogEvents, encodes them, and produces them to a single
// topic with franz-go. Appending never returns an error and never panics the
// logging call site: events that cannot be delivered are handed to an
// ordered chain of fallback Sinks instead.
//
// # Quick Start
//
// Create an Appender by setting fields directly:
//
//	appender := &logkafka.Appender{
//	    Name:      "kafka",
//	    Topic:     "app-logs",
//	    Brokers:   []string{"localhost:9092"},
//	    Encoder:   logkafka.JSONEncoder{},
//	    Keying:    logkafka.KeyLoggerName,
//	    Fallbacks: []logkafka.Sink{logkafka.SlogSink(slog.NewTextHandler(os.Stderr, nil))},
//	}
//	if err := appender.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer appender.Stop(context.Background())
//
//	logger := slog.New(logkafka.NewHandler(appender, &logkafka.HandlerOptions{LoggerName: "app"}))
//	logger.Info("hello", "user", "alice")
//
// The Kafka client is not created by Start but by the first Append that
// needs it. If construction fails the failure is reported once as a Status
// and every later event goes straight to the fallback chain.
//
// # Delivery Strategies
//
//   - DeliveryAsync (default): buffer the record and return. Failures are
//     reported later from a franz-go goroutine.
//   - DeliveryBlocking: wait for the broker acknowledgment, bounded by
//     DeliveryTimeout.
//   - DeliveryTry: never wait for buffer space; a full buffer fails the
//     record at once.
//
// Whatever the strategy, a record is either delivered or its event is handed
// to the fallback chain, never both.
//
// # Keying
//
// Records can be keyed by host name, context name, logger name, thread name,
// or any attribute ("attr:request_id"). Keys are the 4-byte big-endian FNV-1a
// hash of the chosen string, so equal inputs always land on the same
// partition.
//
// # Recursion Avoidance
//
// franz-go logs through the Appender's Logger. When that logger feeds the
// same Appender (see NewClientLogger), the client would be asked to produce
// while it is in the middle of producing. Events whose logger name matches
// DeferredLoggers (by default everything under ClientNamespace) are therefore
// queued, and delivered in order by the next ordinary Append.
//
// # Observability
//
// Status listeners receive configuration errors and lifecycle diagnostics.
// Delivery event listeners receive one DeliveryEvent per handled event,
// which Metrics turns into Prometheus counters:
//
//	m := logkafka.NewMetrics(prometheus.DefaultRegisterer)
//	appender.InitialDeliveryEventListeners = []func(*logkafka.DeliveryEvent){m.Observe}
//
// # Configuration Files
//
// LoadConfig reads a YAML file and LOGKAFKA_* style environment variables on
// top of DefaultConfig, and Config.NewAppender builds the Appender.
//
// # Thread Safety
//
// The Appender type is safe for concurrent use by multiple goroutines.
package logkafka
