// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts DeliveryEvents in Prometheus.
//
//	m := logkafka.NewMetrics(prometheus.DefaultRegisterer)
//	appender.AddDeliveryEventListener(m.Observe)
type Metrics struct {
	// Events counts events by topic, delivery strategy and outcome.
	Events *prometheus.CounterVec

	// Errors counts failed or fallen-back events by topic and error type.
	Errors *prometheus.CounterVec

	// Latency observes the time from Append to the report, in seconds.
	Latency *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logkafka_events_total",
				Help: "Total number of log events handled by the appender",
			},
			[]string{"topic", "delivery", "outcome"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logkafka_errors_total",
				Help: "Total number of log events that could not be delivered",
			},
			[]string{"topic", "error_type"},
		),
		Latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logkafka_append_duration_seconds",
				Help:    "Time from Append to the delivery report",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"topic", "delivery"},
		),
	}
}

// Observe records e. It has the signature of a delivery event listener.
func (m *Metrics) Observe(e *DeliveryEvent) {
	delivery := string(e.Delivery)

	m.Events.WithLabelValues(e.Topic, delivery, e.Outcome.String()).Inc()
	if e.ErrorType != "" {
		m.Errors.WithLabelValues(e.Topic, e.ErrorType).Inc()
	}
	m.Latency.WithLabelValues(e.Topic, delivery).Observe(e.Duration.Seconds())
}
