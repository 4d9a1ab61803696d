// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DeliveryStrategy selects how records are handed to the Kafka client.
type DeliveryStrategy string

const (
	// DeliveryAsync buffers the record in the client and returns Queued.
	// Broker failures are reported later, from a franz-go goroutine.
	// Waits if the client buffer is full. This is the default.
	DeliveryAsync DeliveryStrategy = "async"

	// DeliveryBlocking waits for the broker to acknowledge the record and
	// returns Accepted or Failed. Bounded by Appender.DeliveryTimeout.
	DeliveryBlocking DeliveryStrategy = "blocking"

	// DeliveryTry offers the record to the client without waiting for buffer
	// space and returns Attempted. A full buffer fails the record immediately.
	DeliveryTry DeliveryStrategy = "try"
)

var deliveryStrategyTypes map[DeliveryStrategy]struct{}
var deliveryStrategyList []string

func init() {
	list := []DeliveryStrategy{
		DeliveryAsync,
		DeliveryBlocking,
		DeliveryTry,
	}

	deliveryStrategyTypes = make(map[DeliveryStrategy]struct{})
	for _, s := range list {
		deliveryStrategyTypes[s] = struct{}{}
		deliveryStrategyList = append(deliveryStrategyList, string(s))
	}
}

// validateDeliveryStrategy validates the DeliveryStrategy enum value.
func validateDeliveryStrategy(strategy DeliveryStrategy) error {
	if strategy == "" {
		return nil
	}

	if _, ok := deliveryStrategyTypes[strategy]; ok {
		return nil
	}

	list := strings.Join(deliveryStrategyList, "', '")
	list = "'" + list + "'"
	return errors.Join(ErrValidation,
		fmt.Errorf("delivery strategy '%s' is invalid: must be %s or empty", strategy, list))
}

// failureFunc receives an event that could not be delivered, with the cause.
type failureFunc func(e *LogEvent, cause error)

// deliverer hands one record to the client. Implementations call onFailure
// at most once per record, either before send returns or later from a client
// goroutine, and never call it for a delivered record.
type deliverer interface {
	send(client kafkaClient, r *kgo.Record, e *LogEvent, onFailure failureFunc) Outcome
}

func newDeliverer(strategy DeliveryStrategy, timeout time.Duration) deliverer {
	switch strategy {
	case DeliveryBlocking:
		return &blockingDelivery{timeout: timeout}
	case DeliveryTry:
		return tryDelivery{}
	default:
		return asyncDelivery{}
	}
}

type blockingDelivery struct {
	timeout time.Duration
}

func (d *blockingDelivery) send(client kafkaClient, r *kgo.Record, e *LogEvent, onFailure failureFunc) Outcome {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	results := client.ProduceSync(ctx, r)
	if err := results.FirstErr(); err != nil {
		onFailure(e, classifyProduceError(err))
		return Failed
	}

	return Accepted
}

type asyncDelivery struct{}

func (asyncDelivery) send(client kafkaClient, r *kgo.Record, e *LogEvent, onFailure failureFunc) Outcome {
	// The promise runs on a client goroutine after the produce attempt.
	client.Produce(context.Background(), r, func(_ *kgo.Record, err error) {
		if err != nil {
			onFailure(e, classifyProduceError(err))
		}
	})
	return Queued
}

type tryDelivery struct{}

func (tryDelivery) send(client kafkaClient, r *kgo.Record, e *LogEvent, onFailure failureFunc) Outcome {
	client.TryProduce(context.Background(), r, func(_ *kgo.Record, err error) {
		if err != nil {
			onFailure(e, classifyProduceError(err))
		}
	})
	return Attempted
}
