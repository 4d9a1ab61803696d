// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitdabbler/backoff"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/xmidt-org/eventor"
)

// State is the lifecycle state of an Appender.
type State int32

const (
	// NotStarted is the initial state, and the state an Appender returns to
	// when Start finds a configuration error.
	NotStarted State = iota

	// Starting is held while Start validates the configuration.
	Starting

	// Started is the only state in which events are delivered to Kafka.
	Started

	// Stopping is held while Stop releases the Kafka client.
	Stopping

	// Stopped is the state after Stop. Start may be called again.
	Stopped
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Starting:
		return "Starting"
	case Started:
		return "Started"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// DeliveryEvent reports what happened to one LogEvent.
type DeliveryEvent struct {
	// Logger is the LogEvent's logger name.
	Logger string

	// Topic is the Kafka topic the event was (or would have been) sent to.
	Topic string

	// Delivery is the delivery strategy in use.
	Delivery DeliveryStrategy

	// Outcome is what happened to the event.
	Outcome Outcome

	// Error is the failure cause (nil for successful or deferred events).
	Error error

	// ErrorType is the error classification (empty for successes).
	// Values: "encoding_error", "buffer_full", "broker_error", "timeout", etc.
	ErrorType string

	// Duration is the time from Append() to this report.
	Duration time.Duration
}

// Appender ships LogEvents to a Kafka topic.
//
// Configure an Appender by setting its exported fields, then call Start.
// Fields must not be changed while the appender is started.
//
// Append never blocks on the network except while the first call constructs
// the Kafka client, or when the blocking delivery strategy is selected. It
// never returns an error: events that cannot be delivered go to the fallback
// chain.
//
// Events from the Kafka client's own loggers (see DeferredLoggers) are never
// delivered from the goroutine that logged them. They are queued and
// delivered by the next Append of any other event, ahead of that event.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type Appender struct {
	// --- STATIC CONFIGURATION (set before Start, immutable after) ---

	// Name identifies the appender in diagnostics.
	Name string

	// Topic is the target Kafka topic.
	// Required.
	Topic string

	// Partition pins every record to one partition.
	// Optional. Nil or negative lets the client's partitioner choose.
	Partition *int32

	// Brokers is the list of Kafka broker addresses.
	// Required. Each address must be in "host:port" format.
	Brokers []string

	// SASL configures SASL authentication.
	// Optional. If nil, no authentication is used.
	SASL sasl.Mechanism

	// TLS configures TLS encryption.
	// Optional. If nil, plaintext connections are used.
	TLS *tls.Config

	// Encoder turns events into record values.
	// Required.
	Encoder Encoder

	// Keying selects how the partition key is derived.
	// Default: no key.
	Keying KeyingStrategy

	// Delivery selects how records are handed to the client.
	// Default: DeliveryAsync.
	Delivery DeliveryStrategy

	// Fallbacks receive, in order, every event that could not be delivered.
	// Optional. If empty, undeliverable events are dropped.
	Fallbacks []Sink

	// HostName is used by KeyHostName and the "event.Host" header reference.
	// Default: os.Hostname().
	HostName string

	// ContextName names the logging context for KeyContextName and the
	// "event.Context" header reference.
	ContextName string

	// DeferredLoggers lists the logger names that belong to the Kafka client
	// itself. Matching events are deferred instead of delivered directly.
	// Default: ClientNamespace + "*".
	DeferredLoggers []Pattern

	// OmitTimestamp leaves the record timestamp to the client instead of
	// copying LogEvent.Time into it.
	OmitTimestamp bool

	// Headers defines Kafka record headers, either literal values or event.*
	// references (see headerBuilder).
	// Optional.
	Headers map[string][]string

	// Acks controls broker acknowledgments.
	// Valid: "all", "leader", "none". Default: franz-go's default (all).
	Acks Acks

	// MaxBufferedRecords sets the maximum number of records to buffer.
	// Zero or negative values keep franz-go's default.
	MaxBufferedRecords int

	// MaxBufferedBytes sets the maximum bytes of records to buffer.
	// Zero or negative values disable this limit.
	MaxBufferedBytes int

	// RequestTimeout sets the maximum time to wait for broker responses.
	// Zero or negative values mean no timeout.
	RequestTimeout time.Duration

	// DeliveryTimeout bounds how long a record may take to be delivered.
	// The blocking strategy waits at most this long; the async and try
	// strategies fail records that exceed it.
	// Zero or negative values mean no timeout.
	DeliveryTimeout time.Duration

	// CleanupTimeout sets the maximum time to wait for buffered records
	// to flush on Stop. Zero or negative values mean no timeout.
	CleanupTimeout time.Duration

	// MaxRetries controls retry behavior on broker failures.
	// <=0: franz-go's default.
	MaxRetries int

	// ConnectAttempts, when positive, makes the first Append ping the brokers
	// up to this many times (with backoff) before the client is considered
	// usable. A failed probe is a producer construction failure.
	// Default: 0 (no probe; the client connects lazily).
	ConnectAttempts int

	// AllowAutoTopicCreation enables automatic topic creation.
	// Default: false.
	AllowAutoTopicCreation bool

	// Logger receives diagnostics and is handed to franz-go.
	// Optional. If nil, a no-op logger will be used.
	//
	// A Logger that appends to this same Appender must tag its events with
	// a DeferredLoggers name (NewClientLogger does). Anything else would
	// deadlock while the client is being created.
	Logger kgo.Logger

	// InitialStatusListeners are registered when Start() is first called.
	InitialStatusListeners []func(*Status)

	// InitialDeliveryEventListeners are registered when Start() is first called.
	InitialDeliveryEventListeners []func(*DeliveryEvent)

	// --- INTERNAL FIELDS (not for user configuration) ---

	// clientFactory creates Kafka clients, can be overridden for mocking in tests.
	clientFactory clientFactory

	// lifecycleMu serializes Start and Stop.
	lifecycleMu sync.Mutex

	// state holds a State; read without locking on the hot path.
	state atomic.Int32

	// pipeline is compiled by Start and kept after Stop so that late events
	// still reach the fallback chain.
	pipeline atomic.Pointer[pipeline]

	// deferred outlives restarts; it is created by the first Start.
	deferred *deferredQueue

	statusListeners   eventor.Eventor[func(*Status)]
	deliveryListeners eventor.Eventor[func(*DeliveryEvent)]

	registerInitialListenersOnce sync.Once
}

// pipeline is everything Start compiles from the configuration.
type pipeline struct {
	topic     string
	partition int32 // negative: none
	timestamp bool
	delivery  DeliveryStrategy

	encoder   Encoder
	keyer     *keyer
	headers   *headerBuilder
	deliverer deliverer
	chain     *fallbackChain
	deferred  loggerMatchers
	producer  *producerHandle
}

var _ Sink = (*Appender)(nil)

// AddDeliveryEventListener adds a listener that is told about every event
// the appender handles. With the async and try strategies a failure arrives
// as a second DeliveryEvent, from a franz-go goroutine.
//
// The returned function removes the listener. Listeners must be thread-safe.
func (a *Appender) AddDeliveryEventListener(fn func(*DeliveryEvent)) func() {
	return a.deliveryListeners.Add(fn)
}

// State returns the current lifecycle state.
func (a *Appender) State() State {
	return State(a.state.Load())
}

// Start validates the configuration and begins operation. The Kafka client
// is created lazily by the first delivered event, not here.
//
// Returns an error if:
//   - Configuration is invalid (missing topic, brokers or encoder, invalid enums)
//   - Already started
//
// Every configuration problem is also reported as an error Status. After a
// failed Start the appender stays NotStarted; fix the configuration and call
// Start again.
func (a *Appender) Start() error {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	switch a.State() {
	case NotStarted, Stopped:
	default:
		return ErrAlreadyStarted
	}

	a.state.Store(int32(Starting))

	if a.clientFactory == nil {
		a.clientFactory = defaultClientFactory
	}

	a.registerInitialListenersOnce.Do(func() {
		for _, listener := range a.InitialStatusListeners {
			a.statusListeners.Add(listener)
		}
		for _, listener := range a.InitialDeliveryEventListeners {
			a.deliveryListeners.Add(listener)
		}
	})

	if err := a.validate(); err != nil {
		a.state.Store(int32(NotStarted))
		return err
	}

	p, err := a.compile()
	if err != nil {
		a.state.Store(int32(NotStarted))
		return err
	}

	if a.deferred == nil {
		a.deferred = newDeferredQueue()
	}

	a.pipeline.Store(p)
	a.state.Store(int32(Started))
	a.addInfo("appender started")

	return nil
}

// Stop flushes buffered records and releases the Kafka client. Flush
// problems are reported as a warning Status. Events still waiting in the
// deferred queue are handed to the fallback chain.
//
// Safe to call multiple times (idempotent), and before Start.
func (a *Appender) Stop(ctx context.Context) {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	if a.State() != Started {
		return
	}

	a.state.Store(int32(Stopping))
	p := a.pipeline.Load()

	// Apply CleanupTimeout only if the context doesn't already have a deadline.
	if a.CleanupTimeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.CleanupTimeout)
			defer cancel()
		}
	}

	if err := p.producer.release(ctx); err != nil {
		a.addWarn("failed to shut down kafka producer: flush incomplete", err)
	}

	for e := a.deferred.poll(); e != nil; e = a.deferred.poll() {
		p.chain.dispatch(e)
	}

	a.state.Store(int32(Stopped))
	a.addInfo("appender stopped")
}

// Append ships e to Kafka, or to the fallback chain if that is not possible.
// A nil event is ignored.
func (a *Appender) Append(e *LogEvent) {
	if e == nil {
		return
	}

	start := time.Now()

	p := a.pipeline.Load()
	if a.State() != Started || p == nil {
		a.fallbackWithoutPipeline(p, e, start)
		return
	}

	if p.deferred.matches(e.Logger) {
		a.deferred.push(e)
		a.emit(p, e, Deferred, nil, start)
		return
	}

	for d := a.deferred.poll(); d != nil; d = a.deferred.poll() {
		a.deliver(p, d, start)
	}

	a.deliver(p, e, start)
}

// Accept implements Sink, so an Appender can be the fallback of another.
func (a *Appender) Accept(e *LogEvent) {
	a.Append(e)
}

// BufferedRecords returns the current and maximum buffer counts and bytes.
// Returns zeros if the client has not been constructed yet.
func (a *Appender) BufferedRecords() (currentRecords, maxRecords int, currentBytes, maxBytes int64) {
	p := a.pipeline.Load()
	if p == nil {
		return 0, 0, 0, 0
	}

	client := p.producer.current()
	if client == nil {
		return 0, 0, 0, 0
	}

	return int(client.BufferedProduceRecords()), a.MaxBufferedRecords,
		client.BufferedProduceBytes(), int64(a.MaxBufferedBytes)
}

// deliver runs one event through encode, key, client acquisition and send.
func (a *Appender) deliver(p *pipeline, e *LogEvent, start time.Time) {
	value, err := p.encoder.Encode(e)
	if err != nil {
		a.fallback(p, e, FellBack, errors.Join(ErrEncoding, err), start)
		return
	}

	record := &kgo.Record{
		Topic:   p.topic,
		Key:     p.keyer.key(e),
		Value:   value,
		Headers: p.headers.build(e),
	}
	if p.timestamp && !e.Time.IsZero() {
		record.Timestamp = e.Time
	}
	if p.partition >= 0 {
		record.Partition = p.partition
	}

	client, err := p.producer.get()
	if err != nil {
		a.fallback(p, e, FellBack, err, start)
		return
	}

	var once sync.Once
	onFailure := func(failed *LogEvent, cause error) {
		once.Do(func() {
			a.fallback(p, failed, Failed, cause, start)
		})
	}

	if outcome := p.deliverer.send(client, record, e, onFailure); outcome != Failed {
		a.emit(p, e, outcome, nil, start)
	}
}

// fallback hands e to the chain and reports it.
func (a *Appender) fallback(p *pipeline, e *LogEvent, outcome Outcome, cause error, start time.Time) {
	p.chain.dispatch(e)
	a.emit(p, e, outcome, cause, start)
}

// fallbackWithoutPipeline handles events that arrive while the appender is
// not started. Before the first Start there is no compiled chain, so one is
// built from the configured Fallbacks.
func (a *Appender) fallbackWithoutPipeline(p *pipeline, e *LogEvent, start time.Time) {
	if p == nil {
		chain, _ := newFallbackChain(a, a.Fallbacks)
		p = &pipeline{
			topic:    a.Topic,
			delivery: a.Delivery,
			chain:    chain,
		}
	}
	a.fallback(p, e, FellBack, ErrNotStarted, start)
}

// emit dispatches a DeliveryEvent to all registered listeners.
func (a *Appender) emit(p *pipeline, e *LogEvent, outcome Outcome, err error, since time.Time) {
	event := DeliveryEvent{
		Logger:   e.Logger,
		Topic:    p.topic,
		Delivery: p.delivery,
		Outcome:  outcome,
		Duration: time.Since(since),
	}
	if err != nil {
		event.Error = err
		event.ErrorType = errorType(err)
	}

	a.deliveryListeners.Visit(func(listener func(*DeliveryEvent)) {
		listener(&event)
	})
}

// validate checks the prerequisites for starting. Every problem is reported
// as an error Status; the returned error joins them all.
func (a *Appender) validate() error {
	var errs []error
	report := func(err error) {
		a.addError(err.Error(), err)
		errs = append(errs, err)
	}

	if a.Topic == "" {
		report(fmt.Errorf("No topic set for the appender named [%q].", a.Name)) //nolint:staticcheck // diagnostic sentence
	}

	if len(a.Brokers) == 0 {
		report(fmt.Errorf("No brokers set for the appender named [%q].", a.Name)) //nolint:staticcheck // diagnostic sentence
	}
	for i, broker := range a.Brokers {
		if broker == "" {
			report(fmt.Errorf("broker %d is empty", i))
		}
	}

	if a.Encoder == nil {
		report(fmt.Errorf("No encoder set for the appender named [%q].", a.Name)) //nolint:staticcheck // diagnostic sentence
	}

	for _, err := range []error{
		validateKeyingStrategy(a.Keying),
		validateDeliveryStrategy(a.Delivery),
		validateAcks(a.Acks),
		validateHeaders(a.Headers),
	} {
		if err != nil {
			report(err)
		}
	}

	if _, err := compilePatterns(a.DeferredLoggers); err != nil {
		report(err)
	}

	if len(errs) == 0 {
		return nil
	}

	return errors.Join(ErrValidation, errors.Join(errs...))
}

// compile builds the pipeline from a validated configuration.
func (a *Appender) compile() (*pipeline, error) {
	patterns := a.DeferredLoggers
	if len(patterns) == 0 {
		patterns = defaultDeferredLoggers
	}
	matchers, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	hostName := a.HostName
	if hostName == "" {
		hostName, _ = os.Hostname()
	}

	k, err := newKeyer(a.Keying, hostName, a.ContextName)
	if err != nil {
		a.addError("keying strategy cannot resolve its input", err)
	}

	chain, skipped := newFallbackChain(a, a.Fallbacks)
	if skipped > 0 {
		a.addWarn(fmt.Sprintf("ignored %d fallback sink(s) that were nil or this appender", skipped), nil)
	}

	delivery := a.Delivery
	if delivery == "" {
		delivery = DeliveryAsync
	}

	partition := int32(-1)
	if a.Partition != nil && *a.Partition >= 0 {
		partition = *a.Partition
	}

	p := pipeline{
		topic:     a.Topic,
		partition: partition,
		timestamp: !a.OmitTimestamp,
		delivery:  delivery,
		encoder:   a.Encoder,
		keyer:     k,
		headers: &headerBuilder{
			headers: a.Headers,
			host:    hostName,
			context: a.ContextName,
		},
		deliverer: newDeliverer(delivery, a.DeliveryTimeout),
		chain:     chain,
		deferred:  matchers,
	}

	p.producer = newProducerHandle(
		func() (kafkaClient, error) {
			return a.newClient(partition >= 0)
		},
		func(err error) {
			a.addError("error creating producer", err)
		},
	)

	return &p, nil
}

// newClient builds the franz-go client and, if configured, probes the
// brokers until one answers.
func (a *Appender) newClient(manualPartition bool) (kafkaClient, error) {
	client, err := a.clientFactory(a.toKgoOpts(manualPartition)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	if a.ConnectAttempts <= 0 {
		return client, nil
	}

	if err := a.probe(client); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// probe pings the brokers up to ConnectAttempts times.
func (a *Appender) probe(client kafkaClient) error {
	b, err := backoff.New(
		backoff.WithInitialDelay(0),
		backoff.WithExponentialLimit(time.Second*5),
	)
	if err != nil {
		return err
	}

	timeout := a.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	for i := 1; ; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err = client.Ping(ctx)
		cancel()
		if err == nil {
			return nil
		}

		if i >= a.ConnectAttempts {
			break
		}
		b.Sleep()
	}

	return fmt.Errorf("no broker answered after %d attempts: %w", a.ConnectAttempts, err)
}

// toKgoOpts converts the Appender's configuration to franz-go client options.
func (a *Appender) toKgoOpts(manualPartition bool) []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(a.Brokers...),
		kgo.DefaultProduceTopic(a.Topic),
	}

	if a.Logger != nil {
		opts = append(opts, kgo.WithLogger(a.Logger))
	}

	if a.AllowAutoTopicCreation {
		opts = append(opts, kgo.AllowAutoTopicCreation())
	}

	if a.SASL != nil {
		opts = append(opts, kgo.SASL(a.SASL))
	}

	if a.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(a.TLS))
	}

	if a.MaxBufferedRecords > 0 {
		opts = append(opts, kgo.MaxBufferedRecords(a.MaxBufferedRecords))
	}

	if a.MaxBufferedBytes > 0 {
		opts = append(opts, kgo.MaxBufferedBytes(a.MaxBufferedBytes))
	}

	if a.RequestTimeout > 0 {
		opts = append(opts, kgo.RequestTimeoutOverhead(a.RequestTimeout))
	}

	if a.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(a.DeliveryTimeout))
	}

	if a.MaxRetries > 0 {
		opts = append(opts, kgo.RequestRetries(a.MaxRetries))
	}

	if manualPartition {
		opts = append(opts, kgo.RecordPartitioner(kgo.ManualPartitioner()))
	}

	opts = append(opts, a.Acks.kgoOpts()...)

	return opts
}

// diagLogger returns the configured logger, or one that drops everything.
func (a *Appender) diagLogger() kgo.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return &nopLogger{}
}
