// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

// Encoder names accepted by Config.Encoder.
const (
	EncoderJSON    = "json"
	EncoderMsgpack = "msgpack"
	EncoderWRP     = "wrp"
)

// Config is the file/environment form of an Appender's configuration.
// Load one with LoadConfig and turn it into an Appender with NewAppender.
type Config struct {
	Name      string   `koanf:"name" yaml:"name"`
	Topic     string   `koanf:"topic" yaml:"topic" validate:"required"`
	Partition int32    `koanf:"partition" yaml:"partition"`
	Brokers   []string `koanf:"brokers" yaml:"brokers" validate:"required,min=1,dive,hostname_port"`

	// Encoder is one of "json", "msgpack" or "wrp".
	Encoder   string `koanf:"encoder" yaml:"encoder" validate:"oneof=json msgpack wrp"`
	WRPSource string `koanf:"wrp_source" yaml:"wrp_source" validate:"required_if=Encoder wrp"`

	Keying          string              `koanf:"keying" yaml:"keying" validate:"keying"`
	Delivery        string              `koanf:"delivery" yaml:"delivery" validate:"omitempty,oneof=async blocking try"`
	Acks            string              `koanf:"acks" yaml:"acks" validate:"omitempty,oneof=all leader none"`
	HostName        string              `koanf:"host_name" yaml:"host_name"`
	ContextName     string              `koanf:"context_name" yaml:"context_name"`
	DeferredLoggers []string            `koanf:"deferred_loggers" yaml:"deferred_loggers"`
	OmitTimestamp   bool                `koanf:"omit_timestamp" yaml:"omit_timestamp"`
	Headers         map[string][]string `koanf:"headers" yaml:"headers"`

	MaxBufferedRecords     int           `koanf:"max_buffered_records" yaml:"max_buffered_records" validate:"gte=0"`
	MaxBufferedBytes       int           `koanf:"max_buffered_bytes" yaml:"max_buffered_bytes" validate:"gte=0"`
	RequestTimeout         time.Duration `koanf:"request_timeout" yaml:"request_timeout" validate:"gte=0"`
	DeliveryTimeout        time.Duration `koanf:"delivery_timeout" yaml:"delivery_timeout" validate:"gte=0"`
	CleanupTimeout         time.Duration `koanf:"cleanup_timeout" yaml:"cleanup_timeout" validate:"gte=0"`
	MaxRetries             int           `koanf:"max_retries" yaml:"max_retries" validate:"gte=0"`
	ConnectAttempts        int           `koanf:"connect_attempts" yaml:"connect_attempts" validate:"gte=0"`
	AllowAutoTopicCreation bool          `koanf:"allow_auto_topic_creation" yaml:"allow_auto_topic_creation"`

	SASL SASLConfig `koanf:"sasl" yaml:"sasl"`
	TLS  TLSConfig  `koanf:"tls" yaml:"tls"`
}

// SASLConfig configures SASL authentication. Only PLAIN is supported.
type SASLConfig struct {
	Mechanism string `koanf:"mechanism" yaml:"mechanism" validate:"omitempty,oneof=plain"`
	Username  string `koanf:"username" yaml:"username" validate:"required_with=Mechanism"`
	Password  string `koanf:"password" yaml:"password"`
}

// TLSConfig configures TLS to the brokers.
type TLSConfig struct {
	Enabled            bool   `koanf:"enabled" yaml:"enabled"`
	ServerName         string `koanf:"server_name" yaml:"server_name"`
	CAFile             string `koanf:"ca_file" yaml:"ca_file" validate:"omitempty,file"`
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// DefaultConfig returns the configuration LoadConfig starts from.
func DefaultConfig() *Config {
	return &Config{
		Partition:      -1,
		Encoder:        EncoderJSON,
		Delivery:       string(DeliveryAsync),
		CleanupTimeout: 10 * time.Second,
	}
}

// sliceConfigPaths are split on commas when they arrive as a single string
// from the environment.
var sliceConfigPaths = []string{
	"brokers",
	"deferred_loggers",
}

// LoadConfig loads configuration using koanf with the following precedence
// (highest to lowest):
//
//  1. Environment variables starting with envPrefix, e.g. LOGKAFKA_TOPIC
//  2. The YAML file at path, if path is not empty
//  3. DefaultConfig
//
// The result is validated before it is returned.
func LoadConfig(path, envPrefix string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if envPrefix != "" {
		if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc(envPrefix)), nil); err != nil {
			return nil, fmt.Errorf("failed to load environment variables: %w", err)
		}
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransformFunc maps LOGKAFKA_SASL_USERNAME to sasl.username and
// LOGKAFKA_MAX_RETRIES to max_retries.
func envTransformFunc(prefix string) func(string) string {
	return func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, prefix))
		for _, section := range []string{"sasl_", "tls_"} {
			if strings.HasPrefix(key, section) {
				return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
			}
		}
		return key
	}
}

// processSliceFields converts comma-separated string values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		var trimmed []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}

		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("keying", func(fl validator.FieldLevel) bool {
		return validateKeyingStrategy(KeyingStrategy(fl.Field().String())) == nil
	})
	return v
}

// Validate checks the configuration. The returned error wraps ErrValidation.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Join(ErrValidation, err)
	}

	for i, p := range c.DeferredLoggers {
		if err := Pattern(p).validate(); err != nil {
			return fmt.Errorf("deferred_loggers[%d]: %w", i, err)
		}
	}

	return validateHeaders(c.Headers)
}

// NewAppender builds an Appender from the configuration. The appender still
// needs to be started. The Logger and the listeners are left for the caller.
func (c *Config) NewAppender(fallbacks ...Sink) (*Appender, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	a := Appender{
		Name:                   c.Name,
		Topic:                  c.Topic,
		Brokers:                c.Brokers,
		Keying:                 KeyingStrategy(c.Keying),
		Delivery:               DeliveryStrategy(c.Delivery),
		Fallbacks:              fallbacks,
		HostName:               c.HostName,
		ContextName:            c.ContextName,
		OmitTimestamp:          c.OmitTimestamp,
		Headers:                c.Headers,
		Acks:                   Acks(c.Acks),
		MaxBufferedRecords:     c.MaxBufferedRecords,
		MaxBufferedBytes:       c.MaxBufferedBytes,
		RequestTimeout:         c.RequestTimeout,
		DeliveryTimeout:        c.DeliveryTimeout,
		CleanupTimeout:         c.CleanupTimeout,
		MaxRetries:             c.MaxRetries,
		ConnectAttempts:        c.ConnectAttempts,
		AllowAutoTopicCreation: c.AllowAutoTopicCreation,
	}

	if c.Partition >= 0 {
		partition := c.Partition
		a.Partition = &partition
	}

	for _, p := range c.DeferredLoggers {
		a.DeferredLoggers = append(a.DeferredLoggers, Pattern(p))
	}

	switch c.Encoder {
	case EncoderMsgpack:
		a.Encoder = MsgpackEncoder{}
	case EncoderWRP:
		a.Encoder = WRPEncoder{Source: c.WRPSource}
	default:
		a.Encoder = JSONEncoder{}
	}

	if c.SASL.Mechanism != "" {
		a.SASL = plain.Auth{
			User: c.SASL.Username,
			Pass: c.SASL.Password,
		}.AsMechanism()
	}

	if c.TLS.Enabled {
		tlsCfg, err := c.TLS.build()
		if err != nil {
			return nil, err
		}
		a.TLS = tlsCfg
	}

	return &a, nil
}

func (t *TLSConfig) build() (*tls.Config, error) {
	cfg := tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         t.ServerName,
		InsecureSkipVerify: t.InsecureSkipVerify, //nolint:gosec // opt-in for test clusters
	}

	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file %s: %w", t.CAFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA file %s", t.CAFile)
		}
		cfg.RootCAs = pool
	}

	return &cfg, nil
}
