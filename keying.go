// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"errors"
	"fmt"
	"strings"
)

// KeyingStrategy specifies how the partition key of a record is derived from
// its LogEvent. All hashed strategies produce the 4-byte big-endian FNV-1a
// hash of the chosen string, so the same input always yields the same key and
// therefore the same partition.
type KeyingStrategy string

const (
	// KeyNone produces records without a key. The empty string is treated
	// the same way.
	KeyNone KeyingStrategy = "none"

	// KeyHostName keys every record by the host name, keeping all events of
	// one host in order.
	KeyHostName KeyingStrategy = "hostname"

	// KeyContextName keys every record by the appender's ContextName.
	KeyContextName KeyingStrategy = "contextname"

	// KeyLoggerName keys records by LogEvent.Logger.
	KeyLoggerName KeyingStrategy = "loggername"

	// KeyThreadName keys records by LogEvent.Thread.
	KeyThreadName KeyingStrategy = "threadname"

	// KeyAttr uses format "attr:<key>" - parsed at runtime.
	// Example: "attr:request_id" keys by the request_id attribute.
	// Note: This is a prefix pattern, not a constant. Use IsAttrStrategy() to detect.
)

var keyingStrategyTypes map[KeyingStrategy]struct{}
var keyingStrategyList []string

func init() {
	list := []KeyingStrategy{
		KeyNone,
		KeyHostName,
		KeyContextName,
		KeyLoggerName,
		KeyThreadName,
	}

	keyingStrategyTypes = make(map[KeyingStrategy]struct{})
	for _, s := range list {
		keyingStrategyTypes[s] = struct{}{}
		keyingStrategyList = append(keyingStrategyList, string(s))
	}
}

// IsAttrStrategy checks if this strategy keys by an event attribute.
// Returns (true, key) if the strategy is "attr:<key>", otherwise (false, "").
func (s KeyingStrategy) IsAttrStrategy() (bool, string) {
	const prefix = "attr:"
	if len(s) > len(prefix) && string(s[:len(prefix)]) == prefix {
		return true, string(s[len(prefix):])
	}
	return false, ""
}

// validateKeyingStrategy validates the KeyingStrategy enum value.
func validateKeyingStrategy(strategy KeyingStrategy) error {
	if strategy == "" {
		return nil
	}

	if _, ok := keyingStrategyTypes[strategy]; ok {
		return nil
	}

	if isAttr, key := strategy.IsAttrStrategy(); isAttr {
		if strings.TrimSpace(key) == "" {
			return errors.Join(ErrValidation,
				fmt.Errorf("attr keying requires an attribute key (e.g., 'attr:request_id')"))
		}
		return nil
	}

	list := strings.Join(keyingStrategyList, "', '")
	list = "'" + list + "'"
	return errors.Join(ErrValidation,
		fmt.Errorf("keying strategy '%s' is invalid: must be %s, 'attr:<key>' or empty", strategy, list))
}

// keyer is a compiled KeyingStrategy. Host and context keys are computed
// once, when the appender starts.
type keyer struct {
	strategy KeyingStrategy
	attr     string
	fixed    []byte
}

// newKeyer compiles strategy. It returns a non-nil error when the host or
// context identifier the strategy needs is missing; the returned keyer is
// still usable and falls back to the hash of the empty string.
func newKeyer(strategy KeyingStrategy, hostName, contextName string) (*keyer, error) {
	k := keyer{strategy: strategy}

	var err error
	switch strategy {
	case KeyHostName:
		if hostName == "" {
			err = errors.Join(ErrValidation,
				errors.New("host name could not be resolved; hostname keying will use a constant degraded key"))
		}
		k.fixed = hashKey(hostName)
	case KeyContextName:
		if contextName == "" {
			err = errors.Join(ErrValidation,
				errors.New("context name is not set; contextname keying will use a constant degraded key"))
		}
		k.fixed = hashKey(contextName)
	default:
		if isAttr, key := strategy.IsAttrStrategy(); isAttr {
			k.attr = key
		}
	}

	return &k, err
}

// key derives the partition key for e. A nil result means "no key".
func (k *keyer) key(e *LogEvent) []byte {
	switch k.strategy {
	case KeyHostName, KeyContextName:
		return append([]byte(nil), k.fixed...)
	case KeyLoggerName:
		return hashKey(e.Logger)
	case KeyThreadName:
		return hashKey(e.Thread)
	}

	if k.attr != "" {
		v, _ := e.Attr(k.attr)
		return hashKey(v)
	}

	return nil
}
