// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"errors"
	"fmt"
	"strings"
)

// ClientNamespace is the logger name prefix used for log lines emitted by the
// franz-go client itself (see NewClientLogger). Events from this namespace are
// deferred by default.
const ClientNamespace = "github.com/twmb/franz-go"

// Pattern is a simplified glob for logger name matching.
//
// Supported patterns:
//
//	"*"                       - Matches any logger name
//	"exact"                   - Matches "exact" only
//	"github.com/twmb/*"       - Matches every logger name starting with "github.com/twmb/"
//	"*.kafka"                 - Matches every logger name ending with ".kafka"
//
// Escaping asterisks:
//
//	Use backslash to match a literal asterisk: "star\\*name" matches "star*name".
//
// Rules:
//   - At most one unescaped * per pattern
//   - * matches zero or more characters
//   - Matching is case-sensitive
type Pattern string

// defaultDeferredLoggers is used when Appender.DeferredLoggers is empty.
var defaultDeferredLoggers = []Pattern{ClientNamespace + "*"}

// compile parses the pattern once, returning a matcher that can be used
// repeatedly without re-parsing.
func (p Pattern) compile() (*patternMatcher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	pattern := string(p)

	if pattern == "*" {
		return &patternMatcher{all: true}, nil
	}

	before, wildcard, after, _ := splitWildcard(pattern)

	if wildcard == "" {
		return &patternMatcher{exact: before}, nil
	}

	return &patternMatcher{
		wildcard: true,
		prefix:   before,
		suffix:   after,
	}, nil
}

// patternMatcher is a compiled pattern.
type patternMatcher struct {
	all      bool
	wildcard bool
	exact    string
	prefix   string
	suffix   string
}

// matches checks if a logger name matches this compiled pattern.
func (pm *patternMatcher) matches(name string) bool {
	if pm.all {
		return true
	}

	if !pm.wildcard {
		return name == pm.exact
	}

	if len(name) < len(pm.prefix)+len(pm.suffix) {
		return false
	}

	return strings.HasPrefix(name, pm.prefix) && strings.HasSuffix(name, pm.suffix)
}

// validate validates the pattern syntax.
func (p Pattern) validate() error {
	pattern := string(p)
	if pattern == "" {
		return errors.Join(ErrValidation, fmt.Errorf("pattern must not be empty"))
	}

	if _, _, _, ok := splitWildcard(pattern); !ok {
		return errors.Join(ErrValidation, fmt.Errorf("pattern '%s' is invalid: at most one unescaped '*' is allowed", pattern))
	}

	return nil
}

// loggerMatchers is a compiled list of patterns; a name matches when any
// pattern matches.
type loggerMatchers []*patternMatcher

func compilePatterns(patterns []Pattern) (loggerMatchers, error) {
	rv := make(loggerMatchers, 0, len(patterns))
	for i, p := range patterns {
		m, err := p.compile()
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		rv = append(rv, m)
	}
	return rv, nil
}

func (lm loggerMatchers) matches(name string) bool {
	for _, m := range lm {
		if m.matches(name) {
			return true
		}
	}
	return false
}

// splitWildcard splits s at its only unescaped '*'. A backslash escapes a
// following '*' or '\'; any other backslash is kept as is. Without a
// wildcard, before holds the whole unescaped string. ok is false when more
// than one unescaped '*' is present.
func splitWildcard(s string) (before, wildcard, after string, ok bool) {
	var parts [2]strings.Builder
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && (s[i+1] == '*' || s[i+1] == '\\'):
			i++
			parts[n].WriteByte(s[i])
		case c == '*':
			if n == 1 {
				return "", "", "", false
			}
			n = 1
		default:
			parts[n].WriteByte(c)
		}
	}

	if n == 1 {
		wildcard = "*"
	}
	return parts[0].String(), wildcard, parts[1].String(), true
}
