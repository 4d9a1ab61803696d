// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logkafka

import (
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Status is a diagnostic record about the appender itself: configuration
// errors found by Start, producer construction failures, and shutdown
// warnings. Status records are never produced per delivered event.
type Status struct {
	// Time is when the status was recorded.
	Time time.Time

	// Appender is the Name of the appender that recorded the status.
	Appender string

	// Level is the severity (kgo.LogLevelError, kgo.LogLevelWarn, ...).
	Level kgo.LogLevel

	// Message is a human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// AddStatusListener adds a listener for diagnostic Status records.
//
// The returned function removes the listener. Listeners may be called from
// any goroutine that triggers a diagnostic (including the first Append that
// constructs the producer) and must be thread-safe.
func (a *Appender) AddStatusListener(fn func(*Status)) func() {
	return a.statusListeners.Add(fn)
}

// addStatus records a Status, fanning it out to the listeners and writing it
// to the diagnostic logger.
func (a *Appender) addStatus(level kgo.LogLevel, msg string, err error) {
	s := Status{
		Time:     time.Now(),
		Appender: a.Name,
		Level:    level,
		Message:  msg,
		Err:      err,
	}

	a.statusListeners.Visit(func(listener func(*Status)) {
		listener(&s)
	})

	logger := a.diagLogger()
	if err != nil {
		logger.Log(level, msg, "appender", a.Name, "error", err.Error())
		return
	}
	logger.Log(level, msg, "appender", a.Name)
}

func (a *Appender) addError(msg string, err error) {
	a.addStatus(kgo.LogLevelError, msg, err)
}

func (a *Appender) addWarn(msg string, err error) {
	a.addStatus(kgo.LogLevelWarn, msg, err)
}

func (a *Appender) addInfo(msg string) {
	a.addStatus(kgo.LogLevelInfo, msg, nil)
}
