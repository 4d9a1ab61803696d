// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command logkafka reads log lines from stdin and ships each one to Kafka.
// Lines that cannot be delivered are written to stderr.
//
//	tail -F /var/log/app.log | logkafka -config logkafka.yaml -logger app
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/xmidt-org/logkafka"
)

const envPrefix = "LOGKAFKA_"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, errOut io.Writer) error {
	fs := flag.NewFlagSet("logkafka", flag.ContinueOnError)
	fs.SetOutput(errOut)

	configPath := fs.String("config", "", "path to a YAML configuration file")
	loggerName := fs.String("logger", "stdin", "logger name attached to every line")
	level := fs.String("level", "info", "level attached to every line (debug, info, warn, error)")
	verbose := fs.Bool("v", false, "log diagnostics to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var lineLevel slog.Level
	if err := lineLevel.UnmarshalText([]byte(*level)); err != nil {
		return fmt.Errorf("invalid level %q: %w", *level, err)
	}

	diag := zerolog.New(zerolog.ConsoleWriter{Out: errOut, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)
	if *verbose {
		diag = diag.Level(zerolog.DebugLevel)
	}

	cfg, err := logkafka.LoadConfig(*configPath, envPrefix)
	if err != nil {
		return err
	}

	undelivered := zerolog.New(errOut).With().Str("undelivered", cfg.Topic).Logger()
	appender, err := cfg.NewAppender(logkafka.ZerologSink(undelivered))
	if err != nil {
		return err
	}
	appender.Logger = logkafka.NewZerologLogger(diag)

	if err := appender.Start(); err != nil {
		return err
	}
	defer appender.Stop(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	diag.Info().Str("topic", cfg.Topic).Strs("brokers", cfg.Brokers).Msg("shipping stdin")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			diag.Error().Err(err).Msg("failed reading stdin")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			appender.Append(&logkafka.LogEvent{
				Time:    time.Now(),
				Logger:  *loggerName,
				Level:   lineLevel,
				Message: line,
			})
		}
	}
}
