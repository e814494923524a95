// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for StoryKid services.
//
// The package wraps Go's standard slog with a small amount of convention:
// every logger carries a "service" attribute so aggregated logs can be
// filtered by component, and output format is selectable between
// human-readable text (development) and JSON (deployment).
//
// Basic usage:
//
//	logger := logging.New(logging.Config{Service: "story", JSON: true})
//	logger.Info("story generated", "story_id", id, "duration_ms", elapsed.Milliseconds())
//	logger.Error("mint failed", "error", err)
//
// This package does NOT automatically redact sensitive data. Callers must
// ensure API keys and private keys are never logged:
//
//	// BAD: logs the key
//	logger.Info("openai", "api_key", key)
//
//	// GOOD: log metadata only
//	logger.Info("openai", "api_key_present", key != "")
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Level represents log severity. Levels follow the slog convention and are
// ordered Debug < Info < Warn < Error; setting a minimum level filters out
// everything below it.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures Logger behavior. A zero-value Config creates a logger
// that writes Info+ messages to stderr in text format with no service tag.
type Config struct {
	// Level sets the minimum log level. Default: LevelInfo.
	Level Level

	// Service identifies the component generating logs. When set, it is
	// included in every entry as the "service" attribute.
	Service string

	// JSON enables machine-parseable JSON output instead of text.
	JSON bool

	// Output overrides the destination. Default: os.Stderr.
	// Mainly useful in tests.
	Output io.Writer
}

// Logger provides structured logging with a fixed service attribute.
// Logger is safe for concurrent use.
type Logger struct {
	slog *slog.Logger
}

// New creates a Logger from config.
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}
	return &Logger{slog: slog.New(handler)}
}

// Default returns a text logger at Info level tagged "storykid".
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "storykid"})
}

// Debug logs at Debug level with key-value attributes.
func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }

// Info logs at Info level with key-value attributes.
func (l *Logger) Info(msg string, args ...any) { l.slog.Info(msg, args...) }

// Warn logs at Warn level with key-value attributes.
func (l *Logger) Warn(msg string, args ...any) { l.slog.Warn(msg, args...) }

// Error logs at Error level with key-value attributes.
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a new Logger carrying additional attributes. The parent is
// not modified.
//
//	reqLogger := logger.With("process_id", id)
//	reqLogger.Info("generation started") // includes process_id
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// Slog returns the underlying slog.Logger for features not exposed by this
// wrapper, and for slog.SetDefault in main.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}
