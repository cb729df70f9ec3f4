// Package log provides a small fluent wrapper over zerolog shared by every
// package in the debate engine so that log lines carry consistent fields
// (debate_id, round, agent_id) without each caller wiring a sub-logger by
// hand.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var base zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	Configure(os.Getenv("LOG_FORMAT"), os.Getenv("DEBUG"))
}

// Configure rebuilds the package logger. format "json" emits structured
// JSON; anything else (including empty) emits a console-pretty writer.
// debug, if "true"/"1", lowers the level to debug.
func Configure(format string, debug string) {
	var w io.Writer = os.Stderr
	if !strings.EqualFold(format, "json") {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	level := zerolog.InfoLevel
	if debug == "true" || debug == "1" {
		level = zerolog.DebugLevel
	}

	base = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Event wraps a zerolog.Context so field builders can be chained before a
// terminal level call, e.g. log.WithField("round", 2).Info("round started").
type Event struct {
	ctx zerolog.Context
}

// WithField starts a field chain with a single key/value pair.
func WithField(key string, value interface{}) Event {
	return Event{ctx: base.With().Interface(key, value)}
}

// WithFields starts a field chain from a map of key/value pairs.
func WithFields(fields map[string]interface{}) Event {
	ctx := base.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return Event{ctx: ctx}
}

// WithError starts a field chain carrying an "error" field.
func WithError(err error) Event {
	return Event{ctx: base.With().Err(err)}
}

func (e Event) WithField(key string, value interface{}) Event {
	return Event{ctx: e.ctx.Interface(key, value)}
}

func (e Event) WithFields(fields map[string]interface{}) Event {
	ctx := e.ctx
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return Event{ctx: ctx}
}

func (e Event) WithError(err error) Event {
	return Event{ctx: e.ctx.Err(err)}
}

func (e Event) Debug(msg string) { e.ctx.Logger().Debug().Msg(msg) }
func (e Event) Info(msg string)  { e.ctx.Logger().Info().Msg(msg) }
func (e Event) Warn(msg string)  { e.ctx.Logger().Warn().Msg(msg) }
func (e Event) Error(msg string) { e.ctx.Logger().Error().Msg(msg) }

// Package-level terminal calls for the common case of no extra fields.
func Debug(msg string) { base.Debug().Msg(msg) }
func Info(msg string)  { base.Info().Msg(msg) }
func Warn(msg string)  { base.Warn().Msg(msg) }
func Error(msg string) { base.Error().Msg(msg) }
