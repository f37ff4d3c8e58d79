// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level of the base logger: trace, debug, info,
	// warn, error, fatal, panic, disabled. Default: info.
	Level string

	// Format is json or console. Default: json.
	Format string

	// Caller adds file:line to every entry.
	Caller bool

	// Timestamp adds the time field. Default: true.
	Timestamp bool

	// Components overrides the level per component name, e.g. {"store": "debug"}.
	// Overrides may be more or less verbose than Level.
	Components map[string]string

	// Output receives log lines. Default: os.Stderr.
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

// state is the process-wide logger plus per-component levels. zerolog's
// global level is kept at the most verbose configured level so that a
// component override can be louder than the base logger.
type state struct {
	mu         sync.RWMutex
	base       zerolog.Logger
	level      zerolog.Level
	components map[string]zerolog.Level
}

var global state

//nolint:gochecknoinits // logging must work before an explicit Init call
func init() {
	cfg := DefaultConfig()
	if os.Getenv("PLAYWISE_QUIET_TESTS") == "1" {
		cfg.Level = "fatal"
	}
	Init(cfg)
}

// Init (re)configures the global logger. Unknown levels fall back to info.
func Init(cfg Config) {
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.ErrorFieldName = "error"

	out := cfg.Output
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}

	components := make(map[string]zerolog.Level, len(cfg.Components))
	for name, lvl := range cfg.Components {
		components[name] = parseLevel(lvl)
	}

	global.mu.Lock()
	defer global.mu.Unlock()
	global.level = parseLevel(cfg.Level)
	global.base = ctx.Logger().Level(global.level)
	global.components = components
	global.applyGlobalLevelLocked()
}

// applyGlobalLevelLocked lowers zerolog's global gate to the most verbose
// configured level. Must be called with mu held.
func (s *state) applyGlobalLevelLocked() {
	lowest := s.level
	for _, lvl := range s.components {
		if lvl < lowest {
			lowest = lvl
		}
	}
	zerolog.SetGlobalLevel(lowest)
}

// ParseLevel converts a level name. "warning" and "off" are accepted as
// aliases; surrounding space and case are ignored.
func ParseLevel(level string) (zerolog.Level, error) {
	switch s := strings.ToLower(strings.TrimSpace(level)); s {
	case "warning":
		return zerolog.WarnLevel, nil
	case "off":
		return zerolog.Disabled, nil
	case "":
		return zerolog.InfoLevel, nil
	default:
		lvl, err := zerolog.ParseLevel(s)
		if err != nil || lvl == zerolog.NoLevel {
			return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
		}
		return lvl, nil
	}
}

func parseLevel(level string) zerolog.Level {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Logger returns the base logger.
func Logger() zerolog.Logger {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.base
}

// SetLogger replaces the base logger, keeping the configured levels.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func SetLogger(l zerolog.Logger) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.base = l.Level(global.level)
}

// SetLevelString changes the base level at runtime. Component overrides
// are kept.
func SetLevelString(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	global.level = lvl
	global.base = global.base.Level(lvl)
	global.applyGlobalLevelLocked()
	return nil
}

// With creates a child logger context from the base logger.
func With() zerolog.Context {
	return Logger().With()
}

// WithComponent returns a child logger tagged with component, at the
// component's override level when one is configured.
//
//	storeLogger := logging.WithComponent("store")
func WithComponent(component string) zerolog.Logger {
	global.mu.RLock()
	l := global.base.With().Str("component", component).Logger()
	lvl, ok := global.components[component]
	global.mu.RUnlock()

	if ok {
		l = l.Level(lvl)
	}
	return l
}

// LevelFor returns l at component's override level, or l unchanged when
// no override is configured. Use it for loggers handed to constructors that
// add their own component field.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func LevelFor(l zerolog.Logger, component string) zerolog.Logger {
	global.mu.RLock()
	lvl, ok := global.components[component]
	global.mu.RUnlock()
	if !ok {
		return l
	}
	return l.Level(lvl)
}

// current returns an addressable copy of the base logger; zerolog's level
// methods have pointer receivers.
func current() *zerolog.Logger {
	l := Logger()
	return &l
}

// Debug starts a debug event on the base logger.
func Debug() *zerolog.Event { return current().Debug() }

// Info starts an info event on the base logger.
func Info() *zerolog.Event { return current().Info() }

// Warn starts a warn event on the base logger.
func Warn() *zerolog.Event { return current().Warn() }

// Error starts an error event on the base logger.
func Error() *zerolog.Event { return current().Error() }

// Fatal starts a fatal event; the process exits after it is written.
func Fatal() *zerolog.Event { return current().Fatal() }

// Err starts an error-level event with err attached, or an info event when
// err is nil.
func Err(err error) *zerolog.Event { return current().Err(err) }

// NewTestLogger creates a logger that writes JSON to w.
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
