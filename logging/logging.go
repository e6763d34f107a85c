// Package logging constructs the structured logger every other package in
// this module accepts, built on logiface with a zerolog backend.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Level re-exports logiface.Level, so callers never need to import logiface
// directly just to configure a level.
type Level = logiface.Level

const (
	LevelDisabled = logiface.LevelDisabled
	LevelError    = logiface.LevelError
	LevelWarning  = logiface.LevelWarning
	LevelInfo     = logiface.LevelInformational
	LevelDebug    = logiface.LevelDebug
	LevelTrace    = logiface.LevelTrace
)

// ParseLevel maps the config file's lower-case level names onto a Level.
// Unrecognized names fall back to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "disabled", "off", "none":
		return LevelDisabled
	case "error":
		return LevelError
	case "warning", "warn":
		return LevelWarning
	case "debug":
		return LevelDebug
	case "trace":
		return LevelTrace
	case "info", "information", "":
		return LevelInfo
	default:
		return LevelInfo
	}
}

// New constructs a logiface.Logger[logiface.Event] writing to w at level,
// backed by izerolog/zerolog. eventbus.New, eventbus.NewFamily and
// engine.WithLogger accept this type; a nil *logiface.Logger[E] is a no-op
// under logiface's nil-receiver contract.
func New(level Level, w io.Writer) *logiface.Logger[logiface.Event] {
	zl := zerolog.New(w).With().Timestamp().Logger()
	concrete := logiface.New[*izerolog.Event](
		izerolog.WithZerolog(zl),
		logiface.WithLevel[*izerolog.Event](level),
	)
	return concrete.Logger()
}

// Component returns a sub-logger tagged with a "component" field; the engine
// package tags its log lines this way as "engine".
func Component(l *logiface.Logger[logiface.Event], name string) *logiface.Logger[logiface.Event] {
	if l == nil {
		return nil
	}
	return l.Clone().Str("component", name).Logger()
}

// Errorf logs a formatted error-level message with err attached, a helper
// for "programmer error" conditions. No package in this module calls it.
func Errorf(l *logiface.Logger[logiface.Event], err error, format string, args ...any) {
	if l == nil {
		return
	}
	l.Err().Err(err).Log(fmt.Sprintf(format, args...))
}
