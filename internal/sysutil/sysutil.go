// Package sysutil holds process-level helpers for the server entrypoint:
// logger setup and environment flag parsing.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureLogger installs the global zerolog logger. Output is JSON on w
// unless pretty is set, in which case a human-readable console writer is used.
// Every entry carries the service name and version. A nil w means stderr.
func ConfigureLogger(w io.Writer, level string, pretty bool, service, version string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	l := zerolog.New(out).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
	log.Logger = l
	zerolog.DefaultContextLogger = &log.Logger
	return l
}

// SetLogLevel sets the global zerolog level from a LOG_LEVEL style string.
// "warning" is accepted for warn. Empty, unknown and "disabled" fall back
// to info so a typo never silences the service.
func SetLogLevel(lvl string) {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if lvl == "warning" {
		lvl = "warn"
	}
	l, err := zerolog.ParseLevel(lvl)
	if err != nil || l == zerolog.NoLevel || l == zerolog.Disabled {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
}

var (
	truthy = map[string]bool{"1": true, "true": true, "yes": true, "y": true, "on": true}
	falsy  = map[string]bool{"0": true, "false": true, "no": true, "n": true, "off": true}
)

// IsTruthy reports whether v spells an enabled flag: 1, true, yes, y or on,
// case-insensitively.
func IsTruthy(v string) bool { return truthy[strings.ToLower(strings.TrimSpace(v))] }

// IsFalsy is the disabled counterpart of IsTruthy: 0, false, no, n or off.
// A value can be neither, which callers treat as unset.
func IsFalsy(v string) bool { return falsy[strings.ToLower(strings.TrimSpace(v))] }

// FirstNonEmpty returns the first value that is not blank, unmodified.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
