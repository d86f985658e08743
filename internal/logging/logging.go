package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. format "console" writes human-readable lines,
// anything else writes JSON.
func New(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level. Empty or unknown names
// mean info; "warning" and "off" are accepted as aliases.
func ParseLevel(lvl string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(lvl))
	switch name {
	case "warning":
		name = zerolog.LevelWarnValue
	case "off":
		name = "disabled"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Component returns a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Mask hides the middle of a secret, keeping the first 6 and last 4 characters.
func Mask(s string) string {
	const left, right = 6, 4
	if len(s) <= left+right {
		return s
	}
	return s[:left] + "***" + s[len(s)-right:]
}
