package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. It discards output until InitLogging runs.
var Logger = zerolog.New(io.Discard)

// InitLogging initializes logging
func InitLogging(level, format string) {
	var out io.Writer = os.Stdout
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Debugf logs debug level messages
func Debugf(format string, v ...interface{}) {
	Logger.Debug().Msgf(format, v...)
}

// Infof logs info level messages
func Infof(format string, v ...interface{}) {
	Logger.Info().Msgf(format, v...)
}

// Warnf logs warning level messages
func Warnf(format string, v ...interface{}) {
	Logger.Warn().Msgf(format, v...)
}

// Errorf logs error level messages
func Errorf(format string, v ...interface{}) {
	Logger.Error().Msgf(format, v...)
}
