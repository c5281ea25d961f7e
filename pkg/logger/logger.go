// backend-go/pkg/logger/logger.go
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Console output by default; JSON when LOG_FORMAT=json (container deploys)
	var out = os.Stdout
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		Log = zerolog.New(out).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Str("service", "storesight").
			Logger()
	} else {
		console := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
		}

		Log = zerolog.New(console).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Caller().
			Logger()
	}

	// Packages log through the zerolog global, keep it on the same writer.
	zlog.Logger = Log
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	zlog.Logger = Log
}
