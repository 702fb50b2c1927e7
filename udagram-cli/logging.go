package udagramcli

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger returns the service logger. JSON on stdout for Lambda, a human
// readable console writer when running with --console.
func Logger(service Service) zerolog.Logger {
	var w io.Writer = os.Stdout
	if CommonOpts.Console {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return newLogger(w, service)
}

func newLogger(w io.Writer, service Service) zerolog.Logger {
	return zerolog.New(w).With().
		Timestamp().
		Str("service", service.Name).
		Str("version", service.Version).
		Logger()
}
