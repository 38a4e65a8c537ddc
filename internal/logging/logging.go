package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global zerolog logger. Dev environments get a
// human-readable console writer, everything else structured JSON.
func Setup(service, env string) {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().
			Str("service", service).
			Logger()
		return
	}

	log.Logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
