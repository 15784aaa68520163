package logger

import (
	"io"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger with a console writer on stdout.
func Init(level string) {
	InitWithWriter(level, os.Stdout)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(level string, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: out != os.Stdout}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// EchoLogger is a middleware that logs requests using zerolog.
func EchoLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let echo write the response so the logged status is the real one
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status

			var event *zerolog.Event
			switch {
			case status >= 500:
				event = log.Error().Err(err)
			case status >= 400:
				event = log.Warn()
			default:
				event = log.Info()
			}

			event.Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status_code", status).
				Str("client_ip", c.RealIP()).
				Str("latency", time.Since(start).String()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("Request processed")
			return nil
		}
	}
}
