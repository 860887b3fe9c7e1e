package router

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/stablemail/go-relay/internal/util"
)

// RequestLoggerConfig controls request log verbosity.
type RequestLoggerConfig struct {
	// SkipPaths are not logged at all (e.g. probe endpoints).
	SkipPaths []string
}

// RequestLoggerWithConfig injects a request-scoped zerolog logger into the
// request context and emits one line per completed request.
func RequestLoggerWithConfig(config RequestLoggerConfig) echo.MiddlewareFunc {
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)

			logger := log.With().
				Str("request_id", requestID).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()

			c.SetRequest(req.WithContext(util.WithLogger(req.Context(), &logger)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			if !skip[req.URL.Path] {
				logger.Info().
					Int("status", c.Response().Status).
					Dur("duration", time.Since(start)).
					Msg("Handled request")
			}

			return err
		}
	}
}
