package router

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stablemail/go-relay/internal/api/httperrors"
	"github.com/stablemail/go-relay/internal/types"
	"github.com/stablemail/go-relay/internal/util"
)

// HTTPErrorHandlerConfig controls what leaks to the client on 5xx.
type HTTPErrorHandlerConfig struct {
	HideInternalServerErrorDetails bool
}

// HTTPErrorHandlerWithConfig maps the error zoo onto the public error
// payloads: our own HTTPError types pass through, echo.HTTPErrors are
// converted, everything else becomes a generic 500.
func HTTPErrorHandlerWithConfig(config HTTPErrorHandlerConfig) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var code int
		var payload interface{}

		var httpError *httperrors.HTTPError
		var validationError *httperrors.HTTPValidationError
		var echoError *echo.HTTPError

		switch {
		case errors.As(err, &validationError):
			code = int(swag.Int64Value(validationError.Code))
			payload = validationError
		case errors.As(err, &httpError):
			code = int(swag.Int64Value(httpError.Code))
			payload = httpError

			if httpError.Internal != nil {
				util.LogFromEchoContext(c).Warn().Err(httpError.Internal).Msg("HTTP error with internal cause")
			}
		case errors.As(err, &echoError):
			code = echoError.Code
			title := http.StatusText(code)
			if msg, ok := echoError.Message.(string); ok && !config.HideInternalServerErrorDetails {
				title = msg
			}

			payload = httperrors.NewHTTPError(code, types.PublicHTTPErrorTypeGeneric, title)
		default:
			util.LogFromEchoContext(c).Error().Err(err).Msg("Unhandled error in request")

			code = http.StatusInternalServerError
			title := http.StatusText(code)
			if !config.HideInternalServerErrorDetails {
				title = err.Error()
			}

			payload = httperrors.NewHTTPError(code, types.PublicHTTPErrorTypeGeneric, title)
		}

		if c.Request().Method == http.MethodHead {
			if err := c.NoContent(code); err != nil {
				util.LogFromEchoContext(c).Error().Err(err).Msg("Failed to write error response")
			}

			return
		}

		if err := c.JSON(code, payload); err != nil {
			util.LogFromEchoContext(c).Error().Err(err).Msg("Failed to write error response")
		}
	}
}
