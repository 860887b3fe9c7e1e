package util

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stablemail/go-relay/internal/api/httperrors"
	"github.com/stablemail/go-relay/internal/types"
)

// Validatable is implemented by payload types that carry their own validation.
type Validatable interface {
	Validate() []*types.HTTPValidationErrorDetail
}

// BindAndValidateBody binds the request body into v and runs its validation,
// returning an HTTPValidationError on failure.
func BindAndValidateBody(c echo.Context, v Validatable) error {
	if err := c.Bind(v); err != nil {
		return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Malformed request body")
	}

	if details := v.Validate(); len(details) > 0 {
		return httperrors.NewHTTPValidationError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Payload validation failed", details)
	}

	return nil
}
