package httperrors

import (
	"fmt"

	"github.com/go-openapi/swag"

	"github.com/stablemail/go-relay/internal/types"
)

// HTTPError is an echo-compatible error carrying a public error payload.
type HTTPError struct {
	types.PublicHTTPError
	Internal error `json:"-"`
}

// NewHTTPError builds a plain HTTPError.
func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{
		PublicHTTPError: types.PublicHTTPError{
			Code:  swag.Int64(int64(code)),
			Type:  swag.String(errorType),
			Title: swag.String(title),
		},
	}
}

// NewHTTPErrorWithInternal builds an HTTPError wrapping an internal error
// that is logged but never sent to the client.
func NewHTTPErrorWithInternal(code int, errorType string, title string, internal error) *HTTPError {
	err := NewHTTPError(code, errorType, title)
	err.Internal = internal

	return err
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %d (%s): %s", swag.Int64Value(e.Code), swag.StringValue(e.Type), swag.StringValue(e.Title))
}

// HTTPValidationError is an HTTPError with additional per-field details.
type HTTPValidationError struct {
	types.PublicHTTPValidationError
}

// NewHTTPValidationError builds an HTTPValidationError with the given details.
func NewHTTPValidationError(code int, errorType string, title string, validationErrors []*types.HTTPValidationErrorDetail) *HTTPValidationError {
	return &HTTPValidationError{
		PublicHTTPValidationError: types.PublicHTTPValidationError{
			PublicHTTPError: types.PublicHTTPError{
				Code:  swag.Int64(int64(code)),
				Type:  swag.String(errorType),
				Title: swag.String(title),
			},
			ValidationErrors: validationErrors,
		},
	}
}

func (e *HTTPValidationError) Error() string {
	return fmt.Sprintf("HTTPValidationError %d (%s): %s (%d fields)",
		swag.Int64Value(e.Code), swag.StringValue(e.Type), swag.StringValue(e.Title), len(e.ValidationErrors))
}
