package types

// Public HTTP error type identifiers returned in error payloads.
const (
	PublicHTTPErrorTypeGeneric            = "generic"
	PublicHTTPErrorTypeInvalidTransition  = "INVALID_STATUS_TRANSITION"
	PublicHTTPErrorTypeMissingPermitData  = "MISSING_PERMIT_DATA"
	PublicHTTPErrorTypeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	PublicHTTPErrorTypeContactNotFound    = "CONTACT_NOT_FOUND"
)

// PublicHTTPError is the wire shape of a plain API error.
type PublicHTTPError struct {
	Code  *int64  `json:"status"`
	Type  *string `json:"type"`
	Title *string `json:"title"`
}

// HTTPValidationErrorDetail describes a single invalid field.
type HTTPValidationErrorDetail struct {
	Key   *string `json:"key"`
	In    *string `json:"in"`
	Error *string `json:"error"`
}

// PublicHTTPValidationError extends PublicHTTPError with per-field details.
type PublicHTTPValidationError struct {
	PublicHTTPError
	ValidationErrors []*HTTPValidationErrorDetail `json:"validationErrors"`
}
