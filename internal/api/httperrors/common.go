package httperrors

import (
	"net/http"

	"github.com/stablemail/go-relay/internal/types"
)

var (
	ErrNotFoundTransaction = NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeTransactionNotFound, "Transaction not found or not authorized.")
	ErrNotFoundContact     = NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeContactNotFound, "Contact not found or not authorized.")
	ErrConflictTransition  = NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeInvalidTransition, "The requested status transition is not allowed.")
	ErrBadRequestPermit    = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeMissingPermitData, "For gasless transactions, EIP-2612 permit data is required.")
)
