package transactions

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/stablemail/go-relay/internal/api/httperrors"
	"github.com/stablemail/go-relay/internal/transaction"
	"github.com/stablemail/go-relay/internal/types"
)

func mapRecipients(in []types.RecipientPayload) []transaction.Recipient {
	if in == nil {
		return nil
	}

	out := make([]transaction.Recipient, 0, len(in))
	for _, r := range in {
		out = append(out, transaction.Recipient{
			Name:    r.Name,
			Email:   r.Email,
			Address: r.Address,
		})
	}

	return out
}

func mapPermit(in *types.PermitPayload) *transaction.PermitData {
	if in == nil {
		return nil
	}

	return &transaction.PermitData{
		V:        in.V,
		R:        in.R,
		S:        in.S,
		Owner:    in.Owner,
		Spender:  in.Spender,
		Value:    in.Value,
		Deadline: in.Deadline,
		Nonce:    in.Nonce,
	}
}

// mapServiceError translates domain errors into public HTTP errors.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, transaction.ErrNotFound):
		return httperrors.ErrNotFoundTransaction
	case errors.Is(err, transaction.ErrInvalidTransition):
		return httperrors.ErrConflictTransition
	case errors.Is(err, transaction.ErrMissingPermit):
		return httperrors.ErrBadRequestPermit
	case errors.Is(err, transaction.ErrValidation):
		return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, err.Error())
	default:
		return err
	}
}
