package transactions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/api/httperrors"
	"github.com/stablemail/go-relay/internal/transaction"
	"github.com/stablemail/go-relay/internal/types"
	"github.com/stablemail/go-relay/internal/util"
)

func PutTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.PUT("/:id", putTransactionHandler(s))
}

func putTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userAddress := c.QueryParam("userAddress")
		if userAddress == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "userAddress query parameter is required")
		}

		var body types.PutTransactionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		fields := &transaction.UpdateFields{
			Subject:       body.Subject,
			Message:       body.Message,
			Amount:        body.Amount,
			TokenType:     body.TokenType,
			Network:       body.Network,
			TxHash:        body.TxHash,
			IsGasless:     body.IsGasless,
			EIP2612:       mapPermit(body.EIP2612),
			ScheduledDate: body.ScheduledDate,
		}

		if body.Status != nil {
			status := transaction.Status(*body.Status)
			fields.Status = &status
		}

		if body.ToRecipients != nil {
			recipients := mapRecipients(*body.ToRecipients)
			fields.ToRecipients = &recipients
		}

		if body.CcRecipients != nil {
			recipients := mapRecipients(*body.CcRecipients)
			fields.CcRecipients = &recipients
		}

		if body.BccRecipients != nil {
			recipients := mapRecipients(*body.BccRecipients)
			fields.BccRecipients = &recipients
		}

		updated, err := s.Transactions.Update(ctx, c.Param("id"), userAddress, fields)
		if err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to update transaction")
			return mapServiceError(err)
		}

		return c.JSON(http.StatusOK, updated)
	}
}
