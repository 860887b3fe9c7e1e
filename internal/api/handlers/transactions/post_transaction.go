package transactions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/transaction"
	"github.com/stablemail/go-relay/internal/types"
	"github.com/stablemail/go-relay/internal/util"
)

func PostTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.POST("", postTransactionHandler(s))
}

func postTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostTransactionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		tx := &transaction.Transaction{
			UserAddress:   body.UserAddress,
			ToRecipients:  mapRecipients(body.ToRecipients),
			CcRecipients:  mapRecipients(body.CcRecipients),
			BccRecipients: mapRecipients(body.BccRecipients),
			Subject:       body.Subject,
			Message:       body.Message,
			Amount:        body.Amount,
			TokenType:     body.TokenType,
			Network:       body.Network,
			Status:        transaction.Status(body.Status),
			IsGasless:     body.IsGasless,
			EIP2612:       mapPermit(body.EIP2612),
			TxHash:        body.TxHash,
			ScheduledDate: body.ScheduledDate,
		}

		created, err := s.Transactions.Create(ctx, tx)
		if err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to create transaction")
			return mapServiceError(err)
		}

		return c.JSON(http.StatusCreated, created)
	}
}
