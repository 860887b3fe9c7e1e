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

func GetTransactionListRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.GET("", getTransactionListHandler(s))
}

func getTransactionListHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userAddress := c.QueryParam("userAddress")
		if userAddress == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "userAddress query parameter is required")
		}

		var status *transaction.Status
		if raw := c.QueryParam("status"); raw != "" {
			s := transaction.Status(raw)
			status = &s
		}

		txs, err := s.Transactions.List(ctx, userAddress, status)
		if err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to list transactions")
			return mapServiceError(err)
		}

		if txs == nil {
			txs = []*transaction.Transaction{}
		}

		return c.JSON(http.StatusOK, txs)
	}
}
