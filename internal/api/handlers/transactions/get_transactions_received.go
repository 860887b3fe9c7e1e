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

func GetTransactionsReceivedRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.GET("/received", getTransactionsReceivedHandler(s))
}

// getTransactionsReceivedHandler lists transactions addressed to the given
// wallet, regardless of who sent them.
func getTransactionsReceivedHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		address := c.QueryParam("address")
		if address == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "address query parameter is required")
		}

		txs, err := s.Transactions.ListReceived(ctx, address)
		if err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to list received transactions")
			return mapServiceError(err)
		}

		if txs == nil {
			txs = []*transaction.Transaction{}
		}

		return c.JSON(http.StatusOK, txs)
	}
}
