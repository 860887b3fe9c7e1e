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

func GetTransactionSearchRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.GET("/search", getTransactionSearchHandler(s))
}

func getTransactionSearchHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userAddress := c.QueryParam("userAddress")
		query := c.QueryParam("q")

		if userAddress == "" || query == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "userAddress and q query parameters are required")
		}

		txs, err := s.Transactions.Search(ctx, userAddress, query)
		if err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to search transactions")
			return mapServiceError(err)
		}

		if txs == nil {
			txs = []*transaction.Transaction{}
		}

		return c.JSON(http.StatusOK, txs)
	}
}
