package transactions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/api/httperrors"
	"github.com/stablemail/go-relay/internal/types"
	"github.com/stablemail/go-relay/internal/util"
)

func GetTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.GET("/:id", getTransactionHandler(s))
}

func getTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userAddress := c.QueryParam("userAddress")
		if userAddress == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "userAddress query parameter is required")
		}

		tx, err := s.Transactions.Get(ctx, c.Param("id"), userAddress)
		if err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to get transaction")
			return mapServiceError(err)
		}

		return c.JSON(http.StatusOK, tx)
	}
}
