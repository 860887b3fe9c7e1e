package transactions

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/api/httperrors"
	"github.com/stablemail/go-relay/internal/types"
	"github.com/stablemail/go-relay/internal/util"
)

func DeleteTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.DELETE("/:id", deleteTransactionHandler(s))
}

func deleteTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userAddress := c.QueryParam("userAddress")
		if userAddress == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "userAddress query parameter is required")
		}

		if err := s.Transactions.Delete(ctx, c.Param("id"), userAddress); err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to delete transaction")
			return mapServiceError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}
