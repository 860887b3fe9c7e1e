package contacts

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/api/httperrors"
	"github.com/stablemail/go-relay/internal/contact"
	"github.com/stablemail/go-relay/internal/types"
	"github.com/stablemail/go-relay/internal/util"
)

func DeleteContactRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Contacts.DELETE("/:id", deleteContactHandler(s))
}

func deleteContactHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userAddress := c.QueryParam("userAddress")
		if userAddress == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "userAddress query parameter is required")
		}

		if err := s.Contacts.Delete(ctx, c.Param("id"), userAddress); err != nil {
			if errors.Is(err, contact.ErrNotFound) {
				return httperrors.ErrNotFoundContact
			}

			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to delete contact")

			return err
		}

		return c.NoContent(http.StatusNoContent)
	}
}
