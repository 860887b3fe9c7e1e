package contacts

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/api/httperrors"
	"github.com/stablemail/go-relay/internal/contact"
	"github.com/stablemail/go-relay/internal/types"
	"github.com/stablemail/go-relay/internal/util"
)

func GetContactListRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Contacts.GET("", getContactListHandler(s))
}

func getContactListHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userAddress := c.QueryParam("userAddress")
		if userAddress == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "userAddress query parameter is required")
		}

		contacts, err := s.Contacts.List(ctx, userAddress)
		if err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to list contacts")
			return err
		}

		if contacts == nil {
			contacts = []*contact.Contact{}
		}

		return c.JSON(http.StatusOK, contacts)
	}
}
