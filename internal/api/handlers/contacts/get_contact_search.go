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

func GetContactSearchRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Contacts.GET("/search", getContactSearchHandler(s))
}

func getContactSearchHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userAddress := c.QueryParam("userAddress")
		query := c.QueryParam("q")

		if userAddress == "" || query == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "userAddress and q query parameters are required")
		}

		contacts, err := s.Contacts.Search(ctx, userAddress, query)
		if err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to search contacts")
			return err
		}

		if contacts == nil {
			contacts = []*contact.Contact{}
		}

		return c.JSON(http.StatusOK, contacts)
	}
}
