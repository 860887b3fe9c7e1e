package contacts

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/contact"
	"github.com/stablemail/go-relay/internal/types"
	"github.com/stablemail/go-relay/internal/util"
)

func PostContactRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Contacts.POST("", postContactHandler(s))
}

func postContactHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostContactPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		created, err := s.Contacts.Create(ctx, &contact.Contact{
			UserAddress:   body.UserAddress,
			Name:          body.Name,
			Email:         body.Email,
			WalletAddress: body.WalletAddress,
		})
		if err != nil {
			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to create contact")
			return err
		}

		return c.JSON(http.StatusCreated, created)
	}
}
