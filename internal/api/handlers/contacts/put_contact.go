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

func PutContactRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Contacts.PUT("/:id", putContactHandler(s))
}

func putContactHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		userAddress := c.QueryParam("userAddress")
		if userAddress == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "userAddress query parameter is required")
		}

		var body types.PutContactPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		fields := &contact.UpdateFields{
			Name:          body.Name,
			Email:         body.Email,
			WalletAddress: body.WalletAddress,
		}

		if err := s.Contacts.Update(ctx, c.Param("id"), userAddress, fields); err != nil {
			if errors.Is(err, contact.ErrNotFound) {
				return httperrors.ErrNotFoundContact
			}

			util.LogFromEchoContext(c).Debug().Err(err).Msg("Failed to update contact")

			return err
		}

		updated, err := s.Contacts.GetForUser(ctx, c.Param("id"), userAddress)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, updated)
	}
}
