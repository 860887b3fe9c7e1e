package common

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/util"
)

const readyPingTimeout = 2 * time.Second

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// getReadyHandler verifies all components are wired and the document store
// answers a ping.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(http.StatusServiceUnavailable, "Not ready.")
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), readyPingTimeout)
		defer cancel()

		if err := s.Mongo.Ping(ctx, readpref.Primary()); err != nil {
			util.LogFromEchoContext(c).Warn().Err(err).Msg("Document store ping failed")
			return c.String(http.StatusServiceUnavailable, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
