package common

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stablemail/go-relay/internal/api"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// getHealthyHandler only proves the process is serving requests. Dependency
// health is the readiness probe's job.
func getHealthyHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "OK.")
	}
}
