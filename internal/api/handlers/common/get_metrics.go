package common

import (
	"github.com/labstack/echo/v4"

	"github.com/stablemail/go-relay/internal/api"
)

func GetMetricsRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/metrics", s.Metrics.Handler())
}
