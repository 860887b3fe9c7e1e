package router

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/api/handlers/common"
	"github.com/stablemail/go-relay/internal/api/handlers/contacts"
	"github.com/stablemail/go-relay/internal/api/handlers/transactions"
)

// Init attaches echo, middleware and all routes to the server.
func Init(s *api.Server) {
	s.Echo = echo.New()
	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.HTTPErrorHandler = HTTPErrorHandlerWithConfig(HTTPErrorHandlerConfig{
		HideInternalServerErrorDetails: s.Config.Echo.HideInternalServerErrorDetails,
	})

	s.Echo.Pre(middleware.RemoveTrailingSlash())
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestID())
	s.Echo.Use(RequestLoggerWithConfig(RequestLoggerConfig{}))

	s.Router = &api.Router{
		Routes:            nil,
		Root:              s.Echo.Group(""),
		Management:        s.Echo.Group("/-"),
		APIV1Transactions: s.Echo.Group("/api/v1/transactions"),
		APIV1Contacts:     s.Echo.Group("/api/v1/contacts"),
	}

	attachAllRoutes(s)
}

func attachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetMetricsRoute(s),

		transactions.PostTransactionRoute(s),
		transactions.GetTransactionListRoute(s),
		transactions.GetTransactionSearchRoute(s),
		transactions.GetTransactionsReceivedRoute(s),
		transactions.GetTransactionRoute(s),
		transactions.PutTransactionRoute(s),
		transactions.DeleteTransactionRoute(s),

		contacts.PostContactRoute(s),
		contacts.GetContactListRoute(s),
		contacts.GetContactSearchRoute(s),
		contacts.PutContactRoute(s),
		contacts.DeleteContactRoute(s),
	}
}
