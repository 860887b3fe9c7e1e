package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/labstack/echo/v4"
)

// Set bundles the engine's Prometheus collectors. A nil *Set is a valid
// no-op receiver so unit tests don't need a registry.
type Set struct {
	registry *prometheus.Registry

	transactionsCompleted prometheus.Counter
	transactionsFailed    prometheus.Counter
	permitsExecuted       prometheus.Counter
	transfersExecuted     prometheus.Counter
}

// New creates and registers the collector set on its own registry.
func New() *Set {
	registry := prometheus.NewRegistry()

	s := &Set{
		registry: registry,
		transactionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_transactions_completed_total",
			Help: "Transactions that reached the completed state.",
		}),
		transactionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_transactions_failed_total",
			Help: "Transactions that reached the failed state.",
		}),
		permitsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_permits_executed_total",
			Help: "Permit transactions confirmed on-chain.",
		}),
		transfersExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_transfers_executed_total",
			Help: "Gasless transfers confirmed on-chain.",
		}),
	}

	registry.MustRegister(
		s.transactionsCompleted,
		s.transactionsFailed,
		s.permitsExecuted,
		s.transfersExecuted,
	)

	return s
}

// Handler returns the echo handler serving the registry in the Prometheus
// exposition format.
func (s *Set) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Set) IncTransactionsCompleted() {
	if s == nil {
		return
	}
	s.transactionsCompleted.Inc()
}

func (s *Set) IncTransactionsFailed() {
	if s == nil {
		return
	}
	s.transactionsFailed.Inc()
}

func (s *Set) IncPermitsExecuted() {
	if s == nil {
		return
	}
	s.permitsExecuted.Inc()
}

func (s *Set) IncTransfersExecuted() {
	if s == nil {
		return
	}
	s.transfersExecuted.Inc()
}
