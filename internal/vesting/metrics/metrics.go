package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for the vesting service.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Token flow, by token type
	TokensEscrowedTotal *prometheus.CounterVec
	TokensClaimedTotal  *prometheus.CounterVec
	TokensReturnedTotal *prometheus.CounterVec

	EventsDroppedTotal prometheus.Counter

	// Escrow transfers that committed in the ledger while the records did
	// not, by operation. Each one needs manual reconciliation.
	ReconciliationNeededTotal *prometheus.CounterVec
}

// New creates and registers all collectors on registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vestledger_operations_total",
				Help: "Total number of vesting operations",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vestledger_operation_duration_seconds",
				Help:    "Vesting operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		TokensEscrowedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vestledger_tokens_escrowed_total",
				Help: "Tokens moved into escrow by new vesting schedules",
			},
			[]string{"token_type"},
		),
		TokensClaimedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vestledger_tokens_claimed_total",
				Help: "Tokens released from escrow to employees",
			},
			[]string{"token_type"},
		),
		TokensReturnedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vestledger_tokens_returned_total",
				Help: "Unvested tokens returned to employers on revocation",
			},
			[]string{"token_type"},
		),
		EventsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vestledger_events_dropped_total",
				Help: "Domain events dropped because the producer buffer was full",
			},
		),
		ReconciliationNeededTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vestledger_reconciliation_needed_total",
				Help: "Escrow transfers whose ledger records failed to commit",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.TokensEscrowedTotal,
		m.TokensClaimedTotal,
		m.TokensReturnedTotal,
		m.EventsDroppedTotal,
		m.ReconciliationNeededTotal,
	)
	return m
}

// ObserveOperation records the outcome and latency of one operation. It is
// safe to call on a nil *Metrics.
func (m *Metrics) ObserveOperation(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) TokensEscrowed(tokenType string, amount uint64) {
	if m == nil {
		return
	}
	m.TokensEscrowedTotal.WithLabelValues(tokenType).Add(float64(amount))
}

func (m *Metrics) TokensClaimed(tokenType string, amount uint64) {
	if m == nil {
		return
	}
	m.TokensClaimedTotal.WithLabelValues(tokenType).Add(float64(amount))
}

func (m *Metrics) TokensReturned(tokenType string, amount uint64) {
	if m == nil {
		return
	}
	m.TokensReturnedTotal.WithLabelValues(tokenType).Add(float64(amount))
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.EventsDroppedTotal.Inc()
}

func (m *Metrics) ReconciliationNeeded(operation string) {
	if m == nil {
		return
	}
	m.ReconciliationNeededTotal.WithLabelValues(operation).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
