package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveOperation("claim_tokens", time.Now(), nil)
	m.ObserveOperation("claim_tokens", time.Now(), nil)
	m.ObserveOperation("claim_tokens", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("claim_tokens", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("claim_tokens", OutcomeError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}

func TestTokenFlow(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TokensEscrowed("TKN", 1000)
	m.TokensClaimed("TKN", 600)
	m.TokensReturned("TKN", 400)
	m.EventDropped()

	assert.Equal(t, 1000.0, testutil.ToFloat64(m.TokensEscrowedTotal.WithLabelValues("TKN")))
	assert.Equal(t, 600.0, testutil.ToFloat64(m.TokensClaimedTotal.WithLabelValues("TKN")))
	assert.Equal(t, 400.0, testutil.ToFloat64(m.TokensReturnedTotal.WithLabelValues("TKN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDroppedTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("x", time.Now(), nil)
		m.TokensEscrowed("TKN", 1)
		m.TokensClaimed("TKN", 1)
		m.TokensReturned("TKN", 1)
		m.EventDropped()
		m.ReconciliationNeeded("claim_tokens")
	})
}

func TestReconciliationNeeded(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ReconciliationNeeded("claim_tokens")
	m.ReconciliationNeeded("claim_tokens")
	m.ReconciliationNeeded("revoke_vesting")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReconciliationNeededTotal.WithLabelValues("claim_tokens")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconciliationNeededTotal.WithLabelValues("revoke_vesting")))
}

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)
	m.TokensClaimed("TKN", 5)

	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), `vestledger_tokens_claimed_total{token_type="TKN"} 5`))
}
