package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOperationCounter(t *testing.T) {
	m := New()
	m.Operation("accept_quote", OutcomeSuccess)
	m.Operation("accept_quote", OutcomeSuccess)
	m.Operation("accept_quote", OutcomeConflict)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("accept_quote", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("accept_quote", OutcomeConflict)))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Operation("submit_review", OutcomeError)
		m.SideEffectFailed("chat")
		m.TxConflict("submit_review")
		m.OutboxReplay("notify", "ok")
	})
}
