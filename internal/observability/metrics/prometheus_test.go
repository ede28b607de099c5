package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.HTTPRequests.WithLabelValues("GET", "/health", "200").Inc()
	r.RowsImported.WithLabelValues("GoodwinSolutions").Add(3)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `myadmin_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, string(body), `myadmin_ledger_rows_imported_total{administration="GoodwinSolutions"} 3`)

	// independent registries do not collide
	assert.NotPanics(t, func() { NewRegistry() })
}

func TestMeter_LedgerInstruments(t *testing.T) {
	m, err := New(context.Background(), Config{Enabled: false}, "myadmin")
	require.NoError(t, err)
	inst, err := m.LedgerInstruments()
	require.NoError(t, err)
	assert.NotNil(t, inst.TransactionsCreated)
	assert.NotNil(t, inst.ImportDuration)
}

func TestMeter_AuthInstruments(t *testing.T) {
	m, err := New(context.Background(), Config{Enabled: true}, "myadmin")
	require.NoError(t, err)
	auth, err := m.AuthInstruments()
	require.NoError(t, err)
	assert.NotPanics(t, func() { auth.RecordClaim(context.Background(), "ok") })

	var nilAuth *Auth
	var nilLedger *Ledger
	assert.NotPanics(t, func() {
		nilAuth.RecordClaim(context.Background(), "malformed")
		nilLedger.RecordImport(context.Background(), "GoodwinSolutions", time.Second)
	})
}
