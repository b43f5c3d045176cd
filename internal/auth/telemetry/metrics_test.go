package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.CodeIssued()
	m.CodeIssued()
	m.CodeCollision()
	m.CodeRedeemed(OutcomeSuccess)
	m.CodeRedeemed("code_expired")
	m.CodeRedeemed("code_expired")
	m.ClientVerified("invalid_client_secret")

	require.InDelta(t, 2, testutil.ToFloat64(m.codesIssued), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.collisions), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.redemptions.WithLabelValues(OutcomeSuccess)), 0)
	require.InDelta(t, 2, testutil.ToFloat64(m.redemptions.WithLabelValues("code_expired")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.verifications.WithLabelValues("invalid_client_secret")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.CodeIssued()
		m.CodeCollision()
		m.CodeRedeemed(OutcomeSuccess)
		m.ClientVerified(OutcomeSuccess)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.CodeIssued()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "codegrant_codes_issued_total 1")
	require.Contains(t, string(body), "go_goroutines")
}
