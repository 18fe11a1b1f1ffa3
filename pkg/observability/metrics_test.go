package observability

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersAll(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.RecordAuth("login", OutcomeSuccess)
	m.ObserveHash("verify", 30*time.Millisecond)
	m.RecordRateLimited("/login")
	m.RecordDBStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3, WaitCount: 9})

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"gvserver_auth_attempts_total",
		"gvserver_password_hash_duration_seconds",
		"gvserver_rate_limited_total",
		"gvserver_db_connections_open",
		"gvserver_db_connections_in_use",
		"gvserver_db_connections_idle",
		"gvserver_db_wait_count",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues("login", OutcomeSuccess)))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.DBConnectionsOpen))
	assert.Equal(t, float64(9), testutil.ToFloat64(m.DBWaitCount))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAuth("login", OutcomeError)
		m.ObserveHash("hash", time.Millisecond)
		m.RecordRateLimited("/users")
		m.RecordDBStats(sql.DBStats{})
	})
}

func TestRegisterHashPoolGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	var inFlight int64 = 3
	RegisterHashPoolGauge(registry, func() int64 { return inFlight })

	count, err := testutil.GatherAndCount(registry, "gvserver_hash_pool_in_flight")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP gvserver_hash_pool_in_flight Password hash computations currently running
# TYPE gvserver_hash_pool_in_flight gauge
gvserver_hash_pool_in_flight 3
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "gvserver_hash_pool_in_flight"))
}

func TestHTTPMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	router := mux.NewRouter()
	router.Use(HTTPMetricsMiddleware(m))
	router.HandleFunc("/users/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodPut)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/users/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodPut, "/users/{user_id}", "418")))
}

func TestMetricsHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.RecordAuth("signup", OutcomeValidation)

	server := httptest.NewServer(MetricsHandler(registry))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gvserver_auth_attempts_total{operation="signup",outcome="validation"} 1`)
}
