package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	m := New()
	m.Transition(StepRegister, "ok")
	m.Transition(StepRegister, "ok")
	m.Transition(StepRegister, "registration")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.flowTransitions.WithLabelValues(StepRegister, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flowTransitions.WithLabelValues(StepRegister, "registration")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Transition(StepExchange, "ok")
	m.ObserveRemote(StepExchange, time.Second)
	m.ObserveHTTP(http.MethodGet, "/", 200, time.Millisecond)
	m.Inflight(1)
	m.RateLimited()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/following-view", 200, 10*time.Millisecond)
	m.RateLimited()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `fedisub_http_requests_total{method="GET",route="/following-view",status="200"} 1`))
	assert.Contains(t, body, "fedisub_rate_limited_total 1")
}
