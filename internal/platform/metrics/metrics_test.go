package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue returns the counter of family name whose label values equal values, in label order.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, values ...string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			labels := m.GetLabel()
			if len(labels) != len(values) {
				continue
			}
			for i, l := range labels {
				if l.GetValue() != values[i] {
					continue metric
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_ObserveFetch(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveFetch("tick", "fresh")
	m.ObserveFetch("tick", "fresh")
	m.ObserveFetch("kline", "stale")

	assert.Equal(t, 2.0, counterValue(t, reg, "bullion_quote_fetch_total", "tick", "fresh"))
	assert.Equal(t, 1.0, counterValue(t, reg, "bullion_quote_fetch_total", "kline", "stale"))
	assert.Equal(t, 0.0, counterValue(t, reg, "bullion_quote_fetch_total", "kline", "failed"))
}

// TestNew_DuplicateRegistration は同じレジストリへの二重登録がエラーになることを検証します。
func TestNew_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/quotes/:code", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(Handler(reg)))

	for _, path := range []string{"/quotes/GOLD", "/quotes/Silver", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, 2.0, counterValue(t, reg, "bullion_http_requests_total", "GET", "/quotes/:code", "200"))
	assert.Equal(t, 1.0, counterValue(t, reg, "bullion_http_requests_total", "GET", "unmatched", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `bullion_http_requests_total{method="GET",route="/quotes/:code",status="200"} 2`))
}
