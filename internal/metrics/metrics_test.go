package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOutcomes(t *testing.T) {
	before := testutil.ToFloat64(payments.WithLabelValues("paid"))
	RecordPayment("paid")
	assert.Equal(t, before+1, testutil.ToFloat64(payments.WithLabelValues("paid")))

	before = testutil.ToFloat64(deposits.WithLabelValues("limit_exceeded"))
	RecordDeposit("limit_exceeded")
	assert.Equal(t, before+1, testutil.ToFloat64(deposits.WithLabelValues("limit_exceeded")))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/jobs/:job_id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", gin.WrapH(Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/abc", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/jobs/:job_id", "204")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `marketplace_http_requests_total{method="GET",path="/jobs/:job_id",status="204"} 1`))
}
