package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-price-watch/internal/domain"
)

func TestMetrics_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	finished := time.Unix(1700000000, 0)
	m.RecordRun(RunStatusCompleted, 2*time.Second, finished)
	m.RecordRun(RunStatusFailed, time.Second, finished)
	m.RecordRun(RunStatusSkipped, 0, finished)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(RunStatusCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(RunStatusFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(RunStatusSkipped)))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastSuccessfulRun))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RunDuration))
}

func TestMetrics_RecordSummaryAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordSummary(domain.RunSummary{ProcessedUsers: 2, ProcessedItems: 5, NotificationsSent: 1, Errors: 3})
	m.RecordError(ErrorKindResolution)
	m.RecordError(ErrorKindResolution)
	m.RecordError(ErrorKindUserLoad)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UsersProcessed))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ItemsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(ErrorKindResolution)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(ErrorKindUserLoad)))
}

func TestMetrics_ProviderAndDelivery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordProviderCall("flight", nil, 100*time.Millisecond)
	m.RecordProviderCall("flight", errors.New("boom"), 100*time.Millisecond)
	m.RecordDelivery("email", nil)
	m.RecordDelivery("push", errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.ProviderCallLatency))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChannelDeliveries.WithLabelValues("email", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChannelDeliveries.WithLabelValues("push", "error")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRun(RunStatusCompleted, time.Second, time.Now())
	m.RecordSummary(domain.RunSummary{ProcessedUsers: 1})
	m.RecordError(ErrorKindDispatch)
	m.RecordProviderCall("hotel", nil, time.Second)
	m.RecordDelivery("push", nil)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.RecordError(ErrorKindUpdate)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `test_engine_errors_total{kind="update"} 1`))
}
