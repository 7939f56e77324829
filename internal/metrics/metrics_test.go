package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMint(t *testing.T) {
	before := testutil.ToFloat64(mintsTotal.WithLabelValues(OutcomeMinted))
	RecordMint(OutcomeMinted)
	RecordMint(OutcomeMinted)
	assert.InDelta(t, before+2, testutil.ToFloat64(mintsTotal.WithLabelValues(OutcomeMinted)), 0.001)
}

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues(RunSkipped))
	RecordRun(RunSkipped, 0)
	assert.InDelta(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues(RunSkipped)), 0.001)
}

func TestSetBacklog(t *testing.T) {
	SetBacklog(17)
	assert.InDelta(t, 17, testutil.ToFloat64(backlog), 0.001)
}

func TestHandler(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/v1/achievements/backlog", http.StatusOK, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "achievement_minter_goals_pending")
	assert.Contains(t, rec.Body.String(), `achievement_minter_http_requests_total{method="GET",path="/api/v1/achievements/backlog",status="200"}`)
}
