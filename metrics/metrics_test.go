package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := InitRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, GetRegistry())
}

func TestRecordMatchday(t *testing.T) {
	InitRegistry()
	beforeDays := testutil.ToFloat64(MatchdaysGeneratedTotal)
	beforeMatches := testutil.ToFloat64(MatchesGeneratedTotal)

	RecordMatchday(4)

	assert.Equal(t, beforeDays+1, testutil.ToFloat64(MatchdaysGeneratedTotal))
	assert.Equal(t, beforeMatches+4, testutil.ToFloat64(MatchesGeneratedTotal))
}

func TestRecordRejection(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(RejectionsTotal.WithLabelValues("generate_matchday", "duplicate_generation"))

	RecordRejection("generate_matchday", "duplicate_generation")

	assert.Equal(t, before+1, testutil.ToFloat64(RejectionsTotal.WithLabelValues("generate_matchday", "duplicate_generation")))
}

func TestHandler(t *testing.T) {
	InitRegistry()
	RecordStageTransition("groups_round_robin", "active")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "stage_engine_stage_transitions_total"))
}
