// Package metrics holds the Prometheus registry of the stage engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry
	once     sync.Once
)

var (
	MatchesGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stage_engine",
		Name:      "matches_generated_total",
		Help:      "Total number of group matches generated",
	})
	MatchdaysGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stage_engine",
		Name:      "matchdays_generated_total",
		Help:      "Total number of matchdays generated",
	})
	ResultsRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stage_engine",
		Name:      "results_recorded_total",
		Help:      "Total number of group match results recorded",
	})
	DrawRevealsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stage_engine",
		Name:      "draw_reveals_total",
		Help:      "Total number of live draw reveal steps",
	})
	StageTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stage_engine",
		Name:      "stage_transitions_total",
		Help:      "Stage status transitions by target status",
	}, []string{"stage_type", "status"})
	RejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stage_engine",
		Name:      "rejections_total",
		Help:      "Rejected stage operations by operation and kind",
	}, []string{"op", "kind"})
)

var (
	StandingsDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "stage_engine",
		Name:      "standings_duration_seconds",
		Help:      "Duration of standings computation in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(MatchesGeneratedTotal)
		registry.MustRegister(MatchdaysGeneratedTotal)
		registry.MustRegister(ResultsRecordedTotal)
		registry.MustRegister(DrawRevealsTotal)
		registry.MustRegister(StageTransitionsTotal)
		registry.MustRegister(RejectionsTotal)

		registry.MustRegister(StandingsDuration)
	})
	return registry
}

func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordMatchday counts one generated matchday and its matches.
func RecordMatchday(matches int) {
	MatchdaysGeneratedTotal.Inc()
	MatchesGeneratedTotal.Add(float64(matches))
}

func RecordResult() {
	ResultsRecordedTotal.Inc()
}

func RecordDrawReveal() {
	DrawRevealsTotal.Inc()
}

// RecordStageTransition counts a stage entering status.
func RecordStageTransition(stageType, status string) {
	StageTransitionsTotal.WithLabelValues(stageType, status).Inc()
}

// RecordRejection counts an operation rejected with the given error kind.
func RecordRejection(op, kind string) {
	RejectionsTotal.WithLabelValues(op, kind).Inc()
}

func RecordStandingsDuration(durationSeconds float64) {
	StandingsDuration.Observe(durationSeconds)
}
