// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// GeocodeLookups counts external geocoder calls by outcome
	// (hit, miss, error, skipped).
	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_lookups_total",
			Help: "External geocoding lookups by result",
		},
		[]string{"result"},
	)

	// GeocodeCacheHits counts resolutions answered without the geocoder,
	// labelled by the layer that answered (fallback, memory, redis).
	GeocodeCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocode_cache_hits_total",
			Help: "Location resolutions served from the fallback table or a cache layer",
		},
		[]string{"layer"},
	)

	MatchingCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_candidates_total",
			Help: "Candidates seen at each ranking stage (input, eligible, compatible, returned)",
		},
		[]string{"stage"},
	)

	MatchingRankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_ranking_duration_seconds",
			Help:    "Time spent ranking one candidate pool",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"direction"},
	)
)
