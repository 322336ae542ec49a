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

	IngredientsUnrated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingredients_unrated_total",
			Help: "Ingredients evaluated without a score, by reason",
		},
		[]string{"reason"},
	)

	ReviewsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_skipped_total",
			Help: "Reviews excluded from a sentiment aggregate, by stage",
		},
		[]string{"stage"},
	)

	AggregationUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_unavailable_total",
			Help: "Aggregations aborted because a source was unavailable",
		},
		[]string{"pipeline"},
	)

	ScoreCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingredient_score_cache_requests_total",
			Help: "Ingredient score cache lookups by result",
		},
		[]string{"result"},
	)
)
