package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sincronização de entidades
	EntitiesSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_sync_entities_synced_total",
			Help: "Entidades gravadas pela sincronização",
		},
		[]string{"provider", "entity_type"},
	)

	EntityErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_sync_entity_errors_total",
			Help: "Entidades que falharam isoladamente durante a sincronização",
		},
		[]string{"provider", "entity_type", "kind"},
	)

	ChangesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_sync_changes_recorded_total",
			Help: "Linhas gravadas no histórico de alterações",
		},
		[]string{"entity_type", "kind"},
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_sync_runs_total",
			Help: "Execuções de sincronização por resultado",
		},
		[]string{"family", "status"},
	)

	InsightsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_sync_insights_upserted_total",
			Help: "Linhas de insights gravadas",
		},
		[]string{"provider", "entity_type", "window"},
	)

	RecommendationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_sync_recommendations_created_total",
			Help: "Recomendações criadas por playbook",
		},
		[]string{"playbook"},
	)

	// Fila
	QueueJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_sync_queue_jobs_total",
			Help: "Jobs processados por resultado (completed, failed, retried, stalled, discarded)",
		},
		[]string{"queue", "outcome"},
	)

	QueueJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ads_sync_queue_job_duration_seconds",
			Help:    "Duração dos jobs em segundos",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180, 600},
		},
		[]string{"queue", "job"},
	)

	// Provedores
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ads_sync_upstream_request_duration_seconds",
			Help:    "Latência das chamadas às APIs de anúncios",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "outcome"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_sync_rate_limit_rejections_total",
			Help: "Permissões negadas pelo limitador",
		},
		[]string{"provider", "reason"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ads_sync_circuit_breaker_state",
			Help: "Estado do circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_sync_circuit_breaker_transitions_total",
			Help: "Transições de estado do circuit breaker",
		},
		[]string{"name", "from", "to"},
	)
)

func ObserveUpstream(provider string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequestDuration.WithLabelValues(provider, outcome).Observe(time.Since(started).Seconds())
}
