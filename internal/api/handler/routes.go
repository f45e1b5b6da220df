package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vfg2006/ads-sync-api/internal/api/handler/router"
	"github.com/vfg2006/ads-sync-api/pkg/middleware"
)

var adminOnly = []func(http.Handler) http.Handler{middleware.AdminOnly()}

func Healthcheck(checks map[string]HealthCheck) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(checks),
		},
	}
}

func Metrics() []router.Route {
	return []router.Route{
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: promhttp.Handler(),
		},
	}
}

func Jobs(s JobScheduler, q QueueInspector) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/jobs/:type/run",
			Method:      http.MethodPost,
			Handler:     RunJobs(s),
			Middlewares: adminOnly,
		},
		{
			Path:        "/v1/jobs/status",
			Method:      http.MethodGet,
			Handler:     JobsStatus(s, q),
			Middlewares: adminOnly,
		},
		{
			Path:        "/v1/queues/:queue/jobs/:id",
			Method:      http.MethodGet,
			Handler:     GetJobStatus(q),
			Middlewares: adminOnly,
		},
	}
}

func SyncRuns(runs SyncRunLister) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/connections/:id/sync-runs",
			Method:      http.MethodGet,
			Handler:     ListSyncRuns(runs),
			Middlewares: adminOnly,
		},
	}
}

func Changes(tracker ChangeReader) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/entities/:type/:id/changes",
			Method:      http.MethodGet,
			Handler:     GetEntityChanges(tracker),
			Middlewares: adminOnly,
		},
		{
			Path:        "/v1/accounts/:id/changes",
			Method:      http.MethodGet,
			Handler:     GetAccountChanges(tracker),
			Middlewares: adminOnly,
		},
	}
}

func Recommendations(store RecommendationStore) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/accounts/:id/recommendations",
			Method:      http.MethodGet,
			Handler:     ListRecommendations(store),
			Middlewares: adminOnly,
		},
		{
			Path:        "/v1/recommendations/:id/status",
			Method:      http.MethodPost,
			Handler:     UpdateRecommendationStatus(store),
			Middlewares: adminOnly,
		},
	}
}
