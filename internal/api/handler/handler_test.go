package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/ads-sync-api/infrastructure/queue"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository/mocks"
	"github.com/vfg2006/ads-sync-api/internal/api/handler/router"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/internal/jobs"
	"github.com/vfg2006/ads-sync-api/internal/scheduler"
	"github.com/vfg2006/ads-sync-api/internal/usecases/authenticating"
	"github.com/vfg2006/ads-sync-api/pkg/apiErrors"
	"github.com/vfg2006/ads-sync-api/pkg/middleware"
)

type fakeScheduler struct {
	triggered []scheduler.Family
	err       error
}

func (f *fakeScheduler) Trigger(_ context.Context, family scheduler.Family) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.triggered = append(f.triggered, family)
	return 2, nil
}

func (f *fakeScheduler) Status() scheduler.Status {
	return scheduler.Status{State: scheduler.StateRunning, Jobs: []scheduler.JobStatus{{Family: scheduler.FamilyEntitySync, Enabled: true}}}
}

type fakeQueue struct {
	statuses map[string]string
	err      error
}

func (f *fakeQueue) Counts(_ context.Context, queueName string) (queue.Counts, error) {
	if f.err != nil {
		return queue.Counts{}, f.err
	}
	return queue.Counts{Waiting: int64(len(queueName))}, nil
}

func (f *fakeQueue) JobStatus(_ context.Context, queueName, id string) (string, error) {
	return f.statuses[queueName+"/"+id], f.err
}

type fakeChanges struct {
	entityType domain.EntityType
	entityID   string
	limit      uint64
}

func (f *fakeChanges) GetEntityChanges(_ context.Context, entityType domain.EntityType, entityID string, limit uint64) ([]domain.ChangeRecord, error) {
	f.entityType, f.entityID, f.limit = entityType, entityID, limit
	return []domain.ChangeRecord{{ID: "chg-1", Kind: domain.ChangeKindStatusChange, Field: "status"}}, nil
}

func (f *fakeChanges) GetRecentChanges(_ context.Context, accountID string, limit uint64) ([]domain.ChangeRecord, error) {
	f.entityID, f.limit = accountID, limit
	return []domain.ChangeRecord{}, nil
}

// asAdmin simula o AuthMiddleware colocando claims de admin no contexto
func asAdmin(roleID int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &domain.Claims{OperatorID: "op-1", RoleID: roleID}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyOperator, claims)))
		})
	}
}

func serve(t *testing.T, roleID int, routes []router.Route, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rt := router.New(router.WithRoutes(routes...))
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	asAdmin(roleID)(rt).ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiErrors.APIError {
	t.Helper()
	var apiErr apiErrors.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestRunJobs(t *testing.T) {
	t.Run("single family", func(t *testing.T) {
		s := &fakeScheduler{}
		rec := serve(t, authenticating.RoleAdmin, Jobs(s, &fakeQueue{}), http.MethodPost, "/v1/jobs/full-insights/run", "")

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, []scheduler.Family{scheduler.FamilyFullInsights}, s.triggered)

		var resp runJobsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Enqueued[scheduler.FamilyFullInsights])
	})

	t.Run("all families in order", func(t *testing.T) {
		s := &fakeScheduler{}
		rec := serve(t, authenticating.RoleAdmin, Jobs(s, &fakeQueue{}), http.MethodPost, "/v1/jobs/all/run", "")

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, scheduler.Families, s.triggered)
	})

	t.Run("unknown type", func(t *testing.T) {
		rec := serve(t, authenticating.RoleAdmin, Jobs(&fakeScheduler{}, &fakeQueue{}), http.MethodPost, "/v1/jobs/monthly/run", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apiErrors.ErrInvalidRequest, decodeError(t, rec).Code)
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		s := &fakeScheduler{}
		rec := serve(t, 3, Jobs(s, &fakeQueue{}), http.MethodPost, "/v1/jobs/all/run", "")

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, s.triggered)
	})

	t.Run("enqueue failure", func(t *testing.T) {
		s := &fakeScheduler{err: errors.New("redis down")}
		rec := serve(t, authenticating.RoleAdmin, Jobs(s, &fakeQueue{}), http.MethodPost, "/v1/jobs/entity-sync/run", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestJobsStatus(t *testing.T) {
	rec := serve(t, authenticating.RoleAdmin, Jobs(&fakeScheduler{}, &fakeQueue{}), http.MethodGet, "/v1/jobs/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp jobsStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, scheduler.StateRunning, resp.Scheduler.State)
	assert.Len(t, resp.Queues, len(jobs.Queues))
	assert.Equal(t, int64(len(jobs.QueueEntitySync)), resp.Queues[jobs.QueueEntitySync].Waiting)

	rec = serve(t, authenticating.RoleAdmin, Jobs(&fakeScheduler{}, &fakeQueue{err: errors.New("timeout")}), http.MethodGet, "/v1/jobs/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetJobStatus(t *testing.T) {
	q := &fakeQueue{statuses: map[string]string{"insights-sync/full-insights:acc-1:2025-03-10": "completed"}}
	routes := Jobs(&fakeScheduler{}, q)

	rec := serve(t, authenticating.RoleAdmin, routes, http.MethodGet, "/v1/queues/insights-sync/jobs/full-insights:acc-1:2025-03-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp jobStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)

	rec = serve(t, authenticating.RoleAdmin, routes, http.MethodGet, "/v1/queues/insights-sync/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, authenticating.RoleAdmin, routes, http.MethodGet, "/v1/queues/other/jobs/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSyncRuns(t *testing.T) {
	ctrl := gomock.NewController(t)
	runs := mocks.NewMockSyncRunRepository(ctrl)

	started := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	runs.EXPECT().ListByConnection(gomock.Any(), "conn-1", uint64(10)).
		Return([]*domain.SyncRun{{ID: "run-1", ConnectionID: "conn-1", Status: domain.SyncRunStatusPartial, StartedAt: started}}, nil)

	rec := serve(t, authenticating.RoleAdmin, SyncRuns(runs), http.MethodGet, "/v1/connections/conn-1/sync-runs?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []domain.SyncRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, domain.SyncRunStatusPartial, got[0].Status)

	rec = serve(t, authenticating.RoleAdmin, SyncRuns(runs), http.MethodGet, "/v1/connections/conn-1/sync-runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChanges(t *testing.T) {
	tracker := &fakeChanges{}

	rec := serve(t, authenticating.RoleAdmin, Changes(tracker), http.MethodGet, "/v1/entities/campaign/cmp-1/changes?limit=9999", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.EntityTypeCampaign, tracker.entityType)
	assert.Equal(t, "cmp-1", tracker.entityID)
	assert.Equal(t, uint64(maxListLimit), tracker.limit)

	rec = serve(t, authenticating.RoleAdmin, Changes(tracker), http.MethodGet, "/v1/entities/pixel/p-1/changes", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, authenticating.RoleAdmin, Changes(tracker), http.MethodGet, "/v1/accounts/acc-1/changes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc-1", tracker.entityID)
	assert.Equal(t, uint64(defaultListLimit), tracker.limit)
}

func TestListRecommendations(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRecommendationRepository(ctrl)

	pending := domain.RecommendationStatusPending
	store.EXPECT().ListByAccount(gomock.Any(), "acc-1", &pending, uint64(defaultListLimit)).
		Return([]*domain.Recommendation{{ID: "rec-1", AccountID: "acc-1", Status: pending}}, nil)

	rec := serve(t, authenticating.RoleAdmin, Recommendations(store), http.MethodGet, "/v1/accounts/acc-1/recommendations?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rec-1"`)

	rec = serve(t, authenticating.RoleAdmin, Recommendations(store), http.MethodGet, "/v1/accounts/acc-1/recommendations?status=done", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRecommendationStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRecommendationRepository(ctrl)

	store.EXPECT().UpdateStatus(gomock.Any(), "rec-1", domain.RecommendationStatusAccepted).Return(nil)
	store.EXPECT().UpdateStatus(gomock.Any(), "rec-404", domain.RecommendationStatusRejected).Return(repository.ErrNotFound)

	rec := serve(t, authenticating.RoleAdmin, Recommendations(store), http.MethodPost, "/v1/recommendations/rec-1/status", `{"status":"accepted"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, authenticating.RoleAdmin, Recommendations(store), http.MethodPost, "/v1/recommendations/rec-404/status", `{"status":"rejected"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apiErrors.ErrResourceNotFound, decodeError(t, rec).Code)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"engine-only status", `{"status":"expired"}`, apiErrors.ErrInvalidRequest},
		{"unknown status", `{"status":"done"}`, apiErrors.ErrInvalidRequest},
		{"missing status", `{}`, apiErrors.ErrMissingField},
		{"malformed body", `{`, apiErrors.ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, authenticating.RoleAdmin, Recommendations(store), http.MethodPost, "/v1/recommendations/rec-1/status", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestHealthcheck(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := serve(t, 0, Healthcheck(map[string]HealthCheck{"postgres": ok, "redis": ok}), http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, 0, Healthcheck(map[string]HealthCheck{"postgres": ok, "redis": down}), http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ok", resp.Checks["postgres"])
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"account", domain.NewValidationError("op", domain.ErrAccountNotFound), http.StatusNotFound},
		{"validation", domain.NewValidationError("op", errors.New("bad")), http.StatusBadRequest},
		{"other", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err, "falhou")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
