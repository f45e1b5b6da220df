package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/infrastructure/queue"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/internal/usecases/insighting"
	"github.com/vfg2006/ads-sync-api/internal/usecases/recommending"
)

type fakeSyncer struct {
	got string
	run *domain.SyncRun
	err error
}

func (f *fakeSyncer) SyncConnection(_ context.Context, id string) (*domain.SyncRun, error) {
	f.got = id
	return f.run, f.err
}

type fakeAggregator struct {
	got insighting.Request
}

func (f *fakeAggregator) SyncAccount(_ context.Context, req insighting.Request) (*insighting.Result, error) {
	f.got = req
	return &insighting.Result{}, nil
}

type fakeGenerator struct {
	got string
}

func (f *fakeGenerator) GenerateForAccount(_ context.Context, accountID string) (*recommending.Result, error) {
	f.got = accountID
	return &recommending.Result{}, nil
}

func job(name string, payload any) *queue.Job {
	data, _ := json.Marshal(payload)
	return &queue.Job{ID: "j-1", Name: name, Payload: data}
}

func TestSyncConnectionHandler(t *testing.T) {
	t.Run("partial run completes", func(t *testing.T) {
		syncer := &fakeSyncer{run: &domain.SyncRun{Status: domain.SyncRunStatusPartial}}
		h := NewHandlers(syncer, nil, nil)

		err := h.SyncConnection(context.Background(), job(JobSyncConnection, SyncConnectionPayload{ConnectionID: "conn-1"}))
		require.NoError(t, err)
		assert.Equal(t, "conn-1", syncer.got)
	})

	t.Run("fatal error is returned", func(t *testing.T) {
		syncer := &fakeSyncer{err: domain.NewSyncError(domain.KindAuthExpired, "meta", nil)}
		h := NewHandlers(syncer, nil, nil)

		err := h.SyncConnection(context.Background(), job(JobSyncConnection, SyncConnectionPayload{ConnectionID: "conn-1"}))
		assert.ErrorIs(t, err, domain.ErrAuthExpired)
		assert.False(t, domain.IsRetryable(err))
	})

	t.Run("bad payload is not retried", func(t *testing.T) {
		h := NewHandlers(&fakeSyncer{}, nil, nil)

		err := h.SyncConnection(context.Background(), &queue.Job{Name: JobSyncConnection, Payload: []byte("{")})
		assert.ErrorIs(t, err, domain.ErrValidation)

		err = h.SyncConnection(context.Background(), job(JobSyncConnection, SyncConnectionPayload{}))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestSyncInsightsHandler(t *testing.T) {
	agg := &fakeAggregator{}
	h := NewHandlers(nil, agg, nil)

	err := h.SyncInsights(context.Background(), job(JobSyncInsights, SyncInsightsPayload{
		AccountID: "acc-1", Since: "2025-03-01", Until: "2025-03-30",
	}))
	require.NoError(t, err)

	assert.Equal(t, "acc-1", agg.got.AccountID)
	assert.Equal(t, domain.WindowDaily, agg.got.Window)
	assert.Equal(t, 30, agg.got.Range.Days())

	err = h.SyncInsights(context.Background(), job(JobSyncInsights, SyncInsightsPayload{
		AccountID: "acc-1", Since: "2025-03-30", Until: "2025-03-01",
	}))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGenerateRecommendationsHandler(t *testing.T) {
	gen := &fakeGenerator{}
	h := NewHandlers(nil, nil, gen)

	require.NoError(t, h.GenerateRecommendations(context.Background(), job(JobGenerateRecommendations, GenerateRecommendationsPayload{AccountID: "acc-9"})))
	assert.Equal(t, "acc-9", gen.got)
}
