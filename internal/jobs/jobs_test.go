package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

func TestJobIDs(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 47, 12, 0, time.UTC)

	assert.Equal(t, "entity-sync:conn-1:2025-03-01", EntitySyncJobID("conn-1", at))
	assert.Equal(t, "full-insights:acc-1:2025-03-01", FullInsightsJobID("acc-1", at))
	assert.Equal(t, "recommendations:acc-1:2025-03-01", RecommendationsJobID("acc-1", at))
	assert.Equal(t, "delta-insights:acc-1:2025-03-01T1030", DeltaInsightsJobID("acc-1", at, 30*time.Minute))

	t.Run("same slot dedups", func(t *testing.T) {
		later := at.Add(10 * time.Minute)
		assert.Equal(t, DeltaInsightsJobID("acc-1", at, 30*time.Minute), DeltaInsightsJobID("acc-1", later, 30*time.Minute))
		assert.NotEqual(t, DeltaInsightsJobID("acc-1", at, 30*time.Minute), DeltaInsightsJobID("acc-1", at.Add(20*time.Minute), 30*time.Minute))
	})

	t.Run("manual suffix", func(t *testing.T) {
		base := EntitySyncJobID("conn-1", at)
		assert.NotEqual(t, ManualJobID(base, at), ManualJobID(base, at.Add(time.Nanosecond)))
	})
}

func TestSyncInsightsPayload_Range(t *testing.T) {
	dr := domain.LastDays(time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC), 30)
	p := NewSyncInsightsPayload("acc-1", dr, domain.WindowDaily)

	assert.Equal(t, "2025-03-01", p.Since)
	assert.Equal(t, "2025-03-30", p.Until)

	got, err := p.Range()
	require.NoError(t, err)
	assert.Equal(t, dr, got)

	_, err = SyncInsightsPayload{Since: "ontem", Until: "2025-03-01"}.Range()
	assert.Error(t, err)
}
