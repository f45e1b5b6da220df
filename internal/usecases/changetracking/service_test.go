package changetracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository/mocks"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"go.uber.org/mock/gomock"
)

var ref = domain.EntityRef{AccountID: "acc", Provider: domain.ProviderMeta, Type: domain.EntityTypeCampaign, ID: "c1", ExternalID: "123"}

func campaign(status domain.EntityStatus, budget float64) *domain.Campaign {
	return &domain.Campaign{
		Name:     "Black Friday",
		Status:   status,
		Channel:  domain.ChannelMeta,
		Budget:   &domain.Budget{Amount: budget, Currency: "USD", Period: "daily"},
		Metadata: domain.JSONMap{"id": "123", "special": []any{"x"}},
	}
}

func TestDiff_Created(t *testing.T) {
	changes, err := Diff(ref, nil, campaign(domain.EntityStatusActive, 10).TrackedFields())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeKindCreated, changes[0].Kind)
	assert.Empty(t, changes[0].Field)

	snapshot := changes[0].NewValue.(map[string]any)
	assert.Equal(t, "Black Friday", snapshot["name"])
	assert.Equal(t, 10.0, snapshot["budget"])
	assert.NotContains(t, snapshot, "metadata")
}

func TestDiff_NoChanges(t *testing.T) {
	existing := campaign(domain.EntityStatusActive, 10)
	incoming := campaign(domain.EntityStatusActive, 10)
	// metadata com a mesma forma JSON mas tipos Go diferentes
	incoming.Metadata = domain.JSONMap{"id": "123", "special": []string{"x"}}

	changes, err := Diff(ref, existing.TrackedFields(), incoming.TrackedFields())
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDiff_StatusChangeOnly(t *testing.T) {
	changes, err := Diff(ref,
		campaign(domain.EntityStatusActive, 10).TrackedFields(),
		campaign(domain.EntityStatusPaused, 10).TrackedFields())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeKindStatusChange, changes[0].Kind)
	assert.Equal(t, "status", changes[0].Field)
	assert.Equal(t, "active", changes[0].OldValue)
	assert.Equal(t, "paused", changes[0].NewValue)
}

func TestDiff_BudgetAndDeepMetadata(t *testing.T) {
	incoming := campaign(domain.EntityStatusActive, 25)
	incoming.Metadata = domain.JSONMap{"id": "123", "special": []any{"x", "y"}}

	changes, err := Diff(ref, campaign(domain.EntityStatusActive, 10).TrackedFields(), incoming.TrackedFields())
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, "budget", changes[0].Field)
	assert.Equal(t, domain.ChangeKindUpdated, changes[0].Kind)
	assert.Equal(t, 10.0, changes[0].OldValue)
	assert.Equal(t, 25.0, changes[0].NewValue)

	// objetos aninhados vão inteiros numa única linha
	assert.Equal(t, "metadata", changes[1].Field)
	assert.Equal(t, incoming.Metadata, changes[1].NewValue)
}

func TestDiff_NilAndEmptyMetadataAreEqual(t *testing.T) {
	existing := campaign(domain.EntityStatusActive, 10)
	existing.Metadata = nil
	incoming := campaign(domain.EntityStatusActive, 10)
	incoming.Metadata = domain.JSONMap{}

	changes, err := Diff(ref, existing.TrackedFields(), incoming.TrackedFields())
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestTrack_StampsAndInserts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockChangeHistoryRepository(ctrl)
	s := NewService(repo)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	runID := "run-1"

	repo.EXPECT().
		Insert(gomock.Any(), gomock.Nil(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ postgres.Queryer, records []domain.ChangeRecord) error {
			require.Len(t, records, 1)
			assert.Equal(t, now, records[0].DetectedAt)
			assert.Equal(t, &runID, records[0].SyncRunID)
			return nil
		})

	changes, err := s.Track(context.Background(), nil, ref,
		campaign(domain.EntityStatusActive, 10).TrackedFields(),
		campaign(domain.EntityStatusPaused, 10).TrackedFields(), &runID)
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestTrack_NoChangesSkipsInsert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockChangeHistoryRepository(ctrl)
	s := NewService(repo)

	fields := campaign(domain.EntityStatusActive, 10).TrackedFields()
	changes, err := s.Track(context.Background(), nil, ref, fields, fields, nil)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestGetChanges_ClampsLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockChangeHistoryRepository(ctrl)
	s := NewService(repo)

	repo.EXPECT().ListByEntity(gomock.Any(), domain.EntityTypeAd, "ad1", uint64(defaultLimit)).Return(nil, nil)
	repo.EXPECT().ListByAccount(gomock.Any(), "acc", uint64(maxLimit)).Return([]domain.ChangeRecord{{ID: "x"}}, nil)

	_, err := s.GetEntityChanges(context.Background(), domain.EntityTypeAd, "ad1", 0)
	require.NoError(t, err)

	got, err := s.GetRecentChanges(context.Background(), "acc", 10_000)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
