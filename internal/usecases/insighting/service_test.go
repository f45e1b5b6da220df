package insighting

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	integratormocks "github.com/vfg2006/ads-sync-api/infrastructure/integrator/mocks"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository/mocks"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/internal/usecases/currency"
	"go.uber.org/mock/gomock"
)

type harness struct {
	svc      *Service
	fetcher  *integratormocks.MockFetcher
	accounts *mocks.MockAccountRepository
	conns    *mocks.MockConnectionRepository
	camps    *mocks.MockCampaignRepository
	groups   *mocks.MockAdGroupRepository
	ads      *mocks.MockAdRepository
	insights *mocks.MockInsightRepository

	account *domain.AdAccount
	stored  map[string]*domain.Insight
}

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func newHarness(t *testing.T) *harness {
	ctrl := gomock.NewController(t)

	h := &harness{
		fetcher:  integratormocks.NewMockFetcher(ctrl),
		accounts: mocks.NewMockAccountRepository(ctrl),
		conns:    mocks.NewMockConnectionRepository(ctrl),
		camps:    mocks.NewMockCampaignRepository(ctrl),
		groups:   mocks.NewMockAdGroupRepository(ctrl),
		ads:      mocks.NewMockAdRepository(ctrl),
		insights: mocks.NewMockInsightRepository(ctrl),
		account: &domain.AdAccount{
			ID: "acc-1", ConnectionID: "conn-1", Provider: domain.ProviderMeta,
			ExternalID: "act_1", Currency: "BRL", Status: domain.AdAccountStatusActive,
		},
		stored: map[string]*domain.Insight{},
	}

	h.fetcher.EXPECT().Provider().Return(domain.ProviderMeta).AnyTimes()
	h.accounts.EXPECT().GetByID(gomock.Any(), "acc-1").DoAndReturn(
		func(context.Context, string) (*domain.AdAccount, error) {
			return h.account, nil
		}).AnyTimes()
	h.conns.EXPECT().GetByID(gomock.Any(), "conn-1").Return(&domain.Connection{
		ID: "conn-1", Provider: domain.ProviderMeta, AccessToken: "tok",
		Active: true, Status: domain.ConnectionStatusActive,
	}, nil).AnyTimes()

	h.camps.EXPECT().ListByAccount(gomock.Any(), "acc-1").Return([]*domain.Campaign{
		{ID: "cmp-1", ExternalID: "c1"},
	}, nil).AnyTimes()
	h.groups.EXPECT().ListByAccount(gomock.Any(), "acc-1").Return([]*domain.AdGroup{
		{ID: "grp-1", ExternalID: "g1"},
	}, nil).AnyTimes()
	h.ads.EXPECT().ListByAccount(gomock.Any(), "acc-1").Return([]*domain.Ad{
		{ID: "ad-1", ExternalID: "a1"},
	}, nil).AnyTimes()

	// upsert por (entidade, data, janela), como a constraint da tabela
	h.insights.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in *domain.Insight) error {
			key := string(in.EntityType) + "|" + in.EntityID + "|" + in.Date.Format(time.DateOnly) + "|" + in.Window
			cp := *in
			h.stored[key] = &cp
			return nil
		}).AnyTimes()

	converter := currency.NewService(config.Currency{
		Reporting: "USD",
		RateMap:   map[string]float64{"USD": 1, "BRL": 0.2},
		Attempts:  1,
	}, nil)

	h.svc = NewService(Repositories{
		Connections: h.conns,
		Accounts:    h.accounts,
		Campaigns:   h.camps,
		AdGroups:    h.groups,
		Ads:         h.ads,
		Insights:    h.insights,
	}, integrator.NewRegistry(h.fetcher), converter, nil)

	return h
}

// row é o payload cru usado pelo fake; DecodeInsight o devolve como RawInsight
type row struct {
	Level  domain.EntityType `json:"level"`
	ID     string            `json:"id"`
	Date   string            `json:"date"`
	Spend  float64           `json:"spend"`
	Clicks int64             `json:"clicks"`
}

func rawRow(level domain.EntityType, id, date string, spend float64) json.RawMessage {
	b, _ := json.Marshal(row{Level: level, ID: id, Date: date, Spend: spend, Clicks: 10})
	return b
}

func (h *harness) stubDecode() {
	h.fetcher.EXPECT().DecodeInsight(gomock.Any()).DoAndReturn(
		func(raw json.RawMessage) (*domain.RawInsight, error) {
			var r row
			if err := json.Unmarshal(raw, &r); err != nil {
				return nil, err
			}
			if r.ID == "" {
				return nil, domain.NewValidationError("decode", errors.New("sem id"))
			}
			return &domain.RawInsight{
				EntityType: r.Level, EntityExternalID: r.ID, Date: day(r.Date),
				Spend: r.Spend, Clicks: r.Clicks, CPC: r.Spend / float64(r.Clicks),
			}, nil
		}).AnyTimes()
}

func TestSyncAccount_UpsertsAndConvertsCurrency(t *testing.T) {
	h := newHarness(t)
	h.stubDecode()

	dr := domain.DateRange{Since: day("2025-03-01"), Until: day("2025-03-02")}
	h.fetcher.EXPECT().FetchInsights(gomock.Any(), gomock.Any(), gomock.Any(), domain.EntityTypeCampaign, dr, domain.WindowDaily).
		Return([]json.RawMessage{
			rawRow(domain.EntityTypeCampaign, "c1", "2025-03-01", 100),
			rawRow(domain.EntityTypeCampaign, "c1", "2025-03-02", 50),
			rawRow(domain.EntityTypeCampaign, "c-unknown", "2025-03-02", 10),
		}, nil)

	res, err := h.svc.SyncAccount(context.Background(), Request{
		AccountID: "acc-1", Range: dr, Window: domain.WindowDaily,
		Levels: []domain.EntityType{domain.EntityTypeCampaign},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Upserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Ranges)

	in := h.stored["campaign|cmp-1|2025-03-01|1d"]
	require.NotNil(t, in)
	assert.Equal(t, "acc-1", in.AccountID)
	assert.InDelta(t, 20.0, in.Metrics.Spend, 1e-6)
	assert.InDelta(t, 2.0, in.Metrics.CPC, 1e-6)
	assert.Equal(t, "USD", in.Metrics.Currency)
	assert.False(t, in.Metrics.CurrencyConversionFailed)
}

func TestSyncAccount_RerunOverwrites(t *testing.T) {
	h := newHarness(t)
	h.stubDecode()

	dr := domain.DateRange{Since: day("2025-03-01"), Until: day("2025-03-01")}
	gomock.InOrder(
		h.fetcher.EXPECT().FetchInsights(gomock.Any(), gomock.Any(), gomock.Any(), domain.EntityTypeCampaign, dr, domain.WindowDaily).
			Return([]json.RawMessage{rawRow(domain.EntityTypeCampaign, "c1", "2025-03-01", 10)}, nil),
		h.fetcher.EXPECT().FetchInsights(gomock.Any(), gomock.Any(), gomock.Any(), domain.EntityTypeCampaign, dr, domain.WindowDaily).
			Return([]json.RawMessage{rawRow(domain.EntityTypeCampaign, "c1", "2025-03-01", 30)}, nil),
	)

	req := Request{AccountID: "acc-1", Range: dr, Window: domain.WindowDaily, Levels: []domain.EntityType{domain.EntityTypeCampaign}}
	_, err := h.svc.SyncAccount(context.Background(), req)
	require.NoError(t, err)
	_, err = h.svc.SyncAccount(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, h.stored, 1)
	assert.InDelta(t, 6.0, h.stored["campaign|cmp-1|2025-03-01|1d"].Metrics.Spend, 1e-6)
}

func TestSyncAccount_SplitsLongRanges(t *testing.T) {
	h := newHarness(t)
	h.stubDecode()

	since := day("2025-01-01")
	dr := domain.DateRange{Since: since, Until: since.AddDate(0, 0, 199)}

	var fetched []domain.DateRange
	h.fetcher.EXPECT().FetchInsights(gomock.Any(), gomock.Any(), gomock.Any(), domain.EntityTypeAccount, gomock.Any(), domain.WindowDaily).
		DoAndReturn(func(_ context.Context, _ *domain.Connection, _ *domain.AdAccount, _ domain.EntityType, sub domain.DateRange, _ string) ([]json.RawMessage, error) {
			fetched = append(fetched, sub)
			return []json.RawMessage{rawRow(domain.EntityTypeAccount, "act_1", sub.Since.Format(time.DateOnly), 1)}, nil
		}).Times(3)

	res, err := h.svc.SyncAccount(context.Background(), Request{
		AccountID: "acc-1", Range: dr, Window: domain.WindowDaily,
		Levels: []domain.EntityType{domain.EntityTypeAccount},
	})
	require.NoError(t, err)

	require.Len(t, fetched, 3)
	assert.Equal(t, dr.Since, fetched[0].Since)
	assert.Equal(t, dr.Until, fetched[2].Until)
	days := 0
	for i, sub := range fetched {
		days += sub.Days()
		if i > 0 {
			assert.Equal(t, fetched[i-1].Until.AddDate(0, 0, 1), sub.Since)
		}
	}
	assert.Equal(t, 200, days)
	assert.Equal(t, 3, res.Upserted)
}

func TestSyncAccount_UpdatesAdSnapshotWithLatestDay(t *testing.T) {
	h := newHarness(t)
	h.stubDecode()

	dr := domain.DateRange{Since: day("2025-03-01"), Until: day("2025-03-03")}
	h.fetcher.EXPECT().FetchInsights(gomock.Any(), gomock.Any(), gomock.Any(), domain.EntityTypeAd, dr, domain.WindowDaily).
		Return([]json.RawMessage{
			rawRow(domain.EntityTypeAd, "a1", "2025-03-03", 50),
			rawRow(domain.EntityTypeAd, "a1", "2025-03-01", 5),
			json.RawMessage(`{"level":"ad"}`),
		}, nil)
	h.ads.EXPECT().UpdateInsightSnapshot(gomock.Any(), "ad-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, m *domain.Metrics) error {
			assert.InDelta(t, 10.0, m.Spend, 1e-6)
			return nil
		})

	res, err := h.svc.SyncAccount(context.Background(), Request{
		AccountID: "acc-1", Range: dr, Window: domain.WindowDaily,
		Levels: []domain.EntityType{domain.EntityTypeAd},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Upserted)
}

func TestSyncAccount_ConversionFailureKeepsNativeSpend(t *testing.T) {
	h := newHarness(t)
	h.stubDecode()
	h.account.Currency = "XYZ"

	dr := domain.DateRange{Since: day("2025-03-01"), Until: day("2025-03-01")}
	h.fetcher.EXPECT().FetchInsights(gomock.Any(), gomock.Any(), gomock.Any(), domain.EntityTypeAccount, dr, domain.WindowDaily).
		Return([]json.RawMessage{rawRow(domain.EntityTypeAccount, "act_1", "2025-03-01", 42)}, nil)

	_, err := h.svc.SyncAccount(context.Background(), Request{
		AccountID: "acc-1", Range: dr, Window: domain.WindowDaily,
		Levels: []domain.EntityType{domain.EntityTypeAccount},
	})
	require.NoError(t, err)

	in := h.stored["account|acc-1|2025-03-01|1d"]
	require.NotNil(t, in)
	assert.Equal(t, 42.0, in.Metrics.Spend)
	assert.Equal(t, "XYZ", in.Metrics.Currency)
	assert.True(t, in.Metrics.CurrencyConversionFailed)
}

func TestSyncAccount_Errors(t *testing.T) {
	dr := domain.DateRange{Since: day("2025-03-01"), Until: day("2025-03-01")}

	t.Run("unknown account", func(t *testing.T) {
		h := newHarness(t)
		h.accounts.EXPECT().GetByID(gomock.Any(), "nope").Return(nil, nil)

		_, err := h.svc.SyncAccount(context.Background(), Request{AccountID: "nope", Range: dr, Window: domain.WindowDaily})
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
		assert.False(t, domain.IsRetryable(err))
	})

	t.Run("invalid window", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.SyncAccount(context.Background(), Request{AccountID: "acc-1", Range: dr, Window: "week"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("fetch error aborts", func(t *testing.T) {
		h := newHarness(t)
		h.fetcher.EXPECT().FetchInsights(gomock.Any(), gomock.Any(), gomock.Any(), domain.EntityTypeAccount, dr, domain.WindowDaily).
			Return(nil, domain.NewRateLimitedError("meta.insights", time.Minute))

		_, err := h.svc.SyncAccount(context.Background(), Request{AccountID: "acc-1", Range: dr, Window: domain.WindowDaily})
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.Equal(t, time.Minute, domain.RetryAfter(err))
	})
}

func TestDeltaRange(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 47, 0, 0, time.UTC)

	dr, err := DeltaRange(now, 24)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", dr.Since.Format(time.DateOnly))
	assert.Equal(t, "2025-03-01", dr.Until.Format(time.DateOnly))

	_, err = DeltaRange(now, -48)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}
