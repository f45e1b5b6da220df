package google

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator/google/googleclient"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"golang.org/x/oauth2"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

type fakeClient struct {
	googleclient.Client
	customers []string
	rows      map[string][]json.RawMessage
	errs      map[string]error
	queries   []string
	tokenConn *domain.Connection
}

func (f *fakeClient) ListAccessibleCustomers(ctx context.Context, conn *domain.Connection) ([]string, error) {
	return f.customers, nil
}

func (f *fakeClient) SearchAll(ctx context.Context, conn *domain.Connection, customerID, query string) ([]json.RawMessage, error) {
	f.queries = append(f.queries, query)
	if err := f.errs[customerID]; err != nil {
		return nil, err
	}
	return f.rows[customerID], nil
}

func (f *fakeClient) Token(ctx context.Context, conn *domain.Connection) (*oauth2.Token, error) {
	f.tokenConn = conn
	return &oauth2.Token{AccessToken: "novo", Expiry: time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)}, nil
}

func TestFetchAccounts_SkipsManagersAndFailures(t *testing.T) {
	client := &fakeClient{
		customers: []string{"1", "2", "3"},
		rows: map[string][]json.RawMessage{
			"1": {raw(`{"customer":{"id":"1","descriptiveName":"Loja","manager":false}}`)},
			"2": {raw(`{"customer":{"id":"2","descriptiveName":"MCC","manager":true}}`)},
		},
		errs: map[string]error{"3": domain.NewSyncError(domain.KindUnknown, "google.search", errors.New("PERMISSION_DENIED"))},
	}
	s := New(client)

	accounts, err := s.FetchAccounts(context.Background(), &domain.Connection{ID: "c1"})
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	acc, err := s.DecodeAccount(accounts[0])
	require.NoError(t, err)
	assert.Equal(t, "1", acc.ExternalID)
}

func TestFetchAccounts_AuthExpiredAborts(t *testing.T) {
	client := &fakeClient{
		customers: []string{"1"},
		errs:      map[string]error{"1": domain.NewSyncError(domain.KindAuthExpired, "google.oauth", errors.New("invalid_grant"))},
	}

	_, err := New(client).FetchAccounts(context.Background(), &domain.Connection{ID: "c1"})
	assert.ErrorIs(t, err, domain.ErrAuthExpired)
}

func TestDecodeAccount(t *testing.T) {
	s := New(nil)
	acc, err := s.DecodeAccount(raw(`{"customer":{"id":"1234567890","descriptiveName":"Ótica Centro","currencyCode":"brl","timeZone":"America/Sao_Paulo","status":"ENABLED"}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGoogle, acc.Provider)
	assert.Equal(t, "1234567890", acc.ExternalID)
	assert.Equal(t, "BRL", acc.Currency)
	assert.Equal(t, domain.AdAccountStatusActive, acc.Status)
	assert.Contains(t, acc.Metadata, "customer")

	_, err = s.DecodeAccount(raw(`{"customer":{}}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeCampaign_BudgetInMicros(t *testing.T) {
	s := New(nil)
	c, err := s.DecodeCampaign(raw(`{
		"campaign":{"id":"11","name":"Search BR","status":"PAUSED","advertisingChannelType":"SEARCH"},
		"campaignBudget":{"amountMicros":"25500000","period":"DAILY"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "11", c.ExternalID)
	assert.Equal(t, domain.EntityStatusPaused, c.Status)
	assert.Equal(t, domain.ChannelGoogleSearch, c.Channel)
	require.NotNil(t, c.Budget)
	assert.InDelta(t, 25.5, c.Budget.Amount, 1e-9)
	assert.Equal(t, "daily", c.Budget.Period)
	assert.Empty(t, c.Budget.Currency)

	c, err = s.DecodeCampaign(raw(`{"campaign":{"id":"12","status":"ENABLED","advertisingChannelType":"PERFORMANCE_MAX"}}`))
	require.NoError(t, err)
	assert.Nil(t, c.Budget)
	assert.Equal(t, domain.ChannelPerformanceMax, c.Channel)
}

func TestDecodeAdGroup(t *testing.T) {
	s := New(nil)
	g, err := s.DecodeAdGroup(raw(`{"adGroup":{"id":"21","name":"Grupo","status":"ENABLED"},"campaign":{"id":"11","advertisingChannelType":"VIDEO"}}`))
	require.NoError(t, err)
	assert.Equal(t, "11", g.CampaignExternalID)
	assert.Equal(t, domain.ChannelYouTube, g.Channel)
	assert.Nil(t, g.Budget)

	_, err = s.DecodeAdGroup(raw(`{"adGroup":{"id":"21"}}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeAd_Creative(t *testing.T) {
	s := New(nil)
	ad, err := s.DecodeAd(raw(`{
		"adGroupAd":{"status":"ENABLED","ad":{"id":"31","type":"RESPONSIVE_SEARCH_AD","finalUrls":["https://loja.com"],
			"responsiveSearchAd":{"headlines":[{"text":"Óculos"},{"text":"Lentes"}],"descriptions":[{"text":"Frete grátis"}]}}},
		"adGroup":{"id":"21"},
		"campaign":{"advertisingChannelType":"SEARCH"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "21", ad.AdGroupExternalID)
	assert.Equal(t, domain.EntityStatusActive, ad.Status)
	require.NotNil(t, ad.Creative)
	assert.Equal(t, domain.CreativeTypeText, ad.Creative.Type)
	assert.Equal(t, "Óculos", ad.Creative.Title)
	assert.Equal(t, "Frete grátis", ad.Creative.Body)
	assert.Equal(t, "https://loja.com", ad.Creative.LinkURL)
	assert.Len(t, ad.Creative.Assets, 3)

	ad, err = s.DecodeAd(raw(`{"adGroupAd":{"status":"PAUSED","ad":{"id":"32","videoAd":{"video":{"asset":"customers/1/assets/9"}}}},"adGroup":{"id":"21"}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.CreativeTypeVideo, ad.Creative.Type)
	assert.Equal(t, "customers/1/assets/9", ad.Creative.VideoID)
	assert.Equal(t, domain.ChannelGoogle, ad.Channel)
}

func TestDecodeInsight(t *testing.T) {
	s := New(nil)
	in, err := s.DecodeInsight(raw(`{
		"campaign":{"id":"11"},
		"segments":{"date":"2024-04-30"},
		"metrics":{"impressions":"1000","clicks":"50","costMicros":"12340000","ctr":0.05,"averageCpc":246800,
			"averageCpm":12340000,"conversions":2.5,"videoViews":"200","videoQuartileP25Rate":0.5,"videoQuartileP100Rate":0.1}
	}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EntityTypeCampaign, in.EntityType)
	assert.Equal(t, "11", in.EntityExternalID)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), in.Date)
	assert.Equal(t, int64(1000), in.Impressions)
	assert.InDelta(t, 12.34, in.Spend, 1e-9)
	assert.InDelta(t, 5.0, in.CTR, 1e-9)
	assert.InDelta(t, 0.2468, in.CPC, 1e-9)
	assert.InDelta(t, 12.34, in.CPM, 1e-9)
	assert.Equal(t, []domain.Action{{Type: "conversion", Value: "2.5"}, {Type: "video_view", Value: "200"}}, in.Actions)
	assert.Equal(t, []domain.Action{{Type: "video_view", Value: "100"}}, in.VideoP25)
	assert.Equal(t, []domain.Action{{Type: "video_view", Value: "20"}}, in.VideoP100)

	in, err = s.DecodeInsight(raw(`{"customer":{"id":"1"},"segments":{"week":"2024-04-29"},"metrics":{}}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EntityTypeAccount, in.EntityType)
	assert.Nil(t, in.Actions)

	_, err = s.DecodeInsight(raw(`{"campaign":{"id":"11"}}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInsightQuery(t *testing.T) {
	dr := domain.DateRange{
		Since: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Until: time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}

	q, err := InsightQuery(domain.EntityTypeAd, dr, domain.WindowDaily)
	require.NoError(t, err)
	assert.Contains(t, q, "SELECT ad_group_ad.ad.id, segments.date, metrics.impressions")
	assert.Contains(t, q, "FROM ad_group_ad WHERE segments.date BETWEEN '2024-04-01' AND '2024-04-30'")

	q, err = InsightQuery(domain.EntityTypeAccount, dr, domain.WindowWeekly)
	require.NoError(t, err)
	assert.Contains(t, q, "segments.week")
	assert.Contains(t, q, "FROM customer")

	_, err = InsightQuery(domain.EntityTypeAd, dr, "28d")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRefreshToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeClient{}
	s := New(client)
	s.now = func() time.Time { return now }

	far := now.Add(time.Hour)
	tok, err := s.RefreshToken(context.Background(), &domain.Connection{AccessToken: "atual", RefreshToken: "r", TokenExpiresAt: &far})
	require.NoError(t, err)
	assert.Nil(t, tok)
	assert.Nil(t, client.tokenConn)

	near := now.Add(time.Minute)
	tok, err = s.RefreshToken(context.Background(), &domain.Connection{AccessToken: "atual", RefreshToken: "r", TokenExpiresAt: &near})
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "novo", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.Equal(t, now.Add(time.Hour), *tok.ExpiresAt)
	assert.Empty(t, client.tokenConn.AccessToken)

	_, err = s.RefreshToken(context.Background(), &domain.Connection{ID: "c"})
	assert.ErrorIs(t, err, domain.ErrAuthExpired)
}
