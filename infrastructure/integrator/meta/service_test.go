package meta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestDecodeAccount(t *testing.T) {
	s := New(config.Meta{}, nil)

	acc, err := s.DecodeAccount(raw(`{"id":"act_123","account_id":"123","name":"Loja","currency":"brl","timezone_name":"America/Sao_Paulo","account_status":101}`))
	require.NoError(t, err)
	assert.Equal(t, "123", acc.ExternalID)
	assert.Equal(t, "BRL", acc.Currency)
	assert.Equal(t, domain.AdAccountStatusClosed, acc.Status)
	assert.Equal(t, "Loja", acc.Metadata["name"])

	acc, err = s.DecodeAccount(raw(`{"id":"act_9","account_status":42}`))
	require.NoError(t, err)
	assert.Equal(t, "9", acc.ExternalID)
	assert.Equal(t, domain.AdAccountStatusUnknown, acc.Status)

	_, err = s.DecodeAccount(raw(`{"name":"sem id"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeCampaign_BudgetInCents(t *testing.T) {
	s := New(config.Meta{}, nil)

	tests := []struct {
		name string
		in   string
		want *domain.Budget
	}{
		{"diário", `{"id":"c1","daily_budget":"5000"}`, &domain.Budget{Amount: 50, Period: "daily"}},
		{"vitalício", `{"id":"c1","daily_budget":"0","lifetime_budget":"123456"}`, &domain.Budget{Amount: 1234.56, Period: "lifetime"}},
		{"sem orçamento", `{"id":"c1"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := s.DecodeCampaign(raw(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Budget)
			assert.Equal(t, domain.ChannelMeta, c.Channel)
		})
	}

	_, err := s.DecodeCampaign(raw(`{"id":"c1","daily_budget":"abc"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.DecodeCampaign(raw(`{"id":`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeAdGroup_Targeting(t *testing.T) {
	s := New(config.Meta{}, nil)

	g, err := s.DecodeAdGroup(raw(`{
		"id":"as1","campaign_id":"c1","name":"Público","status":"PAUSED",
		"targeting":{
			"age_min":18,"age_max":45,"genders":[2],
			"geo_locations":{"countries":["BR"],"cities":[{"key":"1","name":"Recife"}]},
			"flexible_spec":[{"interests":[{"id":"6003","name":"Óculos"}]}],
			"publisher_platforms":["facebook","instagram"],
			"instagram_positions":["stream"]
		}
	}`))
	require.NoError(t, err)

	assert.Equal(t, domain.EntityStatusPaused, g.Status)
	assert.Equal(t, "c1", g.CampaignExternalID)
	assert.Equal(t, domain.ChannelFacebook, g.Channel)
	assert.Equal(t, &domain.Targeting{
		AgeMin:     18,
		AgeMax:     45,
		Genders:    []string{"female"},
		Countries:  []string{"BR"},
		Cities:     []string{"Recife"},
		Interests:  []string{"Óculos"},
		Platforms:  []string{"facebook", "instagram"},
		Placements: []string{"instagram_stream"},
	}, g.Targeting)

	_, err = s.DecodeAdGroup(raw(`{"id":"as1"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeAd_CreativeAndChannel(t *testing.T) {
	s := New(config.Meta{}, nil)

	tests := []struct {
		name        string
		in          string
		wantType    domain.CreativeType
		wantChannel domain.Channel
	}{
		{
			name:        "carrossel no instagram",
			in:          `{"id":"a1","adset_id":"as1","adset":{"id":"as1","targeting":{"publisher_platforms":["facebook","instagram"]}},"creative":{"id":"cr1","object_story_spec":{"link_data":{"child_attachments":[{"picture":"p1"},{"picture":"p2"}]}}}}`,
			wantType:    domain.CreativeTypeCarousel,
			wantChannel: domain.ChannelInstagram,
		},
		{
			name:        "vídeo no messenger",
			in:          `{"id":"a1","adset_id":"as1","adset":{"id":"as1","targeting":{"publisher_platforms":["messenger"]}},"creative":{"id":"cr1","object_story_spec":{"video_data":{"video_id":"v1"}}}}`,
			wantType:    domain.CreativeTypeVideo,
			wantChannel: domain.ChannelMessenger,
		},
		{
			name:        "imagem sem plataformas",
			in:          `{"id":"a1","adset_id":"as1","creative":{"id":"cr1","image_url":"https://img"}}`,
			wantType:    domain.CreativeTypeImage,
			wantChannel: domain.ChannelFacebook,
		},
		{
			name:        "apenas texto",
			in:          `{"id":"a1","adset_id":"as1","creative":{"id":"cr1","body":"Compre já"}}`,
			wantType:    domain.CreativeTypeText,
			wantChannel: domain.ChannelFacebook,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad, err := s.DecodeAd(raw(tt.in))
			require.NoError(t, err)
			require.NotNil(t, ad.Creative)
			assert.Equal(t, tt.wantType, ad.Creative.Type)
			assert.Equal(t, tt.wantChannel, ad.Channel)
			assert.Equal(t, "as1", ad.AdGroupExternalID)
		})
	}
}

func TestDecodeInsight(t *testing.T) {
	s := New(config.Meta{}, nil)

	in, err := s.DecodeInsight(raw(`{
		"ad_id":"a1","date_start":"2024-05-01","date_stop":"2024-05-01",
		"impressions":"1000","reach":"800","clicks":"25","spend":"12.34","ctr":"2.5","cpc":"0.49","cpm":"12.34","frequency":"1.25",
		"actions":[{"action_type":"lead","value":"2"},{"action_type":"offsite_conversion.fb_pixel_lead","value":"1"}],
		"video_p25_watched_actions":[{"action_type":"video_view","value":"40"}],
		"quality_ranking":"ABOVE_AVERAGE"
	}`))
	require.NoError(t, err)

	assert.Equal(t, domain.EntityTypeAd, in.EntityType)
	assert.Equal(t, "a1", in.EntityExternalID)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), in.Date)
	assert.Equal(t, int64(1000), in.Impressions)
	assert.Equal(t, int64(25), in.Clicks)
	assert.InDelta(t, 12.34, in.Spend, 0.0001)
	assert.Len(t, in.Actions, 2)
	assert.Equal(t, "lead", in.Actions[0].Type)
	assert.Equal(t, "40", in.VideoP25[0].Value)
	assert.Equal(t, "ABOVE_AVERAGE", in.QualityRanking)

	_, err = s.DecodeInsight(raw(`{"campaign_id":"c1","date_start":"ontem"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.DecodeInsight(raw(`{"campaign_id":"c1","date_start":"2024-05-01","spend":"x"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFetchInsights_Params(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/v22.0/act_123/insights", r.URL.Path)
		assert.Equal(t, "adset", q.Get("level"))
		assert.Equal(t, "7", q.Get("time_increment"))
		assert.JSONEq(t, `{"since":"2024-01-01","until":"2024-01-31"}`, q.Get("time_range"))
		assert.Contains(t, q.Get("fields"), "adset_id,")
		_, _ = w.Write([]byte(`{"data":[{"adset_id":"as1"}],"paging":{}}`))
	}))
	defer srv.Close()

	cfg := config.Meta{URL: srv.URL + "/v22.0"}
	guard := integrator.NewGuard(domain.ProviderMeta, nil, integrator.DefaultGuardOptions())
	s := New(cfg, metaclient.NewClientWithGuard(cfg, guard))

	dr, err := domain.NewDateRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	conn := &domain.Connection{ID: "conn1", AccessToken: "tok"}
	account := &domain.AdAccount{ExternalID: "123"}

	items, err := s.FetchInsights(context.Background(), conn, account, domain.EntityTypeAdGroup, dr, domain.WindowWeekly)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = s.FetchInsights(context.Background(), conn, account, domain.EntityTypeAdGroup, dr, "semana")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

type fakeClient struct {
	metaclient.Client
	exchanged string
}

func (f *fakeClient) ExchangeLongLivedToken(ctx context.Context, token string) (*metaclient.TokenResponse, error) {
	f.exchanged = token
	return &metaclient.TokenResponse{AccessToken: "novo", ExpiresIn: 3600}, nil
}

func TestRefreshToken_Threshold(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeClient{}
	s := New(config.Meta{TokenRefreshThreshold: 7 * 24 * time.Hour}, client)
	s.now = func() time.Time { return now }

	far := now.Add(30 * 24 * time.Hour)
	tok, err := s.RefreshToken(context.Background(), &domain.Connection{AccessToken: "velho", TokenExpiresAt: &far})
	require.NoError(t, err)
	assert.Nil(t, tok)
	assert.Empty(t, client.exchanged)

	near := now.Add(2 * 24 * time.Hour)
	tok, err = s.RefreshToken(context.Background(), &domain.Connection{AccessToken: "velho", TokenExpiresAt: &near})
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "novo", tok.AccessToken)
	assert.Equal(t, now.Add(time.Hour), *tok.ExpiresAt)
	assert.Equal(t, "velho", client.exchanged)
}
