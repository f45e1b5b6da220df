package google

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator/google/googleclient"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Margem para renovar o access token antes do vencimento
const tokenRefreshMargin = 5 * time.Minute

const (
	customerQuery = `SELECT customer.id, customer.descriptive_name, customer.currency_code, customer.time_zone, customer.status, customer.manager FROM customer`

	campaignQuery = `SELECT campaign.id, campaign.name, campaign.status, campaign.advertising_channel_type, ` +
		`campaign_budget.amount_micros, campaign_budget.period FROM campaign WHERE campaign.status != 'REMOVED'`

	adGroupQuery = `SELECT ad_group.id, ad_group.name, ad_group.status, ad_group.type, ad_group.cpc_bid_micros, ` +
		`campaign.id, campaign.advertising_channel_type FROM ad_group WHERE ad_group.status != 'REMOVED'`

	adQuery = `SELECT ad_group_ad.status, ad_group_ad.ad.id, ad_group_ad.ad.name, ad_group_ad.ad.type, ad_group_ad.ad.final_urls, ` +
		`ad_group_ad.ad.responsive_search_ad.headlines, ad_group_ad.ad.responsive_search_ad.descriptions, ` +
		`ad_group_ad.ad.responsive_display_ad.headlines, ad_group_ad.ad.responsive_display_ad.descriptions, ` +
		`ad_group_ad.ad.responsive_display_ad.marketing_images, ad_group_ad.ad.video_ad.video.asset, ` +
		`ad_group.id, campaign.advertising_channel_type FROM ad_group_ad WHERE ad_group_ad.status != 'REMOVED'`

	insightMetricFields = `metrics.impressions, metrics.clicks, metrics.cost_micros, metrics.ctr, metrics.average_cpc, ` +
		`metrics.average_cpm, metrics.conversions, metrics.video_views, metrics.video_quartile_p25_rate, ` +
		`metrics.video_quartile_p50_rate, metrics.video_quartile_p75_rate, metrics.video_quartile_p100_rate`
)

// levelResources: recurso GAQL e campo de id por nível
var levelResources = map[domain.EntityType][2]string{
	domain.EntityTypeAccount:  {"customer", "customer.id"},
	domain.EntityTypeCampaign: {"campaign", "campaign.id"},
	domain.EntityTypeAdGroup:  {"ad_group", "ad_group.id"},
	domain.EntityTypeAd:       {"ad_group_ad", "ad_group_ad.ad.id"},
}

type GoogleIntegrator struct {
	Client googleclient.Client
	now    func() time.Time
}

func New(client googleclient.Client) *GoogleIntegrator {
	return &GoogleIntegrator{
		Client: client,
		now:    time.Now,
	}
}

func (s *GoogleIntegrator) Provider() domain.Provider {
	return domain.ProviderGoogle
}

// FetchAccounts lista as contas acessíveis e busca o recurso customer de cada uma.
// Contas gerenciadoras (MCC) não têm métricas e ficam de fora.
func (s *GoogleIntegrator) FetchAccounts(ctx context.Context, conn *domain.Connection) ([]json.RawMessage, error) {
	ids, err := s.Client.ListAccessibleCustomers(ctx, conn)
	if err != nil {
		return nil, err
	}

	accounts := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		rows, err := s.Client.SearchAll(ctx, conn, id, customerQuery)
		if err != nil {
			if domain.KindOf(err) == domain.KindAuthExpired {
				return nil, err
			}
			// uma conta sem permissão não derruba a listagem
			logrus.WithError(err).WithField("customer_id", id).Warn("google: erro ao buscar customer")
			continue
		}
		for _, raw := range rows {
			if isManager(raw) {
				continue
			}
			accounts = append(accounts, raw)
		}
	}
	return accounts, nil
}

func (s *GoogleIntegrator) FetchCampaigns(ctx context.Context, conn *domain.Connection, account *domain.AdAccount) ([]json.RawMessage, error) {
	return s.Client.SearchAll(ctx, conn, account.ExternalID, campaignQuery)
}

func (s *GoogleIntegrator) FetchAdGroups(ctx context.Context, conn *domain.Connection, account *domain.AdAccount) ([]json.RawMessage, error) {
	return s.Client.SearchAll(ctx, conn, account.ExternalID, adGroupQuery)
}

func (s *GoogleIntegrator) FetchAds(ctx context.Context, conn *domain.Connection, account *domain.AdAccount) ([]json.RawMessage, error) {
	return s.Client.SearchAll(ctx, conn, account.ExternalID, adQuery)
}

// FetchInsights segmenta por segments.date (1d) ou segments.week (7d)
func (s *GoogleIntegrator) FetchInsights(ctx context.Context, conn *domain.Connection, account *domain.AdAccount, level domain.EntityType, dr domain.DateRange, window string) ([]json.RawMessage, error) {
	query, err := InsightQuery(level, dr, window)
	if err != nil {
		return nil, err
	}
	return s.Client.SearchAll(ctx, conn, account.ExternalID, query)
}

func InsightQuery(level domain.EntityType, dr domain.DateRange, window string) (string, error) {
	resource, ok := levelResources[level]
	if !ok {
		return "", domain.NewValidationError("google.insights", fmt.Errorf("nível inválido: %s", level))
	}

	var segment string
	switch window {
	case domain.WindowDaily:
		segment = "segments.date"
	case domain.WindowWeekly:
		segment = "segments.week"
	default:
		return "", domain.NewValidationError("google.insights", fmt.Errorf("janela não suportada: %s", window))
	}

	return fmt.Sprintf("SELECT %s, %s, %s FROM %s WHERE segments.date BETWEEN '%s' AND '%s'",
		resource[1], segment, insightMetricFields, resource[0],
		dr.Since.Format(time.DateOnly), dr.Until.Format(time.DateOnly)), nil
}

// RefreshToken renova pelo refresh token quando o access token venceu ou está perto de vencer
func (s *GoogleIntegrator) RefreshToken(ctx context.Context, conn *domain.Connection) (*integrator.Token, error) {
	if conn.AccessToken != "" && conn.TokenExpiresAt != nil && !conn.TokenExpiresWithin(s.now(), tokenRefreshMargin) {
		return nil, nil
	}
	if conn.RefreshToken == "" {
		return nil, domain.NewSyncError(domain.KindAuthExpired, "google.oauth", fmt.Errorf("conexão %s sem refresh token", conn.ID))
	}

	// força a troca ignorando o access token atual
	expired := *conn
	expired.AccessToken = ""
	tok, err := s.Client.Token(ctx, &expired)
	if err != nil {
		return nil, err
	}

	out := &integrator.Token{AccessToken: tok.AccessToken, RefreshToken: conn.RefreshToken}
	if tok.RefreshToken != "" {
		out.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		expiresAt := tok.Expiry
		out.ExpiresAt = &expiresAt
	}
	return out, nil
}
