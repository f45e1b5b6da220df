package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	metadomain "github.com/vfg2006/ads-sync-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

type MetaIntegrator struct {
	cfg    config.Meta
	Client metaclient.Client
	now    func() time.Time
}

func New(cfg config.Meta, client metaclient.Client) *MetaIntegrator {
	return &MetaIntegrator{
		cfg:    cfg,
		Client: client,
		now:    time.Now,
	}
}

func (s *MetaIntegrator) Provider() domain.Provider {
	return domain.ProviderMeta
}

func actPath(account *domain.AdAccount, edge string) string {
	return fmt.Sprintf("act_%s/%s", strings.TrimPrefix(account.ExternalID, "act_"), edge)
}

func (s *MetaIntegrator) FetchAccounts(ctx context.Context, conn *domain.Connection) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("fields", metadomain.AdAccountFields)
	return s.Client.FetchAll(ctx, conn.AccessToken, "conn:"+conn.ID, "me/adaccounts", params)
}

func (s *MetaIntegrator) FetchCampaigns(ctx context.Context, conn *domain.Connection, account *domain.AdAccount) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("fields", metadomain.CampaignFields)
	return s.Client.FetchAll(ctx, conn.AccessToken, account.ExternalID, actPath(account, "campaigns"), params)
}

func (s *MetaIntegrator) FetchAdGroups(ctx context.Context, conn *domain.Connection, account *domain.AdAccount) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("fields", metadomain.AdSetFields)
	return s.Client.FetchAll(ctx, conn.AccessToken, account.ExternalID, actPath(account, "adsets"), params)
}

func (s *MetaIntegrator) FetchAds(ctx context.Context, conn *domain.Connection, account *domain.AdAccount) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("fields", metadomain.AdFields)
	return s.Client.FetchAll(ctx, conn.AccessToken, account.ExternalID, actPath(account, "ads"), params)
}

// FetchInsights pede uma linha por entidade e por janela; "7d" vira time_increment=7
func (s *MetaIntegrator) FetchInsights(ctx context.Context, conn *domain.Connection, account *domain.AdAccount, level domain.EntityType, dr domain.DateRange, window string) ([]json.RawMessage, error) {
	metaLevel, err := insightLevel(level)
	if err != nil {
		return nil, err
	}
	days, err := domain.WindowDays(window)
	if err != nil {
		return nil, domain.NewValidationError("meta.insights", err)
	}

	timeRange, err := codec.MarshalToString(map[string]string{
		"since": dr.Since.Format(time.DateOnly),
		"until": dr.Until.Format(time.DateOnly),
	})
	if err != nil {
		return nil, domain.NewValidationError("meta.insights", fmt.Errorf("erro ao montar time_range: %w", err))
	}

	params := url.Values{}
	params.Set("level", metaLevel)
	params.Set("fields", metadomain.LevelIDField[metaLevel]+","+metadomain.InsightMetricFields)
	params.Set("time_range", timeRange)
	params.Set("time_increment", strconv.Itoa(days))
	params.Set("action_breakdowns", "action_type")

	return s.Client.FetchAll(ctx, conn.AccessToken, account.ExternalID, actPath(account, "insights"), params)
}

func insightLevel(level domain.EntityType) (string, error) {
	switch level {
	case domain.EntityTypeAccount:
		return "account", nil
	case domain.EntityTypeCampaign:
		return "campaign", nil
	case domain.EntityTypeAdGroup:
		return "adset", nil
	case domain.EntityTypeAd:
		return "ad", nil
	}
	return "", domain.NewValidationError("meta.insights", fmt.Errorf("nível inválido: %s", level))
}

// RefreshToken troca o token por um de longa duração quando falta menos que o limiar para expirar
func (s *MetaIntegrator) RefreshToken(ctx context.Context, conn *domain.Connection) (*integrator.Token, error) {
	if !conn.TokenExpiresWithin(s.now(), s.cfg.TokenRefreshThreshold) {
		return nil, nil
	}

	logrus.WithField("connection_id", conn.ID).Info("Token do Meta perto de expirar. Renovando...")

	resp, err := s.Client.ExchangeLongLivedToken(ctx, conn.AccessToken)
	if err != nil {
		return nil, err
	}

	return &integrator.Token{
		AccessToken: resp.AccessToken,
		ExpiresAt:   resp.ExpiresAt(s.now()),
	}, nil
}
