package insighting

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	"github.com/vfg2006/ads-sync-api/infrastructure/ratelimit"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/internal/usecases/currency"
	"github.com/vfg2006/ads-sync-api/pkg/log"
	"github.com/vfg2006/ads-sync-api/pkg/metrics"
)

type JobLimiter interface {
	AcquireJob(ctx context.Context, provider domain.Provider) (*ratelimit.Permit, error)
}

type Repositories struct {
	Connections repository.ConnectionRepository
	Accounts    repository.AccountRepository
	Campaigns   repository.CampaignRepository
	AdGroups    repository.AdGroupRepository
	Ads         repository.AdRepository
	Insights    repository.InsightRepository
}

type Service struct {
	repos     Repositories
	fetchers  *integrator.Registry
	converter currency.Converter
	limiter   JobLimiter
}

func NewService(repos Repositories, fetchers *integrator.Registry, converter currency.Converter, limiter JobLimiter) *Service {
	return &Service{
		repos:     repos,
		fetchers:  fetchers,
		converter: converter,
		limiter:   limiter,
	}
}

func (s *Service) SyncAccount(ctx context.Context, req Request) (*Result, error) {
	if _, err := domain.WindowDays(req.Window); err != nil {
		return nil, domain.NewValidationError("insights.sync", err)
	}
	if req.Range.Until.Before(req.Range.Since) {
		return nil, domain.NewValidationError("insights.sync", fmt.Errorf("intervalo inválido: %s", req.Range))
	}

	account, err := s.repos.Accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.NewValidationError("insights.sync", fmt.Errorf("%w: %s", domain.ErrAccountNotFound, req.AccountID))
	}
	if !account.IsSyncable() {
		return &Result{}, nil
	}

	conn, err := s.repos.Connections.GetByID(ctx, account.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, domain.NewValidationError("insights.sync", fmt.Errorf("%w: %s", domain.ErrConnectionNotFound, account.ConnectionID))
	}
	if !conn.IsUsable() {
		return nil, domain.NewValidationError("insights.sync", fmt.Errorf("conexão %s inativa (status %s)", conn.ID, conn.Status))
	}

	fetcher, err := s.fetchers.Get(account.Provider)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		permit, err := s.limiter.AcquireJob(ctx, account.Provider)
		if err != nil {
			return nil, err
		}
		defer permit.Release()
	}

	ctx = log.WithAccount(ctx, account.ID)
	logger := log.ForContext(ctx).WithFields(log.Fields{
		"provider": account.Provider,
		"window":   req.Window,
		"range":    req.Range.String(),
	})

	levels := req.Levels
	if len(levels) == 0 {
		levels = domain.SyncOrder
	}

	result := &Result{}
	for _, level := range levels {
		index, err := s.entityIndex(ctx, account, level)
		if err != nil {
			return result, err
		}

		insights, err := s.Aggregate(ctx, conn, fetcher, account, level, req.Range, req.Window)
		if err != nil {
			return result, err
		}
		result.Ranges += len(domain.SplitDateRange(req.Range, domain.MaxInsightRangeDays))

		latest := make(map[string]*domain.Insight)
		for _, in := range insights {
			id, ok := index[in.EntityID]
			if !ok {
				result.Skipped++
				continue
			}
			in.EntityID = id

			if err := s.repos.Insights.Upsert(ctx, in); err != nil {
				return result, err
			}
			result.Upserted++
			metrics.InsightsUpserted.WithLabelValues(string(in.Provider), string(level), in.Window).Inc()

			if prev, ok := latest[id]; !ok || in.Date.After(prev.Date) {
				latest[id] = in
			}
		}

		if level == domain.EntityTypeAd && req.Window == domain.WindowDaily {
			s.updateSnapshots(ctx, latest)
		}
	}

	logger.WithFields(log.Fields{
		"upserted": result.Upserted,
		"skipped":  result.Skipped,
	}).Info("Insights sincronizados")

	return result, nil
}

// Aggregate busca os insights de um nível, partindo intervalos acima do máximo
// do provedor, e devolve uma linha por entidade e data com EntityID ainda externo
func (s *Service) Aggregate(ctx context.Context, conn *domain.Connection, fetcher integrator.Fetcher, account *domain.AdAccount, level domain.EntityType, dr domain.DateRange, window string) ([]*domain.Insight, error) {
	var out []*domain.Insight
	for _, sub := range domain.SplitDateRange(dr, domain.MaxInsightRangeDays) {
		items, err := fetcher.FetchInsights(ctx, conn, account, level, sub, window)
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			raw, err := fetcher.DecodeInsight(item)
			if err != nil {
				log.ForContext(ctx).WithError(err).Warn("Linha de insight inválida, ignorando")
				continue
			}
			if raw.EntityType != level {
				continue
			}

			out = append(out, &domain.Insight{
				AccountID:  account.ID,
				Provider:   account.Provider,
				EntityType: level,
				EntityID:   raw.EntityExternalID,
				Date:       raw.Date,
				Window:     window,
				Metrics:    s.toReporting(ctx, Normalize(raw), account.Currency),
			})
		}
	}
	return out, nil
}

// toReporting converte spend, cpc e cpm para a moeda de relatório
func (s *Service) toReporting(ctx context.Context, m domain.Metrics, native string) domain.Metrics {
	m.Currency = native
	if m.Spend == 0 {
		m.Currency = s.converter.Reporting()
		return m
	}

	res := s.converter.Normalize(ctx, m.Spend, native)
	if res.Failed {
		m.CurrencyConversionFailed = true
		return m
	}

	factor := res.Amount / m.Spend
	m.Spend = res.Amount
	m.CPC *= factor
	m.CPM *= factor
	m.Currency = res.Currency
	return m
}

// entityIndex mapeia id externo para id interno das entidades do nível
func (s *Service) entityIndex(ctx context.Context, account *domain.AdAccount, level domain.EntityType) (map[string]string, error) {
	index := make(map[string]string)
	switch level {
	case domain.EntityTypeAccount:
		index[account.ExternalID] = account.ID
	case domain.EntityTypeCampaign:
		list, err := s.repos.Campaigns.ListByAccount(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		for _, c := range list {
			index[c.ExternalID] = c.ID
		}
	case domain.EntityTypeAdGroup:
		list, err := s.repos.AdGroups.ListByAccount(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		for _, g := range list {
			index[g.ExternalID] = g.ID
		}
	case domain.EntityTypeAd:
		list, err := s.repos.Ads.ListByAccount(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		for _, ad := range list {
			index[ad.ExternalID] = ad.ID
		}
	default:
		return nil, domain.NewValidationError("insights.sync", fmt.Errorf("nível inválido: %s", level))
	}
	return index, nil
}

// updateSnapshots guarda no anúncio as métricas do dia mais recente
func (s *Service) updateSnapshots(ctx context.Context, latest map[string]*domain.Insight) {
	for adID, in := range latest {
		m := in.Metrics
		if err := s.repos.Ads.UpdateInsightSnapshot(ctx, adID, &m); err != nil {
			log.ForContext(ctx).WithError(err).WithField("ad_id", adID).Warn("Erro ao atualizar snapshot de insights do anúncio")
		}
	}
}

// FullRange e DeltaRange são as janelas usadas pelo agendador
func FullRange(now time.Time, lookbackDays int) domain.DateRange {
	return domain.LastDays(now, lookbackDays)
}

func DeltaRange(now time.Time, lookbackHours int) (domain.DateRange, error) {
	since := now.Add(-time.Duration(lookbackHours) * time.Hour)
	dr, err := domain.NewDateRange(since, now)
	if err != nil {
		return domain.DateRange{}, errors.Wrapf(err, "janela delta de %dh", lookbackHours)
	}
	return dr, nil
}
