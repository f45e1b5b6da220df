package recommending

import (
	"context"
	"fmt"
	"time"

	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/log"
	"github.com/vfg2006/ads-sync-api/pkg/metrics"
)

type Generator interface {
	GenerateForAccount(ctx context.Context, accountID string) (*Result, error)
}

type Result struct {
	Evaluated int
	Created   int
	Skipped   int
	Failed    int
	Expired   int64
}

type Repositories struct {
	Accounts        repository.AccountRepository
	Campaigns       repository.CampaignRepository
	AdGroups        repository.AdGroupRepository
	Ads             repository.AdRepository
	Insights        repository.InsightRepository
	Playbooks       repository.PlaybookRepository
	Recommendations repository.RecommendationRepository
}

type Service struct {
	repos        Repositories
	pendingTTL   time.Duration
	lookbackDays int
	now          func() time.Time
}

func NewService(repos Repositories, cfg config.Recommendations) *Service {
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 30
	}
	return &Service{
		repos:        repos,
		pendingTTL:   cfg.PendingTTL,
		lookbackDays: lookback,
		now:          time.Now,
	}
}

type entity struct {
	level domain.EntityType
	id    string
	name  string
}

func (s *Service) GenerateForAccount(ctx context.Context, accountID string) (*Result, error) {
	ctx = log.WithAccount(ctx, accountID)
	logger := log.ForContext(ctx)
	now := s.now()
	result := &Result{}

	account, err := s.repos.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.NewValidationError("recommendations.generate", fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID))
	}

	if s.pendingTTL > 0 {
		expired, err := s.repos.Recommendations.ExpirePendingBefore(ctx, accountID, now.Add(-s.pendingTTL))
		if err != nil {
			return nil, err
		}
		result.Expired = expired
	}

	playbooks, err := s.repos.Playbooks.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if len(playbooks) == 0 {
		logger.Warn("Nenhum playbook habilitado")
		return result, nil
	}

	entities, err := s.entities(ctx, account)
	if err != nil {
		return nil, err
	}

	dr := domain.LastDays(now, s.lookbackDays)
	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.evaluateEntity(ctx, account, e, playbooks, dr, result); err != nil {
			result.Failed++
			logger.WithError(err).WithFields(log.Fields{
				"entity_type": e.level,
				"entity_id":   e.id,
			}).Error("Erro ao avaliar playbooks da entidade")
		}
	}

	logger.WithFields(log.Fields{
		"evaluated": result.Evaluated,
		"created":   result.Created,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
		"expired":   result.Expired,
	}).Info("Recomendações geradas")

	return result, nil
}

func (s *Service) evaluateEntity(ctx context.Context, account *domain.AdAccount, e entity, playbooks []*domain.Playbook, dr domain.DateRange, result *Result) error {
	var agg *Aggregates

	for _, p := range playbooks {
		if !p.AppliesTo(account.Provider, e.level) {
			continue
		}

		// insights só são lidos quando algum playbook se aplica
		if agg == nil {
			insights, err := s.repos.Insights.ListByEntity(ctx, e.level, e.id, domain.WindowDaily, dr)
			if err != nil {
				return err
			}
			computed := ComputeAggregates(insights, dr.Until)
			agg = &computed
		}
		if agg.Points() == 0 {
			return nil
		}

		result.Evaluated++
		ok, err := Matches(p, *agg)
		if err != nil {
			return fmt.Errorf("playbook %s: %w", p.ID, err)
		}
		if !ok {
			continue
		}

		for _, action := range p.Actions {
			exists, err := s.repos.Recommendations.ExistsPending(ctx, account.ID, e.level, e.id, action.Type)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped++
				continue
			}

			rec := s.build(account, e, p, action, *agg)
			created, err := s.repos.Recommendations.Create(ctx, rec)
			if err != nil {
				return err
			}
			if !created {
				result.Skipped++
				continue
			}
			result.Created++
			metrics.RecommendationsCreated.WithLabelValues(p.ID).Inc()
		}
	}
	return nil
}

func (s *Service) build(account *domain.AdAccount, e entity, p *domain.Playbook, action domain.PlaybookAction, agg Aggregates) *domain.Recommendation {
	vars := map[string]string{
		"entity_name":    e.name,
		"entity_type":    string(e.level),
		"playbook":       p.Name,
		"change_percent": formatNumber(action.ChangePercent),
	}

	title := action.Title
	if title == "" {
		title = p.Name
	}

	return &domain.Recommendation{
		AccountID:   account.ID,
		Provider:    account.Provider,
		EntityType:  e.level,
		EntityID:    e.id,
		PlaybookID:  p.ID,
		Type:        action.Type,
		Priority:    p.Priority,
		Title:       Interpolate(title, agg, vars),
		Description: Interpolate(p.Explanation, agg, vars),
		Impact:      ProjectImpact(action, agg),
		Confidence:  Confidence(agg, s.lookbackDays),
		Status:      domain.RecommendationStatusPending,
	}
}

// entities lista conta, campanhas, grupos e anúncios nessa ordem
func (s *Service) entities(ctx context.Context, account *domain.AdAccount) ([]entity, error) {
	out := []entity{{level: domain.EntityTypeAccount, id: account.ID, name: account.Name}}

	campaigns, err := s.repos.Campaigns.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range campaigns {
		if gone(c.Status) {
			continue
		}
		out = append(out, entity{level: domain.EntityTypeCampaign, id: c.ID, name: c.Name})
	}

	groups, err := s.repos.AdGroups.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if gone(g.Status) {
			continue
		}
		out = append(out, entity{level: domain.EntityTypeAdGroup, id: g.ID, name: g.Name})
	}

	ads, err := s.repos.Ads.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	for _, ad := range ads {
		if gone(ad.Status) {
			continue
		}
		out = append(out, entity{level: domain.EntityTypeAd, id: ad.ID, name: ad.Name})
	}

	return out, nil
}

func gone(status domain.EntityStatus) bool {
	return status == domain.EntityStatusRemoved || status == domain.EntityStatusDeleted
}
