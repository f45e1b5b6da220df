package syncing

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/log"
)

// Chaves gravadas em metadata quando um valor monetário é convertido
const (
	MetaOriginalBudget   = "original_budget"
	MetaOriginalCurrency = "original_currency"
	MetaConversionFailed = "currency_conversion_failed"
)

// syncAccounts falha a execução inteira quando a listagem de contas falha
func (s *Service) syncAccounts(ctx context.Context, conn *domain.Connection, fetcher integrator.Fetcher, run *domain.SyncRun) ([]*domain.AdAccount, error) {
	items, err := fetcher.FetchAccounts(ctx, conn)
	if err != nil {
		return nil, err
	}

	stored, err := s.repos.Accounts.ListByConnection(ctx, conn.ID)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]*domain.AdAccount, len(stored))
	for _, a := range stored {
		existing[a.ExternalID] = a
	}

	accounts := make([]*domain.AdAccount, 0, len(items))
	for _, raw := range items {
		account, err := fetcher.DecodeAccount(raw)
		if err != nil {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeAccount, "", err)
			continue
		}
		account.ConnectionID = conn.ID
		account.OrganizationID = conn.OrganizationID
		account.Provider = conn.Provider

		prev := existing[account.ExternalID]
		var prevFields []domain.TrackedField
		if prev != nil {
			account.ID = prev.ID
			prevFields = prev.TrackedFields()
		}

		err = s.persist(ctx, run, prevFields,
			func(tx *sql.Tx) error { return s.repos.Accounts.Upsert(ctx, tx, account) },
			func() (domain.EntityRef, []domain.TrackedField) { return account.Ref(), account.TrackedFields() })
		if err != nil {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeAccount, account.ExternalID, err)
			continue
		}
		s.synced(run, conn.Provider, domain.EntityTypeAccount)
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// syncAccountTree percorre campanha → grupo → anúncio. A falha de um nível
// interrompe os níveis seguintes dessa conta.
func (s *Service) syncAccountTree(ctx context.Context, conn *domain.Connection, fetcher integrator.Fetcher, account *domain.AdAccount, run *domain.SyncRun) error {
	ctx = log.WithAccount(ctx, account.ID)

	levelFailed := func(t domain.EntityType, err error) error {
		s.entityFailed(ctx, run, conn.Provider, t, account.ExternalID, fmt.Errorf("nível %s: %w", t, err))
		return err
	}

	campaigns, err := s.syncCampaigns(ctx, conn, fetcher, account, run)
	if err != nil {
		return levelFailed(domain.EntityTypeCampaign, err)
	}

	groups, err := s.syncAdGroups(ctx, conn, fetcher, account, campaigns, run)
	if err != nil {
		return levelFailed(domain.EntityTypeAdGroup, err)
	}

	if err := s.syncAds(ctx, conn, fetcher, account, groups, run); err != nil {
		return levelFailed(domain.EntityTypeAd, err)
	}
	return nil
}

func (s *Service) syncCampaigns(ctx context.Context, conn *domain.Connection, fetcher integrator.Fetcher, account *domain.AdAccount, run *domain.SyncRun) (map[string]*domain.Campaign, error) {
	items, err := fetcher.FetchCampaigns(ctx, conn, account)
	if err != nil {
		return nil, err
	}
	stored, err := s.repos.Campaigns.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	byExternal := make(map[string]*domain.Campaign, len(stored))
	for _, c := range stored {
		byExternal[c.ExternalID] = c
	}

	persisted := make(map[string]*domain.Campaign, len(items))
	for _, raw := range items {
		c, err := fetcher.DecodeCampaign(raw)
		if err != nil {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeCampaign, "", err)
			continue
		}
		c.AdAccountID = account.ID
		c.AccountExternalID = account.ExternalID
		c.Provider = conn.Provider
		c.Budget, c.Metadata = s.normalizeBudget(ctx, c.Budget, account.Currency, c.Metadata)

		prev := byExternal[c.ExternalID]
		var prevFields []domain.TrackedField
		if prev != nil {
			c.ID = prev.ID
			prevFields = prev.TrackedFields()
		}

		err = s.persist(ctx, run, prevFields,
			func(tx *sql.Tx) error { return s.repos.Campaigns.Upsert(ctx, tx, c) },
			func() (domain.EntityRef, []domain.TrackedField) { return c.Ref(), c.TrackedFields() })
		if err != nil {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeCampaign, c.ExternalID, err)
			continue
		}
		s.synced(run, conn.Provider, domain.EntityTypeCampaign)
		persisted[c.ExternalID] = c
	}

	// campanhas que falharam nesta execução mas já existiam continuam valendo como pai
	for ext, c := range byExternal {
		if _, ok := persisted[ext]; !ok {
			persisted[ext] = c
		}
	}
	return persisted, nil
}

func (s *Service) syncAdGroups(ctx context.Context, conn *domain.Connection, fetcher integrator.Fetcher, account *domain.AdAccount, campaigns map[string]*domain.Campaign, run *domain.SyncRun) (map[string]*domain.AdGroup, error) {
	items, err := fetcher.FetchAdGroups(ctx, conn, account)
	if err != nil {
		return nil, err
	}
	stored, err := s.repos.AdGroups.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	byExternal := make(map[string]*domain.AdGroup, len(stored))
	for _, g := range stored {
		byExternal[g.ExternalID] = g
	}

	persisted := make(map[string]*domain.AdGroup, len(items))
	for _, raw := range items {
		g, err := fetcher.DecodeAdGroup(raw)
		if err != nil {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeAdGroup, "", err)
			continue
		}
		parent, ok := campaigns[g.CampaignExternalID]
		if !ok {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeAdGroup, g.ExternalID,
				domain.NewValidationError("sync.ad_group", fmt.Errorf("%w: campanha %s", errOrphan, g.CampaignExternalID)))
			continue
		}
		g.AdAccountID = account.ID
		g.CampaignID = parent.ID
		g.Provider = conn.Provider
		g.Budget, g.Metadata = s.normalizeBudget(ctx, g.Budget, account.Currency, g.Metadata)

		prev := byExternal[g.ExternalID]
		var prevFields []domain.TrackedField
		if prev != nil {
			g.ID = prev.ID
			prevFields = prev.TrackedFields()
		}

		err = s.persist(ctx, run, prevFields,
			func(tx *sql.Tx) error { return s.repos.AdGroups.Upsert(ctx, tx, g) },
			func() (domain.EntityRef, []domain.TrackedField) { return g.Ref(), g.TrackedFields() })
		if err != nil {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeAdGroup, g.ExternalID, err)
			continue
		}
		s.synced(run, conn.Provider, domain.EntityTypeAdGroup)
		persisted[g.ExternalID] = g
	}

	for ext, g := range byExternal {
		if _, ok := persisted[ext]; !ok {
			persisted[ext] = g
		}
	}
	return persisted, nil
}

func (s *Service) syncAds(ctx context.Context, conn *domain.Connection, fetcher integrator.Fetcher, account *domain.AdAccount, groups map[string]*domain.AdGroup, run *domain.SyncRun) error {
	items, err := fetcher.FetchAds(ctx, conn, account)
	if err != nil {
		return err
	}
	stored, err := s.repos.Ads.ListByAccount(ctx, account.ID)
	if err != nil {
		return err
	}

	byExternal := make(map[string]*domain.Ad, len(stored))
	for _, ad := range stored {
		byExternal[ad.ExternalID] = ad
	}

	for _, raw := range items {
		ad, err := fetcher.DecodeAd(raw)
		if err != nil {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeAd, "", err)
			continue
		}
		parent, ok := groups[ad.AdGroupExternalID]
		if !ok {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeAd, ad.ExternalID,
				domain.NewValidationError("sync.ad", fmt.Errorf("%w: grupo %s", errOrphan, ad.AdGroupExternalID)))
			continue
		}
		ad.AdAccountID = account.ID
		ad.AdGroupID = parent.ID
		ad.Provider = conn.Provider

		prev := byExternal[ad.ExternalID]
		var prevFields []domain.TrackedField
		if prev != nil {
			ad.ID = prev.ID
			prevFields = prev.TrackedFields()
		}

		err = s.persist(ctx, run, prevFields,
			func(tx *sql.Tx) error { return s.repos.Ads.Upsert(ctx, tx, ad) },
			func() (domain.EntityRef, []domain.TrackedField) { return ad.Ref(), ad.TrackedFields() })
		if err != nil {
			s.entityFailed(ctx, run, conn.Provider, domain.EntityTypeAd, ad.ExternalID, err)
			continue
		}
		s.synced(run, conn.Provider, domain.EntityTypeAd)
	}
	return nil
}

// normalizeBudget converte o orçamento para a moeda de relatório e guarda o
// valor original em metadata. Em falha mantém o valor nativo e marca a flag.
func (s *Service) normalizeBudget(ctx context.Context, budget *domain.Budget, accountCurrency string, metadata domain.JSONMap) (*domain.Budget, domain.JSONMap) {
	if budget == nil {
		return nil, metadata
	}

	native := budget.Currency
	if native == "" {
		native = accountCurrency
	}

	res := s.converter.Normalize(ctx, budget.Amount, native)

	out := metadata.Clone()
	out[MetaOriginalBudget] = res.OriginalAmount
	out[MetaOriginalCurrency] = res.OriginalCurrency
	if res.Failed {
		out[MetaConversionFailed] = true
	}

	return &domain.Budget{
		Amount:   res.Amount,
		Currency: res.Currency,
		Period:   budget.Period,
	}, out
}
