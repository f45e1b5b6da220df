package integrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vfg2006/ads-sync-api/internal/domain"
)

// Page é uma página de itens brutos e o cursor da próxima ("" na última)
type Page struct {
	Items      []json.RawMessage
	NextCursor string
}

// Token é o resultado de uma renovação de credenciais
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// Fetcher é o contrato de leitura de um provedor. Os Fetch* percorrem todas
// as páginas e devolvem os itens brutos; os Decode* convertem um item e
// devolvem erro de validação quando o payload é inválido, isolando a entidade.
// Valores monetários saem na moeda da conta, sem conversão.
type Fetcher interface {
	Provider() domain.Provider

	FetchAccounts(ctx context.Context, conn *domain.Connection) ([]json.RawMessage, error)
	FetchCampaigns(ctx context.Context, conn *domain.Connection, account *domain.AdAccount) ([]json.RawMessage, error)
	FetchAdGroups(ctx context.Context, conn *domain.Connection, account *domain.AdAccount) ([]json.RawMessage, error)
	FetchAds(ctx context.Context, conn *domain.Connection, account *domain.AdAccount) ([]json.RawMessage, error)
	FetchInsights(ctx context.Context, conn *domain.Connection, account *domain.AdAccount, level domain.EntityType, dr domain.DateRange, window string) ([]json.RawMessage, error)

	DecodeAccount(raw json.RawMessage) (*domain.AdAccount, error)
	DecodeCampaign(raw json.RawMessage) (*domain.Campaign, error)
	DecodeAdGroup(raw json.RawMessage) (*domain.AdGroup, error)
	DecodeAd(raw json.RawMessage) (*domain.Ad, error)
	DecodeInsight(raw json.RawMessage) (*domain.RawInsight, error)

	// RefreshToken devolve nil quando a conexão não precisa de renovação
	RefreshToken(ctx context.Context, conn *domain.Connection) (*Token, error)
}

type Registry struct {
	fetchers map[domain.Provider]Fetcher
}

func NewRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{fetchers: make(map[domain.Provider]Fetcher, len(fetchers))}
	for _, f := range fetchers {
		r.fetchers[f.Provider()] = f
	}
	return r
}

func (r *Registry) Get(provider domain.Provider) (Fetcher, error) {
	f, ok := r.fetchers[provider]
	if !ok {
		return nil, domain.NewValidationError("integrator", fmt.Errorf("provedor não suportado: %s", provider))
	}
	return f, nil
}
