package domain

import (
	"time"
)

type Provider string

const (
	ProviderMeta   Provider = "meta"
	ProviderGoogle Provider = "google"
)

func (p Provider) IsValid() bool {
	return p == ProviderMeta || p == ProviderGoogle
}

type AdAccountStatus string

const (
	AdAccountStatusActive    AdAccountStatus = "active"
	AdAccountStatusDisabled  AdAccountStatus = "disabled"
	AdAccountStatusUnsettled AdAccountStatus = "unsettled"
	AdAccountStatusPending   AdAccountStatus = "pending"
	AdAccountStatusClosed    AdAccountStatus = "closed"
	AdAccountStatusUnknown   AdAccountStatus = "unknown"
)

// AdAccount nunca é removida, apenas transita de status.
type AdAccount struct {
	ID             string          `json:"id"`
	ConnectionID   string          `json:"connection_id"`
	OrganizationID string          `json:"organization_id"`
	Provider       Provider        `json:"provider"`
	ExternalID     string          `json:"external_id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	Timezone       string          `json:"timezone"`
	Status         AdAccountStatus `json:"status"`
	Metadata       JSONMap         `json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (a *AdAccount) Ref() EntityRef {
	return EntityRef{
		AccountID:  a.ID,
		Provider:   a.Provider,
		Type:       EntityTypeAccount,
		ID:         a.ID,
		ExternalID: a.ExternalID,
	}
}

func (a *AdAccount) TrackedFields() []TrackedField {
	return []TrackedField{
		{Name: "name", Value: a.Name},
		{Name: "status", Value: string(a.Status)},
		{Name: "currency", Value: a.Currency},
		{Name: "timezone", Value: a.Timezone},
		{Name: "metadata", Value: a.Metadata, Deep: true},
	}
}

// IsSyncable indica se a árvore de campanhas da conta deve ser sincronizada
func (a *AdAccount) IsSyncable() bool {
	return a.Status != AdAccountStatusClosed
}
