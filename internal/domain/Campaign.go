package domain

import "time"

type EntityStatus string

const (
	EntityStatusActive   EntityStatus = "active"
	EntityStatusPaused   EntityStatus = "paused"
	EntityStatusArchived EntityStatus = "archived"
	EntityStatusDeleted  EntityStatus = "deleted"
	EntityStatusRemoved  EntityStatus = "removed"
	EntityStatusUnknown  EntityStatus = "unknown"
)

// Budget guarda o valor já normalizado para a moeda de relatório.
// O valor original fica em metadata (original_budget, original_currency).
type Budget struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Period   string  `json:"period,omitempty"` // daily | lifetime
}

type Campaign struct {
	ID                string       `json:"id"`
	AdAccountID       string       `json:"ad_account_id"`
	AccountExternalID string       `json:"account_external_id"`
	Provider          Provider     `json:"provider"`
	ExternalID        string       `json:"external_id"`
	Name              string       `json:"name"`
	Status            EntityStatus `json:"status"`
	Objective         string       `json:"objective"`
	Channel           Channel      `json:"channel"`
	Budget            *Budget      `json:"budget,omitempty"`
	Metadata          JSONMap      `json:"metadata"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (c *Campaign) Ref() EntityRef {
	return EntityRef{
		AccountID:  c.AdAccountID,
		Provider:   c.Provider,
		Type:       EntityTypeCampaign,
		ID:         c.ID,
		ExternalID: c.ExternalID,
	}
}

func (c *Campaign) TrackedFields() []TrackedField {
	return []TrackedField{
		{Name: "name", Value: c.Name},
		{Name: "status", Value: string(c.Status)},
		{Name: "objective", Value: c.Objective},
		{Name: "channel", Value: string(c.Channel)},
		{Name: "budget", Value: budgetAmount(c.Budget)},
		{Name: "metadata", Value: c.Metadata, Deep: true},
	}
}

func budgetAmount(b *Budget) any {
	if b == nil {
		return nil
	}
	return b.Amount
}
