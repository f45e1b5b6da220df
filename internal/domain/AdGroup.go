package domain

import "time"

type Targeting struct {
	AgeMin     int      `json:"age_min,omitempty"`
	AgeMax     int      `json:"age_max,omitempty"`
	Genders    []string `json:"genders,omitempty"`
	Countries  []string `json:"countries,omitempty"`
	Regions    []string `json:"regions,omitempty"`
	Cities     []string `json:"cities,omitempty"`
	Interests  []string `json:"interests,omitempty"`
	Platforms  []string `json:"platforms,omitempty"`
	Placements []string `json:"placements,omitempty"`
}

// AdGroup corresponde ao ad set do Meta e ao ad group do Google.
type AdGroup struct {
	ID                 string       `json:"id"`
	AdAccountID        string       `json:"ad_account_id"`
	CampaignID         string       `json:"campaign_id"`
	CampaignExternalID string       `json:"campaign_external_id"`
	Provider           Provider     `json:"provider"`
	ExternalID         string       `json:"external_id"`
	Name               string       `json:"name"`
	Status             EntityStatus `json:"status"`
	Channel            Channel      `json:"channel"`
	Budget             *Budget      `json:"budget,omitempty"`
	Targeting          *Targeting   `json:"targeting,omitempty"`
	Metadata           JSONMap      `json:"metadata"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func (g *AdGroup) Ref() EntityRef {
	return EntityRef{
		AccountID:  g.AdAccountID,
		Provider:   g.Provider,
		Type:       EntityTypeAdGroup,
		ID:         g.ID,
		ExternalID: g.ExternalID,
	}
}

func (g *AdGroup) TrackedFields() []TrackedField {
	return []TrackedField{
		{Name: "name", Value: g.Name},
		{Name: "status", Value: string(g.Status)},
		{Name: "channel", Value: string(g.Channel)},
		{Name: "budget", Value: budgetAmount(g.Budget)},
		{Name: "targeting", Value: g.Targeting, Deep: true},
		{Name: "metadata", Value: g.Metadata, Deep: true},
	}
}
