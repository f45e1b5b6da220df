package domain

import "time"

type CreativeType string

const (
	CreativeTypeImage    CreativeType = "image"
	CreativeTypeVideo    CreativeType = "video"
	CreativeTypeCarousel CreativeType = "carousel"
	CreativeTypeText     CreativeType = "text"
	CreativeTypeUnknown  CreativeType = "unknown"
)

type CreativeAsset struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
	Hash string `json:"hash,omitempty"`
	Text string `json:"text,omitempty"`
}

type Creative struct {
	ExternalID   string          `json:"external_id,omitempty"`
	Type         CreativeType    `json:"type"`
	Title        string          `json:"title,omitempty"`
	Body         string          `json:"body,omitempty"`
	CallToAction string          `json:"call_to_action,omitempty"`
	LinkURL      string          `json:"link_url,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	VideoID      string          `json:"video_id,omitempty"`
	Assets       []CreativeAsset `json:"assets,omitempty"`
}

type Ad struct {
	ID                string       `json:"id"`
	AdAccountID       string       `json:"ad_account_id"`
	AdGroupID         string       `json:"ad_group_id"`
	AdGroupExternalID string       `json:"ad_group_external_id"`
	Provider          Provider     `json:"provider"`
	ExternalID        string       `json:"external_id"`
	Name              string       `json:"name"`
	Status            EntityStatus `json:"status"`
	Channel           Channel      `json:"channel"`
	Creative          *Creative    `json:"creative,omitempty"`
	Metadata          JSONMap      `json:"metadata"`
	InsightSnapshot   *Metrics     `json:"insight_snapshot,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (a *Ad) Ref() EntityRef {
	return EntityRef{
		AccountID:  a.AdAccountID,
		Provider:   a.Provider,
		Type:       EntityTypeAd,
		ID:         a.ID,
		ExternalID: a.ExternalID,
	}
}

// TrackedFields não inclui o snapshot de insights, que muda a cada sincronização.
func (a *Ad) TrackedFields() []TrackedField {
	return []TrackedField{
		{Name: "name", Value: a.Name},
		{Name: "status", Value: string(a.Status)},
		{Name: "channel", Value: string(a.Channel)},
		{Name: "creative", Value: a.Creative, Deep: true},
		{Name: "metadata", Value: a.Metadata, Deep: true},
	}
}
