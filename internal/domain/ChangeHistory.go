package domain

import (
	"errors"
	"time"
)

type EntityType string

const (
	EntityTypeAccount  EntityType = "account"
	EntityTypeCampaign EntityType = "campaign"
	EntityTypeAdGroup  EntityType = "ad_group"
	EntityTypeAd       EntityType = "ad"
)

// SyncOrder é a ordem obrigatória de processamento dos níveis; cada nível
// depende da linha do pai já persistida
var SyncOrder = []EntityType{EntityTypeAccount, EntityTypeCampaign, EntityTypeAdGroup, EntityTypeAd}

func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityTypeAccount, EntityTypeCampaign, EntityTypeAdGroup, EntityTypeAd:
		return EntityType(s), nil
	case "adset", "ad_set", "adgroup":
		return EntityTypeAdGroup, nil
	}
	return "", errors.New("invalid entity type")
}

type EntityRef struct {
	AccountID  string     `json:"account_id"`
	Provider   Provider   `json:"provider"`
	Type       EntityType `json:"entity_type"`
	ID         string     `json:"entity_id"`
	ExternalID string     `json:"external_id"`
}

type ChangeKind string

const (
	ChangeKindCreated      ChangeKind = "created"
	ChangeKindUpdated      ChangeKind = "updated"
	ChangeKindStatusChange ChangeKind = "status_change"
)

// TrackedField é um campo comparado pelo reconciliador. Deep marca objetos
// aninhados, comparados estruturalmente e registrados inteiros.
type TrackedField struct {
	Name  string
	Value any
	Deep  bool
}

// ChangeRecord é uma linha do log append-only de alterações
type ChangeRecord struct {
	ID         string     `json:"id"`
	Entity     EntityRef  `json:"entity"`
	Kind       ChangeKind `json:"kind"`
	Field      string     `json:"field,omitempty"`
	OldValue   any        `json:"old_value"`
	NewValue   any        `json:"new_value"`
	SyncRunID  *string    `json:"sync_run_id,omitempty"`
	DetectedAt time.Time  `json:"detected_at"`
}
