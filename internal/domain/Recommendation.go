package domain

import (
	"errors"
	"time"
)

type RecommendationStatus string

const (
	RecommendationStatusPending  RecommendationStatus = "pending"
	RecommendationStatusAccepted RecommendationStatus = "accepted"
	RecommendationStatusRejected RecommendationStatus = "rejected"
	RecommendationStatusExpired  RecommendationStatus = "expired"
)

var ErrInvalidRecommendationStatus = errors.New("invalid recommendation status")

func ParseRecommendationStatus(s string) (RecommendationStatus, error) {
	switch RecommendationStatus(s) {
	case RecommendationStatusPending, RecommendationStatusAccepted, RecommendationStatusRejected, RecommendationStatusExpired:
		return RecommendationStatus(s), nil
	}
	return "", ErrInvalidRecommendationStatus
}

// Impact é uma estimativa pontual, não uma garantia
type Impact struct {
	Metric string  `json:"metric"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Delta  float64 `json:"delta"`
	Note   string  `json:"note,omitempty"`
}

type Recommendation struct {
	ID          string               `json:"id"`
	AccountID   string               `json:"account_id"`
	Provider    Provider             `json:"provider"`
	EntityType  EntityType           `json:"entity_type"`
	EntityID    string               `json:"entity_id"`
	PlaybookID  string               `json:"playbook_id"`
	Type        ActionType           `json:"type"`
	Priority    int                  `json:"priority"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Impact      *Impact              `json:"estimated_impact,omitempty"`
	Confidence  float64              `json:"confidence"`
	Status      RecommendationStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}
