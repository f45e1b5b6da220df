package domain

import "fmt"

type ActionType string

const (
	ActionPause           ActionType = "pause"
	ActionBudgetIncrease  ActionType = "budget_increase"
	ActionBudgetDecrease  ActionType = "budget_decrease"
	ActionCreativeRefresh ActionType = "creative_refresh"
	ActionAudienceReview  ActionType = "audience_review"
)

type Aggregate string

const (
	AggregateLatest Aggregate = "latest"
	AggregateAvg7   Aggregate = "avg7"
	AggregateAvg14  Aggregate = "avg14"
	AggregateAvg30  Aggregate = "avg30"
	AggregateTrend  Aggregate = "trend"
)

type Condition struct {
	Metric    string    `json:"metric" yaml:"metric"`
	Aggregate Aggregate `json:"aggregate" yaml:"aggregate"`
	Operator  string    `json:"operator" yaml:"operator"`
	Value     float64   `json:"value" yaml:"value"`
}

// Key devolve o nome do token de template, ex.: "ctr_avg7"
func (c Condition) Key() string {
	return AggregateKey(c.Metric, c.Aggregate)
}

func AggregateKey(metric string, agg Aggregate) string {
	if agg == "" || agg == AggregateLatest {
		return metric
	}
	return fmt.Sprintf("%s_%s", metric, agg)
}

type PlaybookAction struct {
	Type          ActionType `json:"type" yaml:"type"`
	ChangePercent float64    `json:"change_percent,omitempty" yaml:"change_percent"`
	Title         string     `json:"title,omitempty" yaml:"title"`
}

type Playbook struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Providers   []Provider       `json:"providers" yaml:"providers"`
	Levels      []EntityType     `json:"levels" yaml:"levels"`
	Conditions  []Condition      `json:"conditions" yaml:"conditions"`
	Actions     []PlaybookAction `json:"actions" yaml:"actions"`
	Explanation string           `json:"explanation" yaml:"explanation"`
	Priority    int              `json:"priority" yaml:"priority"`
	Enabled     bool             `json:"enabled" yaml:"enabled"`
}

// AppliesTo verifica o filtro de provedor e nível; listas vazias aceitam tudo
func (p *Playbook) AppliesTo(provider Provider, level EntityType) bool {
	if len(p.Providers) > 0 && !contains(p.Providers, provider) {
		return false
	}
	if len(p.Levels) > 0 && !contains(p.Levels, level) {
		return false
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
