package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/vfg2006/ads-sync-api/infrastructure/queue"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

// Filas, cada uma com seu pool de workers
const (
	QueueEntitySync      = "entity-sync"
	QueueInsightsSync    = "insights-sync"
	QueueRecommendations = "recommendations"
)

var Queues = []string{QueueEntitySync, QueueInsightsSync, QueueRecommendations}

const (
	JobSyncConnection          = "sync-connection"
	JobSyncInsights            = "sync-insights"
	JobGenerateRecommendations = "generate-recommendations"
)

// Enqueuer é satisfeito por *queue.Queue
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName, jobName string, payload any, opts queue.JobOptions) (string, bool, error)
	EnqueueBulk(ctx context.Context, queueName string, jobs []queue.BulkJob) (int, error)
}

type SyncConnectionPayload struct {
	ConnectionID string `json:"connection_id"`
}

type SyncInsightsPayload struct {
	AccountID string              `json:"account_id"`
	Since     string              `json:"since"`
	Until     string              `json:"until"`
	Window    string              `json:"window"`
	Levels    []domain.EntityType `json:"levels,omitempty"`
}

func NewSyncInsightsPayload(accountID string, dr domain.DateRange, window string) SyncInsightsPayload {
	return SyncInsightsPayload{
		AccountID: accountID,
		Since:     dr.Since.Format(time.DateOnly),
		Until:     dr.Until.Format(time.DateOnly),
		Window:    window,
	}
}

func (p SyncInsightsPayload) Range() (domain.DateRange, error) {
	since, err := time.Parse(time.DateOnly, p.Since)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("since inválido: %w", err)
	}
	until, err := time.Parse(time.DateOnly, p.Until)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("until inválido: %w", err)
	}
	return domain.NewDateRange(since, until)
}

type GenerateRecommendationsPayload struct {
	AccountID string `json:"account_id"`
}

// Chaves de idempotência: o mesmo job lógico no mesmo período é
// deduplicado pela fila enquanto o job estiver retido
func EntitySyncJobID(connectionID string, at time.Time) string {
	return fmt.Sprintf("entity-sync:%s:%s", connectionID, at.UTC().Format(time.DateOnly))
}

func FullInsightsJobID(accountID string, at time.Time) string {
	return fmt.Sprintf("full-insights:%s:%s", accountID, at.UTC().Format(time.DateOnly))
}

// DeltaInsightsJobID usa o início do slot, ex.: 2025-03-01T1030
func DeltaInsightsJobID(accountID string, at time.Time, slot time.Duration) string {
	if slot <= 0 {
		slot = 30 * time.Minute
	}
	start := at.UTC().Truncate(slot)
	return fmt.Sprintf("delta-insights:%s:%sT%s", accountID, start.Format(time.DateOnly), start.Format("1504"))
}

func RecommendationsJobID(accountID string, at time.Time) string {
	return fmt.Sprintf("recommendations:%s:%s", accountID, at.UTC().Format(time.DateOnly))
}

// ManualJobID recebe um sufixo único para não colidir com o job agendado do dia
func ManualJobID(base string, at time.Time) string {
	return fmt.Sprintf("%s:manual-%d", base, at.UnixNano())
}
