package jobs

import (
	"context"
	"fmt"

	"github.com/vfg2006/ads-sync-api/infrastructure/queue"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/internal/usecases/insighting"
	"github.com/vfg2006/ads-sync-api/internal/usecases/recommending"
	"github.com/vfg2006/ads-sync-api/internal/usecases/syncing"
	"github.com/vfg2006/ads-sync-api/pkg/log"
)

// Registrar é satisfeito por *queue.Worker
type Registrar interface {
	Register(jobName string, h queue.Handler)
}

type Handlers struct {
	syncer      syncing.Syncer
	insights    insighting.Aggregator
	recommender recommending.Generator
}

func NewHandlers(syncer syncing.Syncer, insights insighting.Aggregator, recommender recommending.Generator) *Handlers {
	return &Handlers{syncer: syncer, insights: insights, recommender: recommender}
}

func (h *Handlers) RegisterEntitySync(w Registrar) {
	w.Register(JobSyncConnection, h.SyncConnection)
}

func (h *Handlers) RegisterInsightsSync(w Registrar) {
	w.Register(JobSyncInsights, h.SyncInsights)
}

func (h *Handlers) RegisterRecommendations(w Registrar) {
	w.Register(JobGenerateRecommendations, h.GenerateRecommendations)
}

// SyncConnection devolve erro só em falha fatal; execução parcial conclui o job
func (h *Handlers) SyncConnection(ctx context.Context, job *queue.Job) error {
	var p SyncConnectionPayload
	if err := decode(job, &p); err != nil {
		return err
	}
	if p.ConnectionID == "" {
		return domain.NewValidationError(JobSyncConnection, fmt.Errorf("connection_id vazio"))
	}

	run, err := h.syncer.SyncConnection(ctx, p.ConnectionID)
	if err != nil {
		return err
	}
	if run != nil && run.Status == domain.SyncRunStatusPartial {
		log.ForContext(ctx).WithField("errors", len(run.Errors)).Warn("Sincronização concluída com erros parciais")
	}
	return nil
}

func (h *Handlers) SyncInsights(ctx context.Context, job *queue.Job) error {
	var p SyncInsightsPayload
	if err := decode(job, &p); err != nil {
		return err
	}
	dr, err := p.Range()
	if err != nil {
		return domain.NewValidationError(JobSyncInsights, err)
	}
	if p.Window == "" {
		p.Window = domain.WindowDaily
	}

	_, err = h.insights.SyncAccount(ctx, insighting.Request{
		AccountID: p.AccountID,
		Range:     dr,
		Window:    p.Window,
		Levels:    p.Levels,
	})
	return err
}

func (h *Handlers) GenerateRecommendations(ctx context.Context, job *queue.Job) error {
	var p GenerateRecommendationsPayload
	if err := decode(job, &p); err != nil {
		return err
	}
	_, err := h.recommender.GenerateForAccount(ctx, p.AccountID)
	return err
}

func decode(job *queue.Job, v any) error {
	if err := job.Decode(v); err != nil {
		return domain.NewValidationError(job.Name, fmt.Errorf("payload inválido: %w", err))
	}
	return nil
}
