package syncing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/internal/usecases/changetracking"
	"github.com/vfg2006/ads-sync-api/internal/usecases/currency"
	"github.com/vfg2006/ads-sync-api/pkg/log"
	"github.com/vfg2006/ads-sync-api/pkg/metrics"
)

const Family = "entity-sync"

var errOrphan = errors.New("entidade pai não encontrada")

type Repositories struct {
	Connections repository.ConnectionRepository
	Accounts    repository.AccountRepository
	Campaigns   repository.CampaignRepository
	AdGroups    repository.AdGroupRepository
	Ads         repository.AdRepository
	SyncRuns    repository.SyncRunRepository
}

type Service struct {
	repos     Repositories
	tx        Transactor
	fetchers  *integrator.Registry
	tracker   changetracking.Tracker
	converter currency.Converter
	limiter   JobLimiter
	now       func() time.Time
}

func NewService(
	repos Repositories,
	tx Transactor,
	fetchers *integrator.Registry,
	tracker changetracking.Tracker,
	converter currency.Converter,
	limiter JobLimiter,
) *Service {
	return &Service{
		repos:     repos,
		tx:        tx,
		fetchers:  fetchers,
		tracker:   tracker,
		converter: converter,
		limiter:   limiter,
		now:       time.Now,
	}
}

// SyncConnection reconcilia contas, campanhas, grupos e anúncios de uma conexão.
// O erro devolvido só é não-nulo quando a execução inteira falhou; falhas de
// entidade e de nível ficam registradas no SyncRun.
func (s *Service) SyncConnection(ctx context.Context, connectionID string) (*domain.SyncRun, error) {
	conn, err := s.repos.Connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, domain.NewSyncError(domain.KindValidation, "sync.connection", fmt.Errorf("%w: %s", domain.ErrConnectionNotFound, connectionID))
	}

	fetcher, err := s.fetchers.Get(conn.Provider)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		permit, err := s.limiter.AcquireJob(ctx, conn.Provider)
		if err != nil {
			return nil, err
		}
		defer permit.Release()
	}

	run := domain.NewSyncRun(uuid.NewString(), conn.ID, Family, s.now().UTC())
	ctx = log.WithSyncRun(ctx, run.ID)
	logger := log.ForContext(ctx).WithFields(log.Fields{
		"connection_id": conn.ID,
		"provider":      conn.Provider,
	})
	logger.Info("Iniciando sincronização de entidades")

	fatal := s.syncConnection(ctx, conn, fetcher, run)
	s.finish(ctx, conn, run, fatal)

	logger.WithFields(log.Fields{
		"status": run.Status,
		"synced": run.Synced(),
		"errors": len(run.Errors),
	}).Info("Sincronização de entidades finalizada")

	if fatal != nil {
		return run, fatal
	}
	return run, nil
}

func (s *Service) syncConnection(ctx context.Context, conn *domain.Connection, fetcher integrator.Fetcher, run *domain.SyncRun) error {
	if !conn.IsUsable() {
		return domain.NewValidationError("sync.connection", fmt.Errorf("conexão %s inativa (status %s)", conn.ID, conn.Status))
	}

	if err := s.refreshToken(ctx, conn, fetcher); err != nil {
		return err
	}

	accounts, err := s.syncAccounts(ctx, conn, fetcher, run)
	if err != nil {
		return err
	}

	for _, account := range accounts {
		if !account.IsSyncable() {
			continue
		}
		if err := s.syncAccountTree(ctx, conn, fetcher, account, run); err != nil {
			// token vencido ou limite do provedor valem para a conexão inteira;
			// o job falha e a fila reagenda respeitando o Retry-After
			switch domain.KindOf(err) {
			case domain.KindAuthExpired, domain.KindRateLimited:
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	return nil
}

func (s *Service) refreshToken(ctx context.Context, conn *domain.Connection, fetcher integrator.Fetcher) error {
	tok, err := fetcher.RefreshToken(ctx, conn)
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}

	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = conn.RefreshToken
	}
	if err := s.repos.Connections.UpdateTokens(ctx, conn.ID, tok.AccessToken, refresh, tok.ExpiresAt); err != nil {
		return err
	}

	conn.AccessToken = tok.AccessToken
	conn.RefreshToken = refresh
	conn.TokenExpiresAt = tok.ExpiresAt
	return nil
}

func (s *Service) finish(ctx context.Context, conn *domain.Connection, run *domain.SyncRun, fatal error) {
	now := s.now().UTC()
	run.Finish(now, fatal)
	metrics.SyncRuns.WithLabelValues(run.Family, string(run.Status)).Inc()

	// o resumo é gravado mesmo com o ctx do job cancelado
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	logger := log.ForContext(ctx).WithField("connection_id", conn.ID)

	if err := s.repos.SyncRuns.Save(saveCtx, run); err != nil {
		logger.WithError(err).Error("Erro ao gravar resumo da sincronização")
	}

	if fatal != nil && domain.KindOf(fatal) == domain.KindAuthExpired {
		if err := s.repos.Connections.MarkExpired(saveCtx, conn.ID, fatal.Error()); err != nil {
			logger.WithError(err).Error("Erro ao marcar conexão como expirada")
		}
		return
	}

	var lastError *string
	if fatal != nil {
		msg := fatal.Error()
		lastError = &msg
	}
	if err := s.repos.Connections.UpdateSyncStatus(saveCtx, conn.ID, now, lastError); err != nil {
		logger.WithError(err).Error("Erro ao atualizar status de sincronização da conexão")
	}
}

// persist grava a entidade e suas alterações na mesma transação
func (s *Service) persist(ctx context.Context, run *domain.SyncRun, existing []domain.TrackedField, upsert func(q *sql.Tx) error, current func() (domain.EntityRef, []domain.TrackedField)) error {
	return s.tx.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if err := upsert(tx); err != nil {
			return err
		}
		ref, incoming := current()
		_, err := s.tracker.Track(ctx, tx, ref, existing, incoming, &run.ID)
		return err
	})
}

// entityFailed registra a falha isolada de uma entidade; os irmãos seguem
func (s *Service) entityFailed(ctx context.Context, run *domain.SyncRun, provider domain.Provider, t domain.EntityType, externalID string, err error) {
	kind := domain.KindOf(err)
	run.AddError(kind, t, externalID, err)
	metrics.EntityErrors.WithLabelValues(string(provider), string(t), string(kind)).Inc()

	log.ForContext(ctx).WithError(err).WithFields(log.Fields{
		"entity_type": t,
		"external_id": externalID,
	}).Warn("Falha ao sincronizar entidade")
}

func (s *Service) synced(run *domain.SyncRun, provider domain.Provider, t domain.EntityType) {
	run.Count(t)
	metrics.EntitiesSynced.WithLabelValues(string(provider), string(t)).Inc()
}
