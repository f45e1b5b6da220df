package changetracking

import (
	"context"
	"reflect"
	"time"

	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/metrics"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type Tracker interface {
	// Track compara os campos rastreados e grava as diferenças em q
	Track(ctx context.Context, q postgres.Queryer, ref domain.EntityRef, existing, incoming []domain.TrackedField, syncRunID *string) ([]domain.ChangeRecord, error)
	Record(ctx context.Context, q postgres.Queryer, ref domain.EntityRef, field string, oldValue, newValue any, kind domain.ChangeKind, syncRunID *string) error
	GetEntityChanges(ctx context.Context, entityType domain.EntityType, entityID string, limit uint64) ([]domain.ChangeRecord, error)
	GetRecentChanges(ctx context.Context, accountID string, limit uint64) ([]domain.ChangeRecord, error)
}

type Service struct {
	repo repository.ChangeHistoryRepository
	now  func() time.Time
}

func NewService(repo repository.ChangeHistoryRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Track(ctx context.Context, q postgres.Queryer, ref domain.EntityRef, existing, incoming []domain.TrackedField, syncRunID *string) ([]domain.ChangeRecord, error) {
	changes, err := Diff(ref, existing, incoming)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}

	if err := s.insert(ctx, q, changes, syncRunID); err != nil {
		return nil, err
	}
	return changes, nil
}

func (s *Service) Record(ctx context.Context, q postgres.Queryer, ref domain.EntityRef, field string, oldValue, newValue any, kind domain.ChangeKind, syncRunID *string) error {
	return s.insert(ctx, q, []domain.ChangeRecord{{
		Entity:   ref,
		Kind:     kind,
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
	}}, syncRunID)
}

func (s *Service) insert(ctx context.Context, q postgres.Queryer, changes []domain.ChangeRecord, syncRunID *string) error {
	now := s.now().UTC()
	for i := range changes {
		changes[i].SyncRunID = syncRunID
		changes[i].DetectedAt = now
	}

	if err := s.repo.Insert(ctx, q, changes); err != nil {
		return err
	}

	for _, c := range changes {
		metrics.ChangesRecorded.WithLabelValues(string(c.Entity.Type), string(c.Kind)).Inc()
	}
	return nil
}

func (s *Service) GetEntityChanges(ctx context.Context, entityType domain.EntityType, entityID string, limit uint64) ([]domain.ChangeRecord, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID, clampLimit(limit))
}

func (s *Service) GetRecentChanges(ctx context.Context, accountID string, limit uint64) ([]domain.ChangeRecord, error) {
	return s.repo.ListByAccount(ctx, accountID, clampLimit(limit))
}

func clampLimit(limit uint64) uint64 {
	if limit == 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// Diff devolve as alterações entre o estado gravado e o recebido.
// Sem estado anterior gera um único "created" com o snapshot dos campos escalares.
func Diff(ref domain.EntityRef, existing, incoming []domain.TrackedField) ([]domain.ChangeRecord, error) {
	if existing == nil {
		snapshot := make(map[string]any, len(incoming))
		for _, f := range incoming {
			if f.Deep {
				continue
			}
			snapshot[f.Name] = f.Value
		}
		return []domain.ChangeRecord{{
			Entity:   ref,
			Kind:     domain.ChangeKindCreated,
			NewValue: snapshot,
		}}, nil
	}

	previous := make(map[string]any, len(existing))
	for _, f := range existing {
		previous[f.Name] = f.Value
	}

	var changes []domain.ChangeRecord
	for _, f := range incoming {
		old := previous[f.Name]
		equal, err := sameValue(old, f.Value)
		if err != nil {
			return nil, err
		}
		if equal {
			continue
		}

		kind := domain.ChangeKindUpdated
		if f.Name == "status" {
			kind = domain.ChangeKindStatusChange
		}
		changes = append(changes, domain.ChangeRecord{
			Entity:   ref,
			Kind:     kind,
			Field:    f.Name,
			OldValue: old,
			NewValue: f.Value,
		})
	}
	return changes, nil
}

// sameValue compara pela forma JSON: map vazio e nil são iguais, 10 e 10.0 também
func sameValue(a, b any) (bool, error) {
	na, err := domain.Normalize(a)
	if err != nil {
		return false, err
	}
	nb, err := domain.Normalize(b)
	if err != nil {
		return false, err
	}
	return reflect.DeepEqual(emptyToNil(na), emptyToNil(nb)), nil
}

func emptyToNil(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
	case []any:
		if len(t) == 0 {
			return nil
		}
	}
	return v
}
