package handler

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/apiErrors"
)

// ChangeReader é a parte de leitura do changetracking.Tracker
type ChangeReader interface {
	GetEntityChanges(ctx context.Context, entityType domain.EntityType, entityID string, limit uint64) ([]domain.ChangeRecord, error)
	GetRecentChanges(ctx context.Context, accountID string, limit uint64) ([]domain.ChangeRecord, error)
}

func GetEntityChanges(tracker ChangeReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := httprouter.ParamsFromContext(r.Context())

		entityType, err := domain.ParseEntityType(params.ByName("type"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Tipo de entidade inválido", map[string]any{"type": params.ByName("type")})
			return
		}

		limit, err := parseLimit(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		changes, err := tracker.GetEntityChanges(r.Context(), entityType, params.ByName("id"), limit)
		if err != nil {
			writeServiceError(w, err, "Erro ao buscar histórico da entidade")
			return
		}

		writeJSON(w, http.StatusOK, changes)
	}
}

func GetAccountChanges(tracker ChangeReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := httprouter.ParamsFromContext(r.Context()).ByName("id")

		limit, err := parseLimit(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		changes, err := tracker.GetRecentChanges(r.Context(), accountID, limit)
		if err != nil {
			writeServiceError(w, err, "Erro ao buscar histórico da conta")
			return
		}

		writeJSON(w, http.StatusOK, changes)
	}
}
