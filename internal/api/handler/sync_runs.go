package handler

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/apiErrors"
)

type SyncRunLister interface {
	ListByConnection(ctx context.Context, connectionID string, limit uint64) ([]*domain.SyncRun, error)
}

// ListSyncRuns devolve os resumos de execução de uma conexão, mais recentes primeiro
func ListSyncRuns(runs SyncRunLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connectionID := httprouter.ParamsFromContext(r.Context()).ByName("id")
		if connectionID == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingField, "ID da conexão não especificado", nil)
			return
		}

		limit, err := parseLimit(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		result, err := runs.ListByConnection(r.Context(), connectionID, limit)
		if err != nil {
			writeServiceError(w, err, "Erro ao listar execuções de sincronização")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
