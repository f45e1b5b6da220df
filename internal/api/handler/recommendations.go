package handler

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/apiErrors"
	"github.com/vfg2006/ads-sync-api/pkg/middleware"
)

type RecommendationStore interface {
	ListByAccount(ctx context.Context, accountID string, status *domain.RecommendationStatus, limit uint64) ([]*domain.Recommendation, error)
	UpdateStatus(ctx context.Context, id string, status domain.RecommendationStatus) error
}

type updateRecommendationStatusRequest struct {
	Status string `json:"status"`
}

// ListRecommendations aceita ?status= para filtrar (pending, accepted, rejected, expired)
func ListRecommendations(store RecommendationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := httprouter.ParamsFromContext(r.Context()).ByName("id")

		var status *domain.RecommendationStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := domain.ParseRecommendationStatus(raw)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Status inválido", map[string]any{"status": raw})
				return
			}
			status = &parsed
		}

		limit, err := parseLimit(r)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
			return
		}

		recs, err := store.ListByAccount(r.Context(), accountID, status, limit)
		if err != nil {
			writeServiceError(w, err, "Erro ao listar recomendações")
			return
		}

		writeJSON(w, http.StatusOK, recs)
	}
}

// UpdateRecommendationStatus registra a decisão do operador. Pendente e
// expirada são estados do motor e não podem ser definidos por aqui.
func UpdateRecommendationStatus(store RecommendationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")

		var req updateRecommendationStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Corpo da requisição inválido", nil)
			return
		}
		if req.Status == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingField, "Status é obrigatório", nil)
			return
		}

		status, err := domain.ParseRecommendationStatus(req.Status)
		if err != nil || (status != domain.RecommendationStatusAccepted && status != domain.RecommendationStatusRejected) {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Status deve ser accepted ou rejected", map[string]any{"status": req.Status})
			return
		}

		if err := store.UpdateStatus(r.Context(), id, status); err != nil {
			writeServiceError(w, err, "Erro ao atualizar recomendação")
			return
		}

		fields := logrus.Fields{"recommendation_id": id, "status": status}
		if claims, ok := middleware.OperatorFromContext(r); ok {
			fields["operator_id"] = claims.OperatorID
		}
		logrus.WithFields(fields).Info("Status da recomendação atualizado")

		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(status)})
	}
}
