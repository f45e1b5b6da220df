package handler

import (
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/ads-sync-api/infrastructure/repository"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/apiErrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("Erro ao codificar resposta")
	}
}

// writeServiceError traduz erros de domínio e de repositório em códigos da API
func writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrConnectionNotFound):
		apiErrors.WriteError(w, apiErrors.ErrResourceNotFound, message, err.Error())
	case domain.KindOf(err) == domain.KindValidation:
		apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, message, err.Error())
	default:
		logrus.WithError(err).Error(message)
		apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, message, nil)
	}
}

// parseLimit lê ?limit=, limitado a maxListLimit
func parseLimit(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || limit == 0 {
		return 0, errors.Errorf("limit inválido: %q", raw)
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}
