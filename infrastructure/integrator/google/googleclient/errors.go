package googleclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	googledomain "github.com/vfg2006/ads-sync-api/infrastructure/integrator/google/domain"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

const defaultRateLimitWait = time.Minute

func ClassifyError(status int, retryAfter string, body []byte, op string) error {
	var errorResp googledomain.ErrorResponse
	parsed := codec.Unmarshal(body, &errorResp) == nil && (errorResp.Error.Code != 0 || errorResp.Error.Status != "")

	se := &domain.SyncError{Op: op, Provider: domain.ProviderGoogle, Code: status}
	if parsed {
		se.Err = errors.New(errorResp.Error.Message)
	} else {
		se.Err = fmt.Errorf("status %d", status)
	}

	switch {
	case status == http.StatusUnauthorized, parsed && errorResp.IsAuthError():
		se.Kind = domain.KindAuthExpired
	case status == http.StatusTooManyRequests, parsed && errorResp.IsRateLimited():
		se.Kind = domain.KindRateLimited
		se.RetryAfter = defaultRateLimitWait
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			se.RetryAfter = time.Duration(secs) * time.Second
		}
	case status >= 500, parsed && errorResp.IsTransient():
		se.Kind = domain.KindTransient
	default:
		se.Kind = domain.KindUnknown
	}
	return se
}

func newError(kind domain.ErrorKind, op string, err error) *domain.SyncError {
	se := domain.NewSyncError(kind, op, err)
	se.Provider = domain.ProviderGoogle
	return se
}
