package metaclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	metadomain "github.com/vfg2006/ads-sync-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

// espera padrão quando o Meta limita sem dizer por quanto tempo
const defaultRateLimitWait = time.Minute

// ClassifyError converte uma resposta de erro do Graph API em *domain.SyncError
func ClassifyError(status int, retryAfter string, body []byte, op string) error {
	var errorResp metadomain.ErrorResponse
	parsed := codec.Unmarshal(body, &errorResp) == nil && errorResp.Error.Code != 0

	se := &domain.SyncError{Op: op, Provider: domain.ProviderMeta}
	if parsed {
		se.Code = errorResp.Error.Code
		se.Subcode = errorResp.Error.ErrorSubcode
		se.Err = errors.New(errorResp.Error.Message)
	} else {
		se.Err = fmt.Errorf("status %d: %s", status, truncate(body, 300))
	}

	switch {
	case parsed && errorResp.IsTokenExpired(), !parsed && metadomain.ContainsTokenExpirationMessage(string(body)):
		se.Kind = domain.KindAuthExpired
	case status == http.StatusTooManyRequests, parsed && errorResp.IsRateLimited():
		se.Kind = domain.KindRateLimited
		se.RetryAfter = parseRetryAfter(retryAfter)
	case status >= 500, parsed && errorResp.IsTransient():
		se.Kind = domain.KindTransient
	default:
		se.Kind = domain.KindUnknown
	}

	return se
}

func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultRateLimitWait
}

func withProvider(se *domain.SyncError) *domain.SyncError {
	se.Provider = domain.ProviderMeta
	return se
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
