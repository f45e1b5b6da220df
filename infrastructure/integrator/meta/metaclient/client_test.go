package metaclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	"github.com/vfg2006/ads-sync-api/infrastructure/ratelimit"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

type fakeLimiter struct {
	calls atomic.Int32
	err   error
}

func (f *fakeLimiter) Acquire(ctx context.Context, provider domain.Provider, accountID string) (*ratelimit.Permit, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &ratelimit.Permit{}, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, limiter integrator.RequestLimiter) *MetaClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	guard := integrator.NewGuard(domain.ProviderMeta, limiter, integrator.GuardOptions{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		BreakerTimeout:  time.Second,
	})
	return NewClientWithGuard(config.Meta{URL: srv.URL + "/v22.0", PageSize: 2, AppID: "app", AppSecret: "secret"}, guard)
}

func TestFetchAll_FollowsCursors(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/v22.0/act_1/campaigns", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		switch r.URL.Query().Get("after") {
		case "":
			_, _ = w.Write([]byte(`{"data":[{"id":"1"},{"id":"2"}],"paging":{"cursors":{"after":"c1"},"next":"https://next"}}`))
		case "c1":
			_, _ = w.Write([]byte(`{"data":[{"id":"3"}],"paging":{"cursors":{"after":"c2"}}}`))
		default:
			t.Fatalf("cursor inesperado %q", r.URL.Query().Get("after"))
		}
	}, nil)

	items, err := client.FetchAll(context.Background(), "tok", "1", "act_1/campaigns", url.Values{"fields": {"id"}})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.JSONEq(t, `{"id":"3"}`, string(items[2]))
	assert.Equal(t, int32(2), requests.Load())
}

func TestFetchPage_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		header     string
		body       string
		wantKind   domain.ErrorKind
		wantRetry  time.Duration
		wantTarget error
	}{
		{
			name:       "código 190 é token expirado",
			status:     http.StatusBadRequest,
			body:       `{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`,
			wantKind:   domain.KindAuthExpired,
			wantTarget: domain.ErrAuthExpired,
		},
		{
			name:     "subcódigo OAuth 463",
			status:   http.StatusBadRequest,
			body:     `{"error":{"message":"x","type":"OAuthException","code":102,"error_subcode":463}}`,
			wantKind: domain.KindAuthExpired,
		},
		{
			name:     "mensagem de sessão expirada sem JSON",
			status:   http.StatusBadRequest,
			body:     `Session has expired on Tuesday`,
			wantKind: domain.KindAuthExpired,
		},
		{
			name:       "código 17 é limite de requisições",
			status:     http.StatusBadRequest,
			body:       `{"error":{"message":"User request limit reached","code":17}}`,
			wantKind:   domain.KindRateLimited,
			wantRetry:  time.Minute,
			wantTarget: domain.ErrRateLimited,
		},
		{
			name:      "HTTP 429 com Retry-After",
			status:    http.StatusTooManyRequests,
			header:    "30",
			body:      `{}`,
			wantKind:  domain.KindRateLimited,
			wantRetry: 30 * time.Second,
		},
		{
			name:     "código 80004 de limite de negócio",
			status:   http.StatusBadRequest,
			body:     `{"error":{"message":"too many calls","code":80004}}`,
			wantKind: domain.KindRateLimited,
		},
		{
			name:       "200 com envelope de erro 190",
			status:     http.StatusOK,
			body:       `{"error":{"message":"x","type":"OAuthException","code":190,"error_subcode":463}}`,
			wantKind:   domain.KindAuthExpired,
			wantTarget: domain.ErrAuthExpired,
		},
		{
			name:      "200 com envelope de limite",
			status:    http.StatusOK,
			body:      `{"error":{"message":"Application request limit reached","code":4}}`,
			wantKind:  domain.KindRateLimited,
			wantRetry: time.Minute,
		},
		{
			name:     "outro código é desconhecido",
			status:   http.StatusBadRequest,
			body:     `{"error":{"message":"Invalid parameter","code":100}}`,
			wantKind: domain.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("Retry-After", tt.header)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			_, err := client.FetchPage(context.Background(), "tok", "1", "act_1/ads", nil, "")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
			assert.Equal(t, tt.wantRetry, domain.RetryAfter(err))
			if tt.wantTarget != nil {
				assert.ErrorIs(t, err, tt.wantTarget)
			}
		})
	}
}

func TestFetchPage_RetriesTransient(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"1"}],"paging":{}}`))
	}, nil)

	page, err := client.FetchPage(context.Background(), "tok", "1", "act_1/ads", nil, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Empty(t, page.NextCursor)
	assert.Equal(t, int32(3), requests.Load())
}

func TestFetchPage_TransientExhausted(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"An unexpected error has occurred","code":2}}`))
	}, nil)

	_, err := client.FetchPage(context.Background(), "tok", "1", "act_1/ads", nil, "")
	require.Error(t, err)
	assert.Equal(t, domain.KindTransient, domain.KindOf(err))
	assert.Equal(t, int32(3), requests.Load())
}

func TestFetchPage_LimiterGatesRequest(t *testing.T) {
	var requests atomic.Int32
	limiter := &fakeLimiter{err: domain.NewRateLimitedError("ratelimit", 20*time.Second)}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}, limiter)

	_, err := client.FetchPage(context.Background(), "tok", "1", "act_1/ads", nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 20*time.Second, domain.RetryAfter(err))
	assert.Zero(t, requests.Load())
	assert.Equal(t, int32(1), limiter.calls.Load())
}

func TestFetchPage_InvalidJSONIsValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[`))
	}, nil)

	_, err := client.FetchPage(context.Background(), "tok", "1", "act_1/ads", nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExchangeLongLivedToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v22.0/oauth/access_token", r.URL.Path)
		assert.Equal(t, "fb_exchange_token", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "short", r.URL.Query().Get("fb_exchange_token"))
		_, _ = w.Write([]byte(`{"access_token":"long","token_type":"bearer","expires_in":5184000}`))
	}, nil)

	resp, err := client.ExchangeLongLivedToken(context.Background(), "short")
	require.NoError(t, err)
	assert.Equal(t, "long", resp.AccessToken)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(60*24*time.Hour), *resp.ExpiresAt(now))
	assert.Equal(t, "60 dias, 0 horas e 0 minutos", FormatDuration(resp.ExpiresIn))

	_, err = client.ExchangeLongLivedToken(context.Background(), "")
	assert.Error(t, err)
}
