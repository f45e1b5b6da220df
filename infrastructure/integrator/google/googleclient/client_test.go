package googleclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

func newTestClient(t *testing.T, api http.HandlerFunc, token http.HandlerFunc) *GoogleClient {
	t.Helper()

	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	if token == nil {
		token = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"renovado","token_type":"Bearer","expires_in":3600}`))
		}
	}
	tokenSrv := httptest.NewServer(token)
	t.Cleanup(tokenSrv.Close)

	guard := integrator.NewGuard(domain.ProviderGoogle, nil, integrator.GuardOptions{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		BreakerTimeout:  time.Second,
	})
	return NewClientWithGuard(config.Google{
		BaseURL:        apiSrv.URL,
		Version:        "v18",
		DeveloperToken: "dev-token",
		ClientID:       "client",
		ClientSecret:   "secret",
		TokenURL:       tokenSrv.URL,
	}, guard)
}

func validConn() *domain.Connection {
	expires := time.Now().Add(time.Hour)
	return &domain.Connection{
		ID:             "conn-1",
		AccessToken:    "atual",
		RefreshToken:   "refresh",
		TokenExpiresAt: &expires,
		Settings:       map[string]string{LoginCustomerIDSetting: "999"},
	}
}

func TestSearchAll_FollowsPageTokens(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v18/customers/123/googleAds:search", r.URL.Path)
		assert.Equal(t, "Bearer atual", r.Header.Get("Authorization"))
		assert.Equal(t, "dev-token", r.Header.Get("developer-token"))
		assert.Equal(t, "999", r.Header.Get("login-customer-id"))

		var body searchRequest
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, codec.Unmarshal(data, &body))
		assert.Equal(t, "SELECT campaign.id FROM campaign", body.Query)

		switch body.PageToken {
		case "":
			_, _ = w.Write([]byte(`{"results":[{"campaign":{"id":"1"}},{"campaign":{"id":"2"}}],"nextPageToken":"p2"}`))
		case "p2":
			_, _ = w.Write([]byte(`{"results":[{"campaign":{"id":"3"}}]}`))
		default:
			t.Fatalf("page token inesperado %q", body.PageToken)
		}
	}, nil)

	items, err := client.SearchAll(context.Background(), validConn(), "123", "SELECT campaign.id FROM campaign")
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.JSONEq(t, `{"campaign":{"id":"3"}}`, string(items[2]))
	assert.Equal(t, int32(2), requests.Load())
}

func TestSearch_RefreshesExpiredToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer renovado", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"results":[]}`))
	}, nil)

	conn := validConn()
	past := time.Now().Add(-time.Hour)
	conn.TokenExpiresAt = &past

	page, err := client.Search(context.Background(), conn, "123", "SELECT customer.id FROM customer", "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
}

func TestToken_InvalidGrantIsAuthExpired(t *testing.T) {
	var apiCalls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
	}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
	})

	conn := validConn()
	conn.AccessToken = ""

	_, err := client.Search(context.Background(), conn, "123", "SELECT customer.id FROM customer", "")
	require.Error(t, err)
	assert.Equal(t, domain.KindAuthExpired, domain.KindOf(err))
	assert.Zero(t, apiCalls.Load())
}

func TestSearch_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		header    string
		body      string
		wantKind  domain.ErrorKind
		wantRetry time.Duration
	}{
		{
			name:     "unauthenticated",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"code":401,"message":"Request had invalid authentication credentials.","status":"UNAUTHENTICATED"}}`,
			wantKind: domain.KindAuthExpired,
		},
		{
			name:      "quota com retry-after",
			status:    http.StatusTooManyRequests,
			header:    "30",
			body:      `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			wantKind:  domain.KindRateLimited,
			wantRetry: 30 * time.Second,
		},
		{
			name:      "quota sem retry-after",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`,
			wantKind:  domain.KindRateLimited,
			wantRetry: time.Minute,
		},
		{
			name:     "query inválida",
			status:   http.StatusBadRequest,
			body:     `{"error":{"code":400,"message":"Request contains an invalid argument.","status":"INVALID_ARGUMENT"}}`,
			wantKind: domain.KindUnknown,
		},
		{
			name:     "indisponível",
			status:   http.StatusServiceUnavailable,
			body:     `{"error":{"code":503,"status":"UNAVAILABLE"}}`,
			wantKind: domain.KindTransient,
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

			_, err := client.Search(context.Background(), validConn(), "123", "SELECT customer.id FROM customer", "")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
			if tt.wantRetry > 0 {
				assert.Equal(t, tt.wantRetry, domain.RetryAfter(err))
			}
		})
	}
}

func TestSearch_RetriesTransient(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"customer":{"id":"1"}}]}`))
	}, nil)

	page, err := client.Search(context.Background(), validConn(), "123", "SELECT customer.id FROM customer", "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int32(3), requests.Load())
}

func TestListAccessibleCustomers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v18/customers:listAccessibleCustomers", r.URL.Path)
		_, _ = w.Write([]byte(`{"resourceNames":["customers/123","customers/456"]}`))
	}, nil)

	ids, err := client.ListAccessibleCustomers(context.Background(), validConn())
	require.NoError(t, err)
	assert.Equal(t, []string{"123", "456"}, ids)
}
