package googleclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"golang.org/x/oauth2"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

const maxPages = 10000

// LoginCustomerIDSetting é a chave em Connection.Settings para a conta gerenciadora (MCC)
const LoginCustomerIDSetting = "login_customer_id"

type Client interface {
	Search(ctx context.Context, conn *domain.Connection, customerID, query, pageToken string) (*integrator.Page, error)
	SearchAll(ctx context.Context, conn *domain.Connection, customerID, query string) ([]json.RawMessage, error)
	ListAccessibleCustomers(ctx context.Context, conn *domain.Connection) ([]string, error)
	Token(ctx context.Context, conn *domain.Connection) (*oauth2.Token, error)
}

type GoogleClient struct {
	url            string
	developerToken string
	oauth          *oauth2.Config
	http           *http.Client
	guard          *integrator.Guard
}

func NewClient(cfg config.Google, limiter integrator.RequestLimiter) *GoogleClient {
	return NewClientWithGuard(cfg, integrator.NewGuard(domain.ProviderGoogle, limiter, integrator.DefaultGuardOptions()))
}

func NewClientWithGuard(cfg config.Google, guard *integrator.Guard) *GoogleClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleClient{
		url:            fmt.Sprintf("%s/%s", strings.TrimRight(cfg.BaseURL, "/"), cfg.Version),
		developerToken: cfg.DeveloperToken,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		},
		http:  &http.Client{Timeout: timeout},
		guard: guard,
	}
}

// Token devolve um access token válido, renovando pelo refresh token quando vencido
func (c *GoogleClient) Token(ctx context.Context, conn *domain.Connection) (*oauth2.Token, error) {
	current := &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
	}
	if conn.TokenExpiresAt != nil {
		current.Expiry = *conn.TokenExpiresAt
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := c.oauth.TokenSource(ctx, current).Token()
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return tok, nil
}

type searchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchResponse struct {
	Results       []json.RawMessage `json:"results"`
	NextPageToken string            `json:"nextPageToken"`
}

func (c *GoogleClient) Search(ctx context.Context, conn *domain.Connection, customerID, query, pageToken string) (*integrator.Page, error) {
	payload, err := codec.Marshal(searchRequest{Query: query, PageToken: pageToken})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/customers/%s/googleAds:search", c.url, customerID)
	body, err := c.guard.Do(ctx, customerID, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, conn, http.MethodPost, endpoint, payload, "google.search")
	})
	if err != nil {
		return nil, err
	}

	var response searchResponse
	if err := codec.Unmarshal(body, &response); err != nil {
		return nil, domain.NewValidationError("google.search", fmt.Errorf("erro ao decodificar página: %w", err))
	}

	return &integrator.Page{Items: response.Results, NextCursor: response.NextPageToken}, nil
}

func (c *GoogleClient) SearchAll(ctx context.Context, conn *domain.Connection, customerID, query string) ([]json.RawMessage, error) {
	items := make([]json.RawMessage, 0)
	token := ""
	seen := map[string]bool{}

	for i := 0; i < maxPages; i++ {
		page, err := c.Search(ctx, conn, customerID, query, token)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		if page.NextCursor == "" || seen[page.NextCursor] {
			break
		}
		seen[page.NextCursor] = true
		token = page.NextCursor
	}

	logrus.WithFields(logrus.Fields{
		"customer_id": customerID,
		"items":       len(items),
	}).Debug("google: paginação concluída")

	return items, nil
}

type accessibleCustomersResponse struct {
	ResourceNames []string `json:"resourceNames"`
}

// ListAccessibleCustomers devolve os ids das contas (sem o prefixo "customers/")
func (c *GoogleClient) ListAccessibleCustomers(ctx context.Context, conn *domain.Connection) ([]string, error) {
	endpoint := c.url + "/customers:listAccessibleCustomers"
	body, err := c.guard.Do(ctx, "conn:"+conn.ID, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, conn, http.MethodGet, endpoint, nil, "google.customers")
	})
	if err != nil {
		return nil, err
	}

	var response accessibleCustomersResponse
	if err := codec.Unmarshal(body, &response); err != nil {
		return nil, domain.NewValidationError("google.customers", err)
	}

	ids := make([]string, 0, len(response.ResourceNames))
	for _, name := range response.ResourceNames {
		ids = append(ids, strings.TrimPrefix(name, "customers/"))
	}
	return ids, nil
}

func (c *GoogleClient) do(ctx context.Context, conn *domain.Connection, method, endpoint string, payload []byte, op string) ([]byte, error) {
	tok, err := c.Token(ctx, conn)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar a requisição: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("developer-token", c.developerToken)
	req.Header.Set("Content-Type", "application/json")
	if login := conn.Settings[LoginCustomerIDSetting]; login != "" {
		req.Header.Set("login-customer-id", login)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newError(domain.KindTransient, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(domain.KindTransient, op, fmt.Errorf("erro ao ler resposta: %w", err))
	}
	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	return nil, ClassifyError(resp.StatusCode, resp.Header.Get("Retry-After"), body, op)
}

func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorCode == "invalid_grant" || re.ErrorCode == "unauthorized_client" {
			return newError(domain.KindAuthExpired, "google.oauth", err)
		}
		if re.Response != nil && re.Response.StatusCode >= 500 {
			return newError(domain.KindTransient, "google.oauth", err)
		}
		return newError(domain.KindUnknown, "google.oauth", err)
	}
	return newError(domain.KindTransient, "google.oauth", err)
}
