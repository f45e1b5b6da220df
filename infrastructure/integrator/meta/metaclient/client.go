package metaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync-api/infrastructure/integrator"
	metadomain "github.com/vfg2006/ads-sync-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// maxPages evita laço infinito se o provedor repetir cursores
const maxPages = 10000

type Client interface {
	FetchPage(ctx context.Context, accessToken, accountID, path string, params url.Values, cursor string) (*integrator.Page, error)
	FetchAll(ctx context.Context, accessToken, accountID, path string, params url.Values) ([]json.RawMessage, error)
	ExchangeLongLivedToken(ctx context.Context, token string) (*TokenResponse, error)
}

type MetaClient struct {
	url       string
	appID     string
	appSecret string
	pageSize  int
	http      *http.Client
	guard     *integrator.Guard
}

func NewClient(cfg config.Meta, limiter integrator.RequestLimiter) *MetaClient {
	return NewClientWithGuard(cfg, integrator.NewGuard(domain.ProviderMeta, limiter, integrator.DefaultGuardOptions()))
}

func NewClientWithGuard(cfg config.Meta, guard *integrator.Guard) *MetaClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &MetaClient{
		url:       cfg.URL,
		appID:     cfg.AppID,
		appSecret: cfg.AppSecret,
		pageSize:  pageSize,
		http:      &http.Client{Timeout: timeout},
		guard:     guard,
	}
}

type pageResponse struct {
	Data   []json.RawMessage `json:"data"`
	Paging metadomain.Paging `json:"paging"`
}

// FetchPage busca uma página do edge path (ex.: "act_123/campaigns")
func (c *MetaClient) FetchPage(ctx context.Context, accessToken, accountID, path string, params url.Values, cursor string) (*integrator.Page, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if query.Get("limit") == "" {
		query.Set("limit", strconv.Itoa(c.pageSize))
	}
	if cursor != "" {
		query.Set("after", cursor)
	}
	query.Set("access_token", accessToken)

	requestURL := fmt.Sprintf("%s/%s?%s", c.url, path, query.Encode())

	body, err := c.guard.Do(ctx, accountID, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, requestURL, "meta."+path)
	})
	if err != nil {
		return nil, err
	}

	var response pageResponse
	if err := codec.Unmarshal(body, &response); err != nil {
		return nil, domain.NewValidationError("meta."+path, fmt.Errorf("erro ao decodificar página: %w", err))
	}

	page := &integrator.Page{Items: response.Data}
	if response.Paging.Next != "" {
		page.NextCursor = response.Paging.Cursors.After
	}
	return page, nil
}

// FetchAll segue os cursores até a última página
func (c *MetaClient) FetchAll(ctx context.Context, accessToken, accountID, path string, params url.Values) ([]json.RawMessage, error) {
	items := make([]json.RawMessage, 0)
	cursor := ""
	seen := map[string]bool{}

	for i := 0; i < maxPages; i++ {
		page, err := c.FetchPage(ctx, accessToken, accountID, path, params, cursor)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)

		if page.NextCursor == "" || seen[page.NextCursor] {
			break
		}
		seen[page.NextCursor] = true
		cursor = page.NextCursor
	}

	logrus.WithFields(logrus.Fields{
		"path":  path,
		"items": len(items),
	}).Debug("meta: paginação concluída")

	return items, nil
}

func (c *MetaClient) get(ctx context.Context, requestURL, op string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar a requisição: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, withProvider(domain.NewSyncError(domain.KindTransient, op, err))
	}
	defer resp.Body.Close()

	return HandleResponse(resp, op)
}

// HandleResponse devolve o corpo ou o erro classificado. O Graph API às vezes
// responde 2xx com o envelope {"error": ...}, que também é erro.
func HandleResponse(resp *http.Response, op string) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, withProvider(domain.NewSyncError(domain.KindTransient, op, fmt.Errorf("erro ao ler resposta: %w", err)))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ClassifyError(resp.StatusCode, resp.Header.Get("Retry-After"), body, op)
	}

	if hasErrorEnvelope(body) {
		return nil, ClassifyError(resp.StatusCode, resp.Header.Get("Retry-After"), body, op)
	}
	return body, nil
}

func hasErrorEnvelope(body []byte) bool {
	if !bytes.Contains(body, []byte(`"error"`)) {
		return false
	}
	var envelope metadomain.ErrorResponse
	return codec.Unmarshal(body, &envelope) == nil && envelope.Error.Code != 0
}
