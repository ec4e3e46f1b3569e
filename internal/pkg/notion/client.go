package notion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yigit/practicelog/internal/pkg/apperrors"
	"github.com/yigit/practicelog/internal/pkg/metrics"
)

var tracer = otel.Tracer("notion.client")

// API is the subset of the provider REST API the application uses
type API interface {
	RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error)
	QueryDatabase(ctx context.Context, databaseID string, query *DatabaseQuery) (*PageList, error)
	ListBlockChildren(ctx context.Context, blockID, startCursor string, pageSize int) (*BlockList, error)
	CreatePage(ctx context.Context, req *CreatePageRequest) (*Page, error)
}

// ClientConfig holds provider client settings
type ClientConfig struct {
	Token                string
	BaseURL              string
	Version              string
	Timeout              time.Duration
	MaxRetries           int
	RetryInitialInterval time.Duration
}

// Client talks to the provider over HTTPS
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a new provider client
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.notion.com"
	}
	if config.Version == "" {
		config.Version = "2022-06-28"
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	if config.RetryInitialInterval <= 0 {
		config.RetryInitialInterval = 500 * time.Millisecond
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// RetrieveDatabase fetches a database and its property schema
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	body, err := c.do(ctx, "retrieve_database", http.MethodGet, "/v1/databases/"+url.PathEscape(databaseID), nil)
	if err != nil {
		return nil, err
	}
	var db Database
	if err := json.Unmarshal(body, &db); err != nil {
		return nil, fmt.Errorf("decode database: %w", err)
	}
	return &db, nil
}

// QueryDatabase runs one page of a database query
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, query *DatabaseQuery) (*PageList, error) {
	if query == nil {
		query = &DatabaseQuery{}
	}
	body, err := c.do(ctx, "query_database", http.MethodPost, "/v1/databases/"+url.PathEscape(databaseID)+"/query", query)
	if err != nil {
		return nil, err
	}
	list, err := decodePageList(body)
	if err != nil {
		return nil, fmt.Errorf("decode query results: %w", err)
	}
	return list, nil
}

// ListBlockChildren lists one page of a block's children
func (c *Client) ListBlockChildren(ctx context.Context, blockID, startCursor string, pageSize int) (*BlockList, error) {
	params := url.Values{}
	if pageSize > 0 {
		params.Set("page_size", strconv.Itoa(pageSize))
	}
	if startCursor != "" {
		params.Set("start_cursor", startCursor)
	}
	path := "/v1/blocks/" + url.PathEscape(blockID) + "/children"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.do(ctx, "list_block_children", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	list, err := decodeBlockList(body)
	if err != nil {
		return nil, fmt.Errorf("decode block children: %w", err)
	}
	return list, nil
}

// CreatePage creates a row in a database
func (c *Client) CreatePage(ctx context.Context, req *CreatePageRequest) (*Page, error) {
	body, err := c.do(ctx, "create_page", http.MethodPost, "/v1/pages", req)
	if err != nil {
		return nil, err
	}
	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode created page: %w", err)
	}
	return &page, nil
}

// do sends a request, retrying rate limits and server errors with exponential backoff
func (c *Client) do(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	if c.config.Token == "" {
		return nil, apperrors.NewConfigurationError("notion token is not configured")
	}

	ctx, span := tracer.Start(ctx, "notion."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", method), attribute.String("notion.path", path)),
	)
	defer span.End()

	var encoded []byte
	if payload != nil {
		var err error
		if encoded, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryInitialInterval
	policy.MaxElapsedTime = 0
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.config.MaxRetries)), ctx)

	attempts := 0
	var body []byte
	err := backoff.Retry(func() error {
		attempts++
		var err error
		body, err = c.send(ctx, op, method, path, encoded)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, retry)

	span.SetAttributes(attribute.Int("notion.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, op, method, path string, encoded []byte) ([]byte, error) {
	var reader io.Reader
	if encoded != nil {
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Notion-Version", c.config.Version)
	req.Header.Set("Accept", "application/json")
	if encoded != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProviderRequest(op, "error", time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.ObserveProviderRequest(op, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		apiErr.Status = resp.StatusCode
		return nil, apiErr
	}
	return body, nil
}
