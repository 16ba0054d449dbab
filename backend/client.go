package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transitdesk/config"
	"transitdesk/models"
)

// TokenSource supplies the bearer token for protected calls.
type TokenSource interface {
	Token() string
}

// StatusError is a non-2xx reply from the backend.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Client talks to the transport backend's REST API.
type Client struct {
	baseURL         *url.URL
	httpClient      *http.Client
	requestIDHeader string
	tokens          TokenSource
	logger          *zap.Logger
}

// NewClient validates the base URL and builds a client. tokens may be nil
// for unauthenticated use.
func NewClient(cfg config.BackendConfig, tokens TokenSource, logger *zap.Logger) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base url: %q", base)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:         u,
		httpClient:      &http.Client{Timeout: timeout},
		requestIDHeader: cfg.RequestIDHeader,
		tokens:          tokens,
		logger:          logger,
	}, nil
}

// Do sends one request and returns the raw 2xx body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, reqBody any) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("json marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, requestID)
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(path, "error", start)
		c.logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(path, "error", start)
		return nil, fmt.Errorf("http read: %w", err)
	}
	observe(path, resultLabel(resp.StatusCode), start)

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}
	return respBody, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody, out any) error {
	respBody, err := c.Do(ctx, method, path, query, reqBody)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("json unmarshal response: %w", err)
	}
	return nil
}

// List fetches a collection and normalizes its nesting.
func (c *Client) List(ctx context.Context, path string, query url.Values) ([]models.Record, error) {
	body, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return Normalize(body), nil
}

// Get fetches one record by id. A reply with no record yields (nil, nil).
func (c *Client) Get(ctx context.Context, path, id string) (models.Record, error) {
	body, err := c.Do(ctx, http.MethodGet, itemPath(path, id), nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeOne(body), nil
}

func (c *Client) Create(ctx context.Context, path string, payload models.Record) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, payload, nil)
}

func (c *Client) Update(ctx context.Context, path, id string, payload models.Record) error {
	return c.doJSON(ctx, http.MethodPut, itemPath(path, id), nil, payload, nil)
}

func (c *Client) Delete(ctx context.Context, path, id string) error {
	return c.doJSON(ctx, http.MethodDelete, itemPath(path, id), nil, nil, nil)
}

// Post sends body to path and decodes the reply into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, nil, body, out)
}

func itemPath(path, id string) string {
	return strings.TrimRight(path, "/") + "/" + url.PathEscape(id)
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
