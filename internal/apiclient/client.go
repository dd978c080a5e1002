// Package apiclient is the network gateway: a resty client for the inventory REST API.
package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rehabinv-cli/internal/model"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// APIError is a non-2xx response or an envelope with success=false.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status=%d", e.Status)
	}
	return fmt.Sprintf("api error: status=%d, message=%s", e.Status, e.Message)
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool { return e.Status == http.StatusNotFound }

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

type Client struct {
	http    *resty.Client
	baseURL string
	log     *zap.Logger
}

// New builds a client for baseURL, e.g. http://localhost:3000/api.
func New(baseURL string, opts ...Option) *Client {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	rc := resty.New()
	rc.
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	c := &Client{http: rc, baseURL: base, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Describe is shown in the TUI header connection indicator.
func (c *Client) Describe() string { return "api " + c.baseURL }

func (c *Client) GetAll(ctx context.Context) ([]model.Item, error) {
	items, err := do[[]model.Item](ctx, c, http.MethodGet, "/inventory", nil)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return []model.Item{}, nil
	}
	return items, nil
}

func (c *Client) AddItem(ctx context.Context, draft model.ItemDraft) (model.Item, error) {
	return do[model.Item](ctx, c, http.MethodPost, "/inventory", draft)
}

func (c *Client) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error) {
	return do[model.Item](ctx, c, http.MethodPut, "/inventory/"+url.PathEscape(id), patch)
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	_, err := do[struct{}](ctx, c, http.MethodDelete, "/inventory/"+url.PathEscape(id), nil)
	return err
}

// UpsertAll sends the bulk update: items with a known id are overwritten,
// the rest are created.
func (c *Client) UpsertAll(ctx context.Context, items []model.Item) ([]model.Item, error) {
	return do[[]model.Item](ctx, c, http.MethodPut, "/inventory/bulk/update", model.BulkUpdateRequest{Items: items})
}

// Clear deletes items one by one; the API has no bulk delete.
func (c *Client) Clear(ctx context.Context) error {
	items, err := c.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := c.DeleteItem(ctx, it.ID); err != nil {
			return err
		}
	}
	return nil
}

// Ping calls GET /healthz on the server root.
func (c *Client) Ping(ctx context.Context) error {
	root := strings.TrimSuffix(c.baseURL, "/api")
	resp, err := c.http.R().SetContext(ctx).Get(root + "/healthz")
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}
	return nil
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T
	env := new(model.Envelope[T])
	req := c.http.R().
		SetContext(ctx).
		SetResult(env).
		SetError(env)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.log.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", resp.Time()))

	if resp.StatusCode() >= http.StatusBadRequest || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return zero, &APIError{Status: resp.StatusCode(), Message: msg, Field: env.Field}
	}
	return env.Data, nil
}
