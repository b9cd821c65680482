// Package client talks to the Cipher backend over HTTP. Client implements the
// pipeline Transport and the conversation Persistence interfaces.
package client

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

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/logging"
	"github.com/0fflineDocs/Cipher/internal/pipeline"
	"github.com/0fflineDocs/Cipher/internal/selection"
)

const (
	// DefaultBaseURL is where the backend listens by default.
	DefaultBaseURL = "http://localhost:8001"

	// defaultTimeout bounds plain requests. Streams are bounded only by ctx.
	defaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is kept.
	maxErrorBody = 4096
)

var (
	_ pipeline.Transport   = (*Client)(nil)
	_ pipeline.Persistence = (*Client)(nil)
)

// Client is a Cipher backend client.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	stream  *http.Client
	timeout time.Duration
	logger  *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for non-streaming requests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is ignored
// for event streams.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.NewValidationError("invalid base URL").
			WithField("api.base_url").WithValue(baseURL).WithCause(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewValidationError("base URL must be http or https").
			WithField("api.base_url").WithValue(baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		timeout: defaultTimeout,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// The stream client shares the transport but never times out on its own.
	c.stream = &http.Client{Transport: c.http.Transport}
	if c.http.Timeout == 0 {
		c.http = &http.Client{Transport: c.http.Transport, Timeout: c.timeout}
	}
	return c, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.Join(escapeAll(segments), "/")
	return u.String()
}

func escapeAll(segments []string) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = url.PathEscape(s)
	}
	return out
}

// do sends a JSON request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("backend request",
		"method", method,
		"url", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.apiError(method, req.URL.Path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) apiError(method, path string, resp *http.Response) *errors.APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return errors.NewAPIError(method, path, resp.StatusCode, detail(body))
}

// detail extracts the backend's {"detail": ...} message when present.
func detail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return string(body)
}

// Ping checks that the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	var status struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(), nil, &status); err != nil {
		return err
	}
	if status.Status != "ok" {
		return fmt.Errorf("backend reported status %q", status.Status)
	}
	return nil
}

// ListConversations returns the conversation summaries, newest first.
func (c *Client) ListConversations(ctx context.Context) ([]conversation.Summary, error) {
	var list []conversation.Summary
	if err := c.do(ctx, http.MethodGet, c.endpoint("api", "conversations"), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetConversation fetches one conversation. A missing conversation is a
// NotFoundError.
func (c *Client) GetConversation(ctx context.Context, id string) (*conversation.Conversation, error) {
	var conv conversation.Conversation
	err := c.do(ctx, http.MethodGet, c.endpoint("api", "conversations", id), nil, &conv)
	if err != nil {
		var apiErr *errors.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, errors.NewNotFoundError("conversation", id).WithCause(err)
		}
		return nil, err
	}
	return &conv, nil
}

// CreateConversation asks the backend for a new, empty conversation.
func (c *Client) CreateConversation(ctx context.Context) (*conversation.Conversation, error) {
	var conv conversation.Conversation
	if err := c.do(ctx, http.MethodPost, c.endpoint("api", "conversations"), struct{}{}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// Personas returns the council catalog. Each persona's Category is set from
// the group it was listed under.
func (c *Client) Personas(ctx context.Context) (selection.Catalog, error) {
	var catalog selection.Catalog
	if err := c.do(ctx, http.MethodGet, c.endpoint("api", "personas"), nil, &catalog); err != nil {
		return selection.Catalog{}, err
	}
	for category, list := range catalog.Personas {
		for i := range list {
			if list[i].Category == "" {
				list[i].Category = category
			}
		}
	}
	return catalog, nil
}

// DebatePersonas returns the debaters and moderators.
func (c *Client) DebatePersonas(ctx context.Context) (selection.DebateCatalog, error) {
	var catalog selection.DebateCatalog
	if err := c.do(ctx, http.MethodGet, c.endpoint("api", "debate-personas"), nil, &catalog); err != nil {
		return selection.DebateCatalog{}, err
	}
	return catalog, nil
}
