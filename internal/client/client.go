// Package client talks to the quotedesk REST API. Requests carry the bearer
// access token; a 401 triggers one token refresh and one retry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiPrefix = "/api/v1"

// Client wraps the HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      *Credentials
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for refresh diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New constructs a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, creds *Credentials, opts ...Option) *Client {
	if creds == nil {
		creds = NewCredentials("", "")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + apiPrefix,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		creds:      creds,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	creds.refresher = c.refreshAccess
	return c
}

// Credentials returns the token holder used by the client.
func (c *Client) Credentials() *Credentials {
	return c.creds
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	header      http.Header
	anonymous   bool
}

func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		req.body = body
		req.contentType = "application/json"
	}
	return req, nil
}

// send performs req, refreshing the access token and retrying once on 401.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	resp, err := c.attempt(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || req.anonymous {
		return resp, nil
	}
	drain(resp)
	if err := c.creds.Refresh(ctx); err != nil {
		c.logger.Info("token refresh failed", slog.String("path", req.path), slog.Any("error", err))
		return nil, err
	}
	return c.attempt(ctx, req)
}

func (c *Client) attempt(ctx context.Context, req request) (*http.Response, error) {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	for k, values := range req.header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if access, _ := c.creds.Tokens(); access != "" && !req.anonymous {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, req.method, req.path, err)
	}
	return resp, nil
}

// do sends req and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return decode(resp, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	req, err := jsonRequest(method, path, payload)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

func decode(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func (c *Client) refreshAccess(ctx context.Context, refresh string) (string, error) {
	req, err := jsonRequest(http.MethodPost, "/token/refresh", map[string]string{"refresh": refresh})
	if err != nil {
		return "", err
	}
	req.anonymous = true
	var out struct {
		Access string `json:"access"`
	}
	if err := c.do(ctx, req, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("%w: refresh response without access token", ErrTransport)
	}
	return out.Access, nil
}
