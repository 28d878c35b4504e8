package cueapi

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
)

// Poster sends a JSON body to a dashboard route.
// This interface is implemented by *Client and can be used for testing.
type Poster interface {
	Post(ctx context.Context, path string, body any) (Envelope, error)
}

// Ensure Client implements Poster at compile time.
var _ Poster = (*Client)(nil)

// Envelope is the response shape shared by every route.
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Status  int             `json:"status,omitempty"`
	Error   string          `json:"error,omitempty"`
	Success bool            `json:"success,omitempty"`
}

// RouteError is returned when a route answers with an error envelope.
type RouteError struct {
	Path    string
	Status  int
	Message string
}

func (e *RouteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
	return e.Message
}

// Client talks to the dashboard's API routes.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultUserAgent = "cuemon/0.1"
	requestTimeout   = 30 * time.Second
)

// NewClient builds a Client for the dashboard at publicURL.
func NewClient(publicURL string) (*Client, error) {
	base, err := parseBaseURL(publicURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Post marshals body, posts it to path, and decodes the envelope. An error
// envelope comes back as a *RouteError alongside the decoded envelope.
func (c *Client) Post(ctx context.Context, path string, body any) (Envelope, error) {
	if c == nil {
		return Envelope{}, fmt.Errorf("client is nil")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode request: %w", err)
	}
	var env Envelope
	if err := c.do(ctx, http.MethodPost, path, payload, &env); err != nil {
		return env, err
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, dest *Envelope) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	decodeErr := json.Unmarshal(raw, dest)

	if resp.StatusCode >= 400 || dest.Error != "" {
		return &RouteError{Path: path, Status: resp.StatusCode, Message: dest.Error}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}

func parseBaseURL(publicURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(publicURL)
	if trimmed == "" {
		return nil, fmt.Errorf("public url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse public url %q: %w", publicURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
