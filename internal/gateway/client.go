package gateway

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

	"github.com/five82/cueweb/internal/notify"
)

// Result is the normalized outcome of one gateway call. Exactly one of Data
// and Error is set. Failures always carry Status 500.
type Result struct {
	Status int
	Data   json.RawMessage
	Error  string
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Error == ""
}

// Caller forwards a JSON body to a gateway endpoint.
type Caller interface {
	Call(ctx context.Context, endpoint, method string, body []byte) Result
}

var _ Caller = (*Client)(nil)

// Options configure a Client.
type Options struct {
	BaseURL  string
	Secret   []byte
	Subject  string
	Role     string
	TTL      time.Duration
	Notifier *notify.Notifier

	HTTPClient *http.Client
	Now        func() time.Time
}

// Client talks to the REST gateway in front of the job service.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	secret    []byte
	subject   string
	role      string
	ttl       time.Duration
	now       func() time.Time
	notifier  *notify.Notifier
}

const (
	defaultUserAgent = "cueweb/0.1"
	defaultSubject   = "cueweb"
	defaultRole      = "admin"
	defaultTTL       = time.Hour
	requestTimeout   = 30 * time.Second

	// RequestIDHeader correlates a gateway call with server logs.
	RequestIDHeader = "X-Request-Id"
)

// Prefixes of translated gateway failures in Result.Error.
const (
	PrefixUnauthorized = "Unauthorized request: "
	PrefixNotFound     = "Resource not found: "
	PrefixUnexpected   = "Unexpected API error: "
)

// NewClient builds a Client for opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if len(opts.Secret) == 0 {
		return nil, fmt.Errorf("gateway secret is empty")
	}
	c := &Client{
		baseURL:   base,
		http:      opts.HTTPClient,
		userAgent: defaultUserAgent,
		secret:    opts.Secret,
		subject:   opts.Subject,
		role:      opts.Role,
		ttl:       opts.TTL,
		now:       opts.Now,
		notifier:  opts.Notifier,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: requestTimeout}
	}
	if c.subject == "" {
		c.subject = defaultSubject
	}
	if c.role == "" {
		c.role = defaultRole
	}
	if c.ttl <= 0 {
		c.ttl = defaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// Call mints a fresh token and forwards body verbatim to endpoint.
func (c *Client) Call(ctx context.Context, endpoint, method string, body []byte) Result {
	if c == nil {
		return Result{Status: http.StatusInternalServerError, Error: "client is nil"}
	}
	requestID := uuid.New().String()

	token, err := CreateToken(NewTokenClaims(c.subject, c.role, c.now(), c.ttl), c.secret)
	if err != nil {
		return c.fail(requestID, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpointURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return c.fail(requestID, fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(requestID, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(requestID, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(requestID, translateStatus(resp.StatusCode, payload))
	}
	if !json.Valid(payload) {
		return c.fail(requestID, PrefixUnexpected + "invalid JSON response: " + string(payload))
	}
	return Result{Status: resp.StatusCode, Data: payload}
}

// translateStatus maps a non-2xx gateway status to its user-facing message.
func translateStatus(status int, body []byte) string {
	switch status {
	case http.StatusUnauthorized:
		return PrefixUnauthorized + string(body)
	case http.StatusNotFound:
		return PrefixNotFound + string(body)
	default:
		return PrefixUnexpected + string(body)
	}
}

func (c *Client) fail(requestID, message string) Result {
	c.notifier.HandleError(fmt.Errorf("gateway request %s: %s", requestID, message), "")
	return Result{Status: http.StatusInternalServerError, Error: message}
}

func (c *Client) endpointURL(endpoint string) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	return u.String()
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("gateway url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url %q: %w", raw, err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
