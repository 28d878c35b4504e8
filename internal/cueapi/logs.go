package cueapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// LineQuery selects a range of log lines. Start and End are 1-based and
// inclusive; End zero reads to the end of file and a negative Start reads
// that many trailing lines.
type LineQuery struct {
	Path  string
	Start int
	End   int
}

// GetLines reads lines of a frame log.
func (c *Client) GetLines(ctx context.Context, query LineQuery) ([]string, error) {
	if strings.TrimSpace(query.Path) == "" {
		return nil, fmt.Errorf("log path required")
	}
	values := url.Values{}
	values.Set("path", query.Path)
	if query.Start != 0 {
		values.Set("start", strconv.Itoa(query.Start))
	}
	if query.End != 0 {
		values.Set("end", strconv.Itoa(query.End))
	}
	var payload struct {
		Lines   []string `json:"lines"`
		Message string   `json:"message"`
	}
	if err := c.getJSON(ctx, &url.URL{Path: "/api/getlines", RawQuery: values.Encode()}, &payload, func() string { return payload.Message }); err != nil {
		return nil, err
	}
	return payload.Lines, nil
}

// CountLines returns the line count of a log, or -1 when it does not exist.
func (c *Client) CountLines(ctx context.Context, path string) (int, error) {
	values := url.Values{}
	values.Set("path", path)
	var payload struct {
		Count int    `json:"count"`
		Error string `json:"error"`
	}
	if err := c.getJSON(ctx, &url.URL{Path: "/api/countlines", RawQuery: values.Encode()}, &payload, func() string { return payload.Error }); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

// LogVersions lists a log and its rotated siblings.
func (c *Client) LogVersions(ctx context.Context, filename string) ([]string, error) {
	values := url.Values{}
	values.Set("filename", filename)
	var payload struct {
		Versions []string `json:"versions"`
		Error    string   `json:"error"`
	}
	if err := c.getJSON(ctx, &url.URL{Path: "/api/getlogversions", RawQuery: values.Encode()}, &payload, func() string { return payload.Error }); err != nil {
		return nil, err
	}
	return payload.Versions, nil
}

// RecordVisit bumps the visit counter for username.
func (c *Client) RecordVisit(ctx context.Context, username string) error {
	values := url.Values{}
	values.Set("username", username)
	rel := &url.URL{Path: "/api/increment", RawQuery: values.Encode()}
	resp, err := c.get(ctx, rel, "text/plain")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &RouteError{Path: rel.Path, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return nil
}

func (c *Client) get(ctx context.Context, rel *url.URL, accept string) (*http.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// getJSON decodes a GET response into dest. message reads the route's error
// text from dest after decoding.
func (c *Client) getJSON(ctx context.Context, rel *url.URL, dest any, message func() string) error {
	resp, err := c.get(ctx, rel, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	decodeErr := json.NewDecoder(resp.Body).Decode(dest)
	if resp.StatusCode >= 400 {
		return &RouteError{Path: rel.Path, Status: resp.StatusCode, Message: message()}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}
