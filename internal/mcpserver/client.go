package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the IPSentry API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// IPSentryClient is a pure HTTP client for the IPSentry API.
type IPSentryClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewIPSentryClient creates a new client for the IPSentry API.
func NewIPSentryClient(cfg Config) *IPSentryClient {
	return &IPSentryClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error string `json:"error"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *IPSentryClient) doRequest(ctx context.Context, method, path string, query url.Values) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// TrackIP evaluates one IP address.
func (c *IPSentryClient) TrackIP(ctx context.Context, ip string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/track/"+url.PathEscape(ip), nil)
}

// ListRecords returns tracked IP records, newest first.
func (c *IPSentryClient) ListRecords(ctx context.Context, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/records", q)
}

// GetStats returns aggregate verdict counts.
func (c *IPSentryClient) GetStats(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/stats", nil)
}
