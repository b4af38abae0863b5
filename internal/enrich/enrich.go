// Package enrich fetches geolocation and fraud-signal data for an IP address
// from two independent external services.
//
// Enrichment is a pure I/O adapter: it aggregates the two responses into a
// single Result and applies no scoring logic. The two sources fail
// independently; a missing optional field defaults to its zero value rather
// than failing the lookup, because either provider may return partial data.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mbd888/ipsentry/internal/circuitbreaker"
	"github.com/mbd888/ipsentry/internal/metrics"
	"github.com/mbd888/ipsentry/internal/retry"
	"github.com/mbd888/ipsentry/internal/traces"
)

// Source names for metrics and error reporting.
const (
	SourceGeo   = "geo"
	SourceFraud = "fraud"
)

// ErrBogon indicates the geolocation provider flagged the address as
// non-routable/reserved. Treated as invalid input, not a transport failure.
var ErrBogon = errors.New("address is a bogon (non-routable)")

// TransportError indicates an enrichment call failed outright: timeout,
// non-2xx response, or an unparsable body. The pipeline must not proceed to
// scoring when it occurs.
type TransportError struct {
	Source string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("enrichment %s call failed: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Result is the aggregated view of both enrichment sources.
// Absent optional fields are zero-valued, never nil.
type Result struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Org     string `json:"org"`

	FraudScore  int  `json:"fraud_score"` // 0-100
	VPN         bool `json:"vpn"`
	Tor         bool `json:"tor"`
	RecentAbuse bool `json:"recent_abuse"`
	BotStatus   bool `json:"bot_status"`
}

// geoResponse mirrors the geolocation provider's JSON body.
type geoResponse struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Org     string `json:"org"`
	Bogon   bool   `json:"bogon"`
}

// fraudResponse mirrors the fraud-signal provider's JSON body.
type fraudResponse struct {
	FraudScore  int  `json:"fraud_score"`
	VPN         bool `json:"vpn"`
	Tor         bool `json:"tor"`
	RecentAbuse bool `json:"recent_abuse"`
	BotStatus   bool `json:"bot_status"`
}

// Config configures the enrichment client.
type Config struct {
	GeoBaseURL   string // e.g. "https://ipinfo.io"
	FraudBaseURL string // e.g. "https://www.ipqualityscore.com/api/json/ip"
	FraudAPIKey  string
	Timeout      time.Duration
}

// Client fetches enrichment data over HTTP. Safe for concurrent use.
type Client struct {
	cfg     Config
	client  *http.Client
	breaker *circuitbreaker.Breaker
	logger  *slog.Logger
}

const (
	maxAttempts  = 2
	retryBackoff = 200 * time.Millisecond
)

// NewClient creates an enrichment client with a per-source circuit breaker.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New(5, 30*time.Second),
		logger:  logger,
	}
}

// Enrich looks up geolocation first, then fraud signals. A bogon marker on
// the geolocation response returns ErrBogon before the fraud call is made.
func (c *Client) Enrich(ctx context.Context, ip string) (*Result, error) {
	ctx, span := traces.StartSpan(ctx, "enrich", traces.IP(ip))
	defer span.End()

	geo, err := c.fetchGeo(ctx, ip)
	if err != nil {
		return nil, err
	}
	if geo.Bogon {
		return nil, ErrBogon
	}

	fraud, err := c.fetchFraud(ctx, ip)
	if err != nil {
		return nil, err
	}

	res := &Result{
		IP:          geo.IP,
		City:        geo.City,
		Region:      geo.Region,
		Country:     geo.Country,
		Org:         geo.Org,
		FraudScore:  fraud.FraudScore,
		VPN:         fraud.VPN,
		Tor:         fraud.Tor,
		RecentAbuse: fraud.RecentAbuse,
		BotStatus:   fraud.BotStatus,
	}
	if res.IP == "" {
		res.IP = ip
	}
	return res, nil
}

func (c *Client) fetchGeo(ctx context.Context, ip string) (*geoResponse, error) {
	var out geoResponse
	u := fmt.Sprintf("%s/%s/json", c.cfg.GeoBaseURL, url.PathEscape(ip))
	if err := c.get(ctx, SourceGeo, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) fetchFraud(ctx context.Context, ip string) (*fraudResponse, error) {
	var out fraudResponse
	u := fmt.Sprintf("%s/%s?key=%s", c.cfg.FraudBaseURL, url.PathEscape(ip), url.QueryEscape(c.cfg.FraudAPIKey))
	if err := c.get(ctx, SourceFraud, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get issues a GET with bounded retries behind the per-source circuit breaker
// and decodes the JSON body into out. All failure modes surface as *TransportError.
func (c *Client) get(ctx context.Context, source, u string, out any) error {
	ctx, span := traces.StartSpan(ctx, "enrich.fetch", traces.Source(source))
	defer span.End()

	if !c.breaker.Allow(source) {
		metrics.EnrichmentRequestsTotal.WithLabelValues(source, "breaker_open").Inc()
		return &TransportError{Source: source, Err: errors.New("circuit breaker open")}
	}

	timer := observeDuration(source)
	err := retry.Do(ctx, maxAttempts, retryBackoff, func() error {
		return c.doOnce(ctx, u, out)
	})
	timer()

	if err != nil {
		c.breaker.RecordFailure(source)
		metrics.EnrichmentRequestsTotal.WithLabelValues(source, "error").Inc()
		c.logger.Warn("enrichment call failed", "source", source, "error", err)
		return &TransportError{Source: source, Err: err}
	}

	c.breaker.RecordSuccess(source)
	metrics.EnrichmentRequestsTotal.WithLabelValues(source, "ok").Inc()
	return nil
}

func (c *Client) doOnce(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not heal on retry.
			return retry.Permanent(err)
		}
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return retry.Permanent(fmt.Errorf("unparsable body: %w", err))
	}
	return nil
}

func observeDuration(source string) func() {
	start := time.Now()
	return func() {
		metrics.EnrichmentDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}
}
