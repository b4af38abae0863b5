package alerts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSConfig configures the SMS alert channel (Twilio-compatible REST API).
type SMSConfig struct {
	BaseURL    string // e.g. "https://api.twilio.com/2010-04-01"
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// SMSChannel hands alerts to a messaging provider over its REST API.
type SMSChannel struct {
	cfg    SMSConfig
	client *http.Client
}

// NewSMSChannel creates the SMS alert channel.
func NewSMSChannel(cfg SMSConfig) *SMSChannel {
	return &SMSChannel{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *SMSChannel) Name() string { return "sms" }

// Send delivers a single alert SMS. One attempt, no retry.
func (c *SMSChannel) Send(ctx context.Context, a Alert) error {
	form := url.Values{}
	form.Set("From", c.cfg.From)
	form.Set("To", c.cfg.To)
	form.Set("Body", fmt.Sprintf("Suspicious IP Detected: %s (Fraud Score: %d)", a.IP, a.FraudScore))

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.BaseURL, url.PathEscape(c.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms provider returned status %d", resp.StatusCode)
	}
	return nil
}
