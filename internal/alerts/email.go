package alerts

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailConfig configures the SMTP alert channel.
type EmailConfig struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	Recipient string
}

// EmailChannel hands alerts to an SMTP relay with STARTTLS auth.
type EmailChannel struct {
	cfg  EmailConfig
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailChannel creates the email alert channel.
func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg, send: smtp.SendMail}
}

func (c *EmailChannel) Name() string { return "email" }

// Send delivers a single alert email. One attempt, no retry.
func (c *EmailChannel) Send(ctx context.Context, a Alert) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.Sender)
	fmt.Fprintf(&b, "To: %s\r\n", c.cfg.Recipient)
	fmt.Fprintf(&b, "Subject: Suspicious IP Detected: %s\r\n", a.IP)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Suspicious IP Alert!\r\n\r\n")
	fmt.Fprintf(&b, "IP Address: %s\r\n", a.IP)
	fmt.Fprintf(&b, "Location: %s, %s, %s\r\n", a.City, a.Region, a.Country)
	fmt.Fprintf(&b, "VPN: %t\r\n", a.VPN)
	fmt.Fprintf(&b, "Tor: %t\r\n", a.Tor)
	fmt.Fprintf(&b, "Fraud Score: %d\r\n", a.FraudScore)
	fmt.Fprintf(&b, "Bot Activity: %t\r\n", a.BotStatus)
	fmt.Fprintf(&b, "Tracked At: %s\r\n", a.TrackedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	auth := smtp.PlainAuth("", c.cfg.Sender, c.cfg.Password, c.cfg.Host)

	if err := c.send(addr, auth, c.cfg.Sender, []string{c.cfg.Recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
