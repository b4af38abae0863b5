package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *IPSentryClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *IPSentryClient) *Handlers {
	return &Handlers{client: client}
}

// HandleTrackIP evaluates one IP and returns the verdict.
func (h *Handlers) HandleTrackIP(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ip := req.GetString("ip", "")
	if ip == "" {
		return mcp.NewToolResultError("ip is required"), nil
	}

	raw, err := h.client.TrackIP(ctx, ip)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to track IP: %v", err)), nil
	}

	text, err := formatTrackResult(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse result: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleListRecords lists tracked IP records.
func (h *Handlers) HandleListRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListRecords(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list records: %v", err)), nil
	}

	text, err := formatRecordList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse records: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetStats returns aggregate verdict counts.
func (h *Handlers) HandleGetStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetStats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get stats: %v", err)), nil
	}

	var stats struct {
		Safe       int `json:"safe"`
		Suspicious int `json:"suspicious"`
		Total      int `json:"total"`
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse stats: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Tracked IPs: %d\nSafe: %d\nSuspicious: %d",
		stats.Total, stats.Safe, stats.Suspicious)), nil
}

// -----------------------------------------------------------------------------
// Formatters
// -----------------------------------------------------------------------------

type trackResult struct {
	IP             string `json:"ip"`
	City           string `json:"city"`
	Region         string `json:"region"`
	Country        string `json:"country"`
	Org            string `json:"org"`
	VPN            bool   `json:"vpn"`
	Tor            bool   `json:"tor"`
	FraudScore     int    `json:"fraud_score"`
	RecentAbuse    bool   `json:"recent_abuse"`
	BotStatus      bool   `json:"bot_status"`
	SuspicionLevel string `json:"suspicion_level"`
}

func formatTrackResult(raw json.RawMessage) (string, error) {
	var r trackResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Verdict: %s\n\n", r.SuspicionLevel)
	fmt.Fprintf(&sb, "IP: %s\n", r.IP)
	fmt.Fprintf(&sb, "Location: %s\n", formatLocation(r.City, r.Region, r.Country))
	if r.Org != "" {
		fmt.Fprintf(&sb, "Org: %s\n", r.Org)
	}
	fmt.Fprintf(&sb, "Fraud score: %d/100\n", r.FraudScore)
	fmt.Fprintf(&sb, "VPN: %s  Tor: %s  Recent abuse: %s  Bot: %s",
		yesNo(r.VPN), yesNo(r.Tor), yesNo(r.RecentAbuse), yesNo(r.BotStatus))

	return sb.String(), nil
}

func formatRecordList(raw json.RawMessage) (string, error) {
	var resp struct {
		Records []struct {
			IP             string    `json:"ip"`
			City           string    `json:"city"`
			Country        string    `json:"country"`
			FraudScore     int       `json:"fraudScore"`
			SuspicionLevel string    `json:"suspicionLevel"`
			TrackedAt      time.Time `json:"trackedAt"`
		} `json:"records"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	if resp.Count == 0 {
		return "No tracked IPs yet.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d tracked IP(s), newest first:\n\n", resp.Count)
	for _, r := range resp.Records {
		fmt.Fprintf(&sb, "- %s  [%s]  fraud %d/100  %s  (%s)\n",
			r.IP, r.SuspicionLevel, r.FraudScore,
			formatLocation(r.City, "", r.Country),
			r.TrackedAt.Format(time.RFC3339))
	}

	return sb.String(), nil
}

func formatLocation(city, region, country string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{city, region, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ", ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
