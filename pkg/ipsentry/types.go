// Package ipsentry is the Go client for the IPSentry HTTP API.
package ipsentry

import (
	"fmt"
	"time"
)

// TrackResult is the verdict returned for a tracked IP.
type TrackResult struct {
	IP             string `json:"ip"`
	City           string `json:"city"`
	Region         string `json:"region"`
	Country        string `json:"country"`
	Org            string `json:"org,omitempty"`
	VPN            bool   `json:"vpn"`
	Tor            bool   `json:"tor"`
	FraudScore     int    `json:"fraud_score"`
	RecentAbuse    bool   `json:"recent_abuse"`
	BotStatus      bool   `json:"bot_status"`
	SuspicionLevel string `json:"suspicion_level"`
}

// Suspicious reports whether the verdict flagged the IP.
func (r *TrackResult) Suspicious() bool {
	return r.SuspicionLevel == "Suspicious"
}

// Record is one persisted tracking result.
type Record struct {
	ID             string    `json:"id"`
	IP             string    `json:"ip"`
	City           string    `json:"city"`
	Region         string    `json:"region"`
	Country        string    `json:"country"`
	Org            string    `json:"org,omitempty"`
	VPN            bool      `json:"vpn"`
	Tor            bool      `json:"tor"`
	FraudScore     int       `json:"fraudScore"`
	RecentAbuse    bool      `json:"recentAbuse"`
	BotStatus      bool      `json:"botStatus"`
	SuspicionLevel string    `json:"suspicionLevel"`
	TrackedAt      time.Time `json:"trackedAt"`
}

// Stats holds aggregate verdict counts.
type Stats struct {
	Safe       int `json:"safe"`
	Suspicious int `json:"suspicious"`
	Total      int `json:"total"`
}

// APIError is a structured error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ipsentry: API error (%d): %s", e.StatusCode, e.Message)
}
