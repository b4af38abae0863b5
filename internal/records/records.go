// Package records persists one immutable record per tracking event and
// answers aggregate queries.
//
// Records are history, not state: an IP tracked twice produces two rows
// differing only in timestamp. There is no update or delete path.
package records

import (
	"context"
	"time"
)

// Suspicion labels as persisted. Must match the classifier verdict strings
// exactly — scoring and storage must never diverge.
const (
	LabelSafe       = "Safe"
	LabelSuspicious = "Suspicious"
)

// IPRecord is one tracked-IP event. Immutable once written.
type IPRecord struct {
	ID             string    `json:"id"`
	IP             string    `json:"ip"`
	City           string    `json:"city"`
	Region         string    `json:"region"`
	Country        string    `json:"country"`
	Org            string    `json:"org"`
	VPN            bool      `json:"vpn"`
	Tor            bool      `json:"tor"`
	FraudScore     int       `json:"fraudScore"`
	RecentAbuse    bool      `json:"recentAbuse"`
	BotStatus      bool      `json:"botStatus"`
	SuspicionLevel string    `json:"suspicionLevel"`
	TrackedAt      time.Time `json:"trackedAt"`
}

// Store persists IP records. Save must be atomic: the full record is written
// or nothing is.
type Store interface {
	Save(ctx context.Context, rec *IPRecord) error
	List(ctx context.Context, limit int) ([]*IPRecord, error)
	CountByLabel(ctx context.Context, label string) (int, error)
}
