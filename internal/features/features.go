// Package features maps enrichment results into the fixed-order numeric
// vector consumed by the classifier.
package features

import "github.com/mbd888/ipsentry/internal/enrich"

// Width is the number of features. Shared with the classifier: artifacts
// trained on a different width must be rejected at load time.
const Width = 5

// Vector is a fixed-order feature vector:
// [fraud_score, vpn, tor, recent_abuse, bot_status].
// The order is part of the model contract — changing it requires re-pairing
// with a retrained scaler and model.
type Vector [Width]float64

// Extract builds a feature vector from an enrichment result. Pure and
// deterministic: zero-valued enrichment fields map to 0/false positions.
func Extract(r enrich.Result) Vector {
	return Vector{
		float64(r.FraudScore),
		boolToFloat(r.VPN),
		boolToFloat(r.Tor),
		boolToFloat(r.RecentAbuse),
		boolToFloat(r.BotStatus),
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
