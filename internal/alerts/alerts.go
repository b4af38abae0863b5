// Package alerts fans out suspicious-IP notifications to independent
// channels: email, SMS, and live subscriber push.
//
// Delivery is deliberately at-most-one-attempt, best-effort. Each channel
// returns an explicit result that the dispatcher logs and counts; one
// channel's failure never prevents the others from attempting delivery, and
// no channel error ever reaches the tracking caller.
package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mbd888/ipsentry/internal/metrics"
	"github.com/mbd888/ipsentry/internal/traces"
)

// Alert carries the fields needed for a human-readable notification about a
// suspicious IP.
type Alert struct {
	IP         string
	City       string
	Region     string
	Country    string
	VPN        bool
	Tor        bool
	FraudScore int
	BotStatus  bool
	TrackedAt  time.Time
}

// Channel is a single notification transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, a Alert) error
}

// Result is the outcome of one channel's delivery attempt.
type Result struct {
	Channel string
	Err     error
}

// Ok reports whether the delivery attempt succeeded.
func (r Result) Ok() bool { return r.Err == nil }

// Dispatcher fans an alert out to all configured channels.
type Dispatcher struct {
	channels []Channel
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(logger *slog.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, logger: logger}
}

// Notify attempts delivery on every channel concurrently and returns the
// per-channel results. Failures are logged and counted, never escalated or
// retried.
func (d *Dispatcher) Notify(ctx context.Context, a Alert) []Result {
	ctx, span := traces.StartSpan(ctx, "alerts.notify", traces.IP(a.IP))
	defer span.End()

	results := make([]Result, len(d.channels))

	var wg sync.WaitGroup
	for i, ch := range d.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			sendCtx, sendSpan := traces.StartSpan(ctx, "alerts.send", traces.Channel(ch.Name()))
			err := ch.Send(sendCtx, a)
			sendSpan.End()
			results[i] = Result{Channel: ch.Name(), Err: err}

			if err != nil {
				metrics.AlertDeliveriesTotal.WithLabelValues(ch.Name(), "error").Inc()
				d.logger.Error("alert delivery failed",
					"channel", ch.Name(),
					"ip", a.IP,
					"error", err,
				)
			} else {
				metrics.AlertDeliveriesTotal.WithLabelValues(ch.Name(), "ok").Inc()
				d.logger.Info("alert delivered", "channel", ch.Name(), "ip", a.IP)
			}
		}(i, ch)
	}
	wg.Wait()

	return results
}
