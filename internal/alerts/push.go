package alerts

import (
	"context"
	"time"
)

// Broadcaster pushes an event to all live subscribers. Implemented by
// realtime.Hub.
type Broadcaster interface {
	BroadcastSuspiciousIP(ip string, trackedAt time.Time)
}

// PushChannel broadcasts alerts to live WebSocket subscribers. A subscriber
// that cannot accept the message is dropped by the hub, so the broadcast
// itself never fails.
type PushChannel struct {
	hub Broadcaster
}

// NewPushChannel creates the live push alert channel.
func NewPushChannel(hub Broadcaster) *PushChannel {
	return &PushChannel{hub: hub}
}

func (c *PushChannel) Name() string { return "push" }

func (c *PushChannel) Send(ctx context.Context, a Alert) error {
	c.hub.BroadcastSuspiciousIP(a.IP, a.TrackedAt)
	return nil
}
