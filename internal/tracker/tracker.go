// Package tracker orchestrates the IP risk-scoring pipeline:
// enrichment → feature extraction → classification → response, with
// persistence and alert fan-out deferred off the response path.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mbd888/ipsentry/internal/alerts"
	"github.com/mbd888/ipsentry/internal/classifier"
	"github.com/mbd888/ipsentry/internal/enrich"
	"github.com/mbd888/ipsentry/internal/features"
	"github.com/mbd888/ipsentry/internal/idgen"
	"github.com/mbd888/ipsentry/internal/logging"
	"github.com/mbd888/ipsentry/internal/metrics"
	"github.com/mbd888/ipsentry/internal/records"
	"github.com/mbd888/ipsentry/internal/traces"
	"github.com/mbd888/ipsentry/internal/validation"
)

// ErrInvalidIP indicates the input does not parse as an IP address.
var ErrInvalidIP = errors.New("invalid IP address")

// Enricher fetches geolocation and fraud signals for an IP.
type Enricher interface {
	Enrich(ctx context.Context, ip string) (*enrich.Result, error)
}

// Notifier fans a suspicious-IP alert out to the configured channels.
type Notifier interface {
	Notify(ctx context.Context, a alerts.Alert) []alerts.Result
}

// Result is the response body for a tracked IP: enrichment fields plus the
// verdict. No record ID — the caller is never blocked on storage.
type Result struct {
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

// Service sequences the pipeline. The classifier is immutable after startup;
// the service itself is safe for concurrent use.
type Service struct {
	enricher Enricher
	clf      *classifier.Classifier
	store    records.Store
	notifier Notifier
	logger   *slog.Logger

	deferred sync.WaitGroup
}

// New creates the tracking orchestrator.
func New(enricher Enricher, clf *classifier.Classifier, store records.Store, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		enricher: enricher,
		clf:      clf,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Track runs the scoring pipeline for one IP. The returned result is
// complete when classification finishes; persistence and alerting are
// scheduled as detached work the caller never waits on.
//
// Invalid syntax or a bogon address returns ErrInvalidIP / enrich.ErrBogon
// with no deferred work scheduled. A hard enrichment failure returns
// *enrich.TransportError — enrichment is mandatory, only its content may
// degrade gracefully.
func (s *Service) Track(ctx context.Context, ip string) (*Result, error) {
	ctx, span := traces.StartSpan(ctx, "track", traces.IP(ip))
	defer span.End()

	if !validation.IsValidIP(ip) {
		metrics.TrackFailuresTotal.WithLabelValues("invalid_ip").Inc()
		return nil, ErrInvalidIP
	}
	ip = validation.NormalizeIP(ip)

	enriched, err := s.enricher.Enrich(ctx, ip)
	if err != nil {
		if errors.Is(err, enrich.ErrBogon) {
			metrics.TrackFailuresTotal.WithLabelValues("bogon").Inc()
		} else {
			metrics.TrackFailuresTotal.WithLabelValues("enrichment").Inc()
		}
		return nil, err
	}

	verdict := s.clf.Classify(features.Extract(*enriched))
	span.SetAttributes(traces.Verdict(string(verdict)))
	metrics.TracksTotal.WithLabelValues(string(verdict)).Inc()

	trackedAt := time.Now().UTC()
	rec := &records.IPRecord{
		ID:             idgen.WithPrefix("rec_"),
		IP:             enriched.IP,
		City:           enriched.City,
		Region:         enriched.Region,
		Country:        enriched.Country,
		Org:            enriched.Org,
		VPN:            enriched.VPN,
		Tor:            enriched.Tor,
		FraudScore:     enriched.FraudScore,
		RecentAbuse:    enriched.RecentAbuse,
		BotStatus:      enriched.BotStatus,
		SuspicionLevel: string(verdict),
		TrackedAt:      trackedAt,
	}

	logging.L(ctx).Info("tracked IP",
		"ip", rec.IP,
		"country", rec.Country,
		"fraud_score", rec.FraudScore,
		"verdict", rec.SuspicionLevel,
	)

	// Deferred work runs on a detached context: the request context dies
	// with the response and must not cancel persistence or alerting.
	bg := logging.WithRequestID(context.Background(), logging.RequestID(ctx))
	bg = logging.WithLogger(bg, s.logger)

	s.deferred.Add(1)
	go s.persist(bg, rec)

	if verdict == classifier.VerdictSuspicious {
		s.deferred.Add(1)
		go s.alert(bg, rec)
	}

	return &Result{
		IP:             rec.IP,
		City:           rec.City,
		Region:         rec.Region,
		Country:        rec.Country,
		Org:            rec.Org,
		VPN:            rec.VPN,
		Tor:            rec.Tor,
		FraudScore:     rec.FraudScore,
		RecentAbuse:    rec.RecentAbuse,
		BotStatus:      rec.BotStatus,
		SuspicionLevel: rec.SuspicionLevel,
	}, nil
}

// persist writes the record. Failures are logged and swallowed — the caller
// already has its response; this is an accepted at-most-once durability gap.
func (s *Service) persist(ctx context.Context, rec *records.IPRecord) {
	defer s.deferred.Done()

	ctx, span := traces.StartSpan(ctx, "persist", traces.IP(rec.IP))
	defer span.End()

	if err := s.store.Save(ctx, rec); err != nil {
		metrics.RecordWritesTotal.WithLabelValues("error").Inc()
		logging.L(ctx).Error("failed to persist ip record", "ip", rec.IP, "error", err)
		return
	}
	metrics.RecordWritesTotal.WithLabelValues("ok").Inc()
}

// alert fans out to all channels. Runs concurrently with persist: dispatch
// does not wait for the store write to become durable.
func (s *Service) alert(ctx context.Context, rec *records.IPRecord) {
	defer s.deferred.Done()

	s.notifier.Notify(ctx, alerts.Alert{
		IP:         rec.IP,
		City:       rec.City,
		Region:     rec.Region,
		Country:    rec.Country,
		VPN:        rec.VPN,
		Tor:        rec.Tor,
		FraudScore: rec.FraudScore,
		BotStatus:  rec.BotStatus,
		TrackedAt:  rec.TrackedAt,
	})
}

// Wait blocks until all deferred persistence and alert work has finished.
// Used by graceful shutdown and tests.
func (s *Service) Wait() {
	s.deferred.Wait()
}
