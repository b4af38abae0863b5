package tracker

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/ipsentry/internal/alerts"
	"github.com/mbd888/ipsentry/internal/classifier"
	"github.com/mbd888/ipsentry/internal/enrich"
	"github.com/mbd888/ipsentry/internal/logging"
	"github.com/mbd888/ipsentry/internal/records"
)

type fakeEnricher struct {
	result *enrich.Result
	err    error
	calls  atomic.Int32
}

func (f *fakeEnricher) Enrich(ctx context.Context, ip string) (*enrich.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	r.IP = ip
	return &r, nil
}

type fakeNotifier struct {
	calls  atomic.Int32
	lastIP atomic.Value
}

func (f *fakeNotifier) Notify(ctx context.Context, a alerts.Alert) []alerts.Result {
	f.calls.Add(1)
	f.lastIP.Store(a.IP)
	return []alerts.Result{{Channel: "push"}}
}

func testClassifier(t *testing.T) *classifier.Classifier {
	t.Helper()
	clf, err := classifier.New(
		classifier.Model{
			Weights:   []float64{1.5324573638518284, 2.3610793685141886, 0.6162332658121946, 2.3610793685141886, 1.4382082262172542},
			Intercept: 1.648999177666007,
		},
		classifier.Scaler{
			Mean:  []float64{52.5, 0.625, 0.375, 0.625, 0.5},
			Scale: []float64{36.32836357448543, 0.4841229182759271, 0.4841229182759271, 0.4841229182759271, 0.5},
		},
	)
	require.NoError(t, err)
	return clf
}

func newTestService(t *testing.T, e Enricher) (*Service, *records.MemoryStore, *fakeNotifier) {
	t.Helper()
	store := records.NewMemoryStore()
	notifier := &fakeNotifier{}
	svc := New(e, testClassifier(t), store, notifier, logging.New("error", "text"))
	return svc, store, notifier
}

func TestTrack_HighRiskIPIsSuspiciousAndAlerted(t *testing.T) {
	e := &fakeEnricher{result: &enrich.Result{
		City: "Berlin", Country: "DE",
		FraudScore: 92, VPN: true, Tor: true, RecentAbuse: true, BotStatus: true,
	}}
	svc, store, notifier := newTestService(t, e)

	result, err := svc.Track(context.Background(), "185.220.101.1")
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, "Suspicious", result.SuspicionLevel)
	assert.Equal(t, "185.220.101.1", result.IP)
	assert.Equal(t, 92, result.FraudScore)

	recs, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, records.LabelSuspicious, recs[0].SuspicionLevel)
	assert.NotEmpty(t, recs[0].ID)
	assert.False(t, recs[0].TrackedAt.IsZero())

	assert.Equal(t, int32(1), notifier.calls.Load())
	assert.Equal(t, "185.220.101.1", notifier.lastIP.Load())
}

func TestTrack_CleanIPIsSafeAndNotAlerted(t *testing.T) {
	e := &fakeEnricher{result: &enrich.Result{
		City: "Mountain View", Country: "US", Org: "AS15169 Google LLC",
		FraudScore: 3,
	}}
	svc, store, notifier := newTestService(t, e)

	result, err := svc.Track(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, "Safe", result.SuspicionLevel)

	recs, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, records.LabelSafe, recs[0].SuspicionLevel)

	assert.Equal(t, int32(0), notifier.calls.Load(), "safe verdicts must not alert")
}

func TestTrack_InvalidIPRejectedBeforeEnrichment(t *testing.T) {
	e := &fakeEnricher{result: &enrich.Result{}}
	svc, store, notifier := newTestService(t, e)

	_, err := svc.Track(context.Background(), "not-an-ip")
	assert.ErrorIs(t, err, ErrInvalidIP)
	svc.Wait()

	assert.Equal(t, int32(0), e.calls.Load(), "invalid input must not reach enrichment")

	recs, _ := store.List(context.Background(), 10)
	assert.Empty(t, recs)
	assert.Equal(t, int32(0), notifier.calls.Load())
}

func TestTrack_BogonRejectedWithoutSideEffects(t *testing.T) {
	e := &fakeEnricher{err: enrich.ErrBogon}
	svc, store, notifier := newTestService(t, e)

	_, err := svc.Track(context.Background(), "127.0.0.1")
	assert.ErrorIs(t, err, enrich.ErrBogon)
	svc.Wait()

	recs, _ := store.List(context.Background(), 10)
	assert.Empty(t, recs)
	assert.Equal(t, int32(0), notifier.calls.Load())
}

func TestTrack_EnrichmentFailureAborts(t *testing.T) {
	e := &fakeEnricher{err: &enrich.TransportError{Source: enrich.SourceFraud}}
	svc, store, notifier := newTestService(t, e)

	_, err := svc.Track(context.Background(), "8.8.8.8")

	var te *enrich.TransportError
	assert.ErrorAs(t, err, &te)
	svc.Wait()

	recs, _ := store.List(context.Background(), 10)
	assert.Empty(t, recs, "no partial record on enrichment failure")
	assert.Equal(t, int32(0), notifier.calls.Load())
}

func TestTrack_RepeatedTrackingAppendsHistory(t *testing.T) {
	e := &fakeEnricher{result: &enrich.Result{FraudScore: 3}}
	svc, store, _ := newTestService(t, e)

	_, err := svc.Track(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	_, err = svc.Track(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	svc.Wait()

	recs, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
}

func TestTrack_ResponseMatchesPersistedVerdict(t *testing.T) {
	e := &fakeEnricher{result: &enrich.Result{
		FraudScore: 42, VPN: true, RecentAbuse: true, BotStatus: true,
	}}
	svc, store, _ := newTestService(t, e)

	result, err := svc.Track(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	svc.Wait()

	recs, err := store.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, result.SuspicionLevel, recs[0].SuspicionLevel)
}
