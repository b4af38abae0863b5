package tracker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/ipsentry/internal/enrich"
	"github.com/mbd888/ipsentry/internal/records"
)

func newTestRouter(t *testing.T, e Enricher) (*gin.Engine, *Service, records.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, store, _ := newTestService(t, e)
	h := NewHandler(svc, store)

	r := gin.New()
	v1 := r.Group("/v1")
	h.RegisterRoutes(v1)
	return r, svc, store
}

func doGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_TrackSuspicious(t *testing.T) {
	e := &fakeEnricher{result: &enrich.Result{
		City: "Berlin", Country: "DE",
		FraudScore: 92, VPN: true, Tor: true, RecentAbuse: true, BotStatus: true,
	}}
	r, svc, _ := newTestRouter(t, e)

	w := doGet(r, "/v1/track/185.220.101.1")
	svc.Wait()

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Suspicious", body["suspicion_level"])
	assert.Equal(t, "185.220.101.1", body["ip"])
	assert.Equal(t, float64(92), body["fraud_score"])
}

func TestHandler_TrackInvalidIPReturns400(t *testing.T) {
	e := &fakeEnricher{result: &enrich.Result{}}
	r, _, _ := newTestRouter(t, e)

	w := doGet(r, "/v1/track/banana")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid IP address")
}

func TestHandler_TrackBogonReturns400(t *testing.T) {
	e := &fakeEnricher{err: enrich.ErrBogon}
	r, _, _ := newTestRouter(t, e)

	w := doGet(r, "/v1/track/127.0.0.1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_TrackEnrichmentFailureReturns500(t *testing.T) {
	e := &fakeEnricher{err: &enrich.TransportError{Source: enrich.SourceGeo}}
	r, _, _ := newTestRouter(t, e)

	w := doGet(r, "/v1/track/8.8.8.8")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to evaluate IP")
}

func TestHandler_ListRecords(t *testing.T) {
	e := &fakeEnricher{result: &enrich.Result{FraudScore: 3}}
	r, svc, _ := newTestRouter(t, e)

	doGet(r, "/v1/track/8.8.8.8")
	doGet(r, "/v1/track/1.1.1.1")
	svc.Wait()

	w := doGet(r, "/v1/records")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Records []records.IPRecord `json:"records"`
		Count   int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	// Newest first.
	assert.Equal(t, "1.1.1.1", body.Records[0].IP)
}

func TestHandler_ListRecordsRejectsBadLimit(t *testing.T) {
	e := &fakeEnricher{result: &enrich.Result{}}
	r, _, _ := newTestRouter(t, e)

	assert.Equal(t, http.StatusBadRequest, doGet(r, "/v1/records?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, doGet(r, "/v1/records?limit=-1").Code)
}

func TestHandler_Stats(t *testing.T) {
	safe := &fakeEnricher{result: &enrich.Result{FraudScore: 3}}
	r, svc, store := newTestRouter(t, safe)

	doGet(r, "/v1/track/8.8.8.8")
	svc.Wait()

	// Seed one suspicious record directly.
	require.NoError(t, store.Save(t.Context(), &records.IPRecord{
		ID: "rec_s", IP: "185.220.101.1", SuspicionLevel: records.LabelSuspicious,
	}))

	w := doGet(r, "/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		Safe       int `json:"safe"`
		Suspicious int `json:"suspicious"`
		Total      int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Safe)
	assert.Equal(t, 1, stats.Suspicious)
	assert.Equal(t, 2, stats.Total)
}
