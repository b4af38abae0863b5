package tracker

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/ipsentry/internal/enrich"
	"github.com/mbd888/ipsentry/internal/logging"
	"github.com/mbd888/ipsentry/internal/records"
)

const maxListLimit = 1000

// Handler exposes the tracking pipeline over HTTP.
type Handler struct {
	svc   *Service
	store records.Store
}

// NewHandler creates the HTTP handler for tracking and record queries.
func NewHandler(svc *Service, store records.Store) *Handler {
	return &Handler{svc: svc, store: store}
}

// RegisterRoutes mounts the tracking endpoints on the given router group.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/track/:ip", h.Track)
	r.GET("/records", h.ListRecords)
	r.GET("/stats", h.Stats)
}

// Track handles GET /track/:ip.
func (h *Handler) Track(c *gin.Context) {
	ip := c.Param("ip")

	result, err := h.svc.Track(c.Request.Context(), ip)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidIP), errors.Is(err, enrich.ErrBogon):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid IP address"})
		default:
			var te *enrich.TransportError
			if errors.As(err, &te) {
				logging.L(c.Request.Context()).Error("enrichment failed",
					"ip", ip, "source", te.Source, "error", te.Err)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to evaluate IP"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRecords handles GET /records?limit=N, newest first.
func (h *Handler) ListRecords(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	recs, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to list records", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": recs,
		"count":   len(recs),
	})
}

// Stats handles GET /stats: verdict counts over all persisted records.
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	safe, err := h.store.CountByLabel(ctx, records.LabelSafe)
	if err != nil {
		logging.L(ctx).Error("failed to count records", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	suspicious, err := h.store.CountByLabel(ctx, records.LabelSuspicious)
	if err != nil {
		logging.L(ctx).Error("failed to count records", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"safe":       safe,
		"suspicious": suspicious,
		"total":      safe + suspicious,
	})
}
