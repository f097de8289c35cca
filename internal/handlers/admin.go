package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopbot/catalog-service/internal/resolver"
)

// RefreshResponse represents the result of a manual refresh
type RefreshResponse struct {
	Status      string `json:"status"`
	Products    int    `json:"products"`
	Shops       int    `json:"shops"`
	SkippedRows int    `json:"skippedRows"`
	BuiltAt     string `json:"builtAt"`
}

// ForceRefresh rebuilds the catalog index immediately, bypassing the
// scheduled interval. RefreshNow drops the cached source rows itself,
// so the rebuild always reads the backing store. Concurrent calls
// share a single rebuild.
// POST /internal/admin/refresh
func ForceRefresh(r *resolver.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := r.RefreshNow(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "refresh failed: " + err.Error()})
			return
		}

		snap := r.Snapshot()
		if snap == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no snapshot after refresh"})
			return
		}

		c.JSON(http.StatusOK, RefreshResponse{
			Status:      "ok",
			Products:    len(snap.Products),
			Shops:       len(snap.Schedules),
			SkippedRows: snap.SkippedCatalogRows + snap.SkippedScheduleRows,
			BuiltAt:     snap.BuiltAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
}
