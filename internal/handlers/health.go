package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopbot/catalog-service/internal/resolver"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Index    string `json:"index"`
	Products int    `json:"products,omitempty"`
	BuiltAt  string `json:"builtAt,omitempty"`
}

// HealthCheck handles the health check endpoint. The service is healthy
// as soon as it responds; the index field reports whether a catalog
// snapshot has been published yet.
func HealthCheck(r *resolver.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status: "ok",
		}

		if snap := r.Snapshot(); snap != nil {
			response.Index = "ready"
			response.Products = len(snap.Products)
			response.BuiltAt = snap.BuiltAt.Format("2006-01-02T15:04:05Z07:00")
		} else {
			response.Index = "empty"
		}

		c.JSON(http.StatusOK, response)
	}
}
