package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopbot/catalog-service/internal/resolver"
	"github.com/shopbot/catalog-service/internal/types"
)

// dateLayout is the wire format for order and delivery dates
const dateLayout = "02.01.2006"

// ResolveRequest represents query parameters for product resolution
type ResolveRequest struct {
	Article string `form:"article" binding:"required"`
	Shop    string `form:"shop" binding:"required"`
}

// SupplierInfo represents the supplier portion of a resolution
type SupplierInfo struct {
	Code   string `json:"code,omitempty"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

// ResolveResponse represents a resolved product with delivery dates
type ResolveResponse struct {
	Article      string       `json:"article"`
	Shop         string       `json:"shop"`
	Name         string       `json:"name"`
	Department   string       `json:"department,omitempty"`
	Supplier     SupplierInfo `json:"supplier"`
	OrderDate    string       `json:"orderDate,omitempty"`
	DeliveryDate string       `json:"deliveryDate,omitempty"`
	NeedsReview  bool         `json:"needsReview"`
	FromShop     string       `json:"fromShop,omitempty"`
}

// Resolve resolves an article within a shop to its product, supplier and
// next order/delivery dates
// GET /v1/resolve?article=12345&shop=7
func Resolve(r *resolver.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResolveRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := r.Resolve(c.Request.Context(), req.Article, req.Shop)
		if err != nil {
			if resolver.IsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
				return
			}
			var srcErr *types.SourceUnavailableError
			if errors.As(err, &srcErr) {
				c.JSON(http.StatusBadGateway, gin.H{"error": "catalog source unavailable"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
			return
		}

		c.JSON(http.StatusOK, resolveResponse(result))
	}
}

func resolveResponse(r *types.ResolutionResult) ResolveResponse {
	resp := ResolveResponse{
		Article:    r.Article,
		Shop:       r.Shop,
		Name:       r.Name,
		Department: r.Department,
		Supplier: SupplierInfo{
			Code:   r.SupplierCode,
			Name:   r.SupplierName,
			Status: string(r.Supplier),
		},
		NeedsReview: r.NeedsReview,
		FromShop:    r.FromShop,
	}
	resp.OrderDate = formatDate(r.OrderDate)
	resp.DeliveryDate = formatDate(r.DeliveryDate)
	return resp
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
