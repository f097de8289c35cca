package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopbot/catalog-service/internal/types"
	"github.com/shopbot/catalog-service/internal/users"
)

// UserResponse represents a directory entry for a known user
type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Surname  string `json:"surname"`
	Position string `json:"position,omitempty"`
	Shop     string `json:"shop,omitempty"`
}

// GetUser looks up a user in the staff directory
// GET /v1/users/:id
func GetUser(dir *users.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		user, err := dir.Lookup(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "user directory unavailable"})
			return
		}

		c.JSON(http.StatusOK, UserResponse{
			ID:       user.ID,
			Name:     user.Name,
			Surname:  user.Surname,
			Position: user.Position,
			Shop:     user.Shop,
		})
	}
}
