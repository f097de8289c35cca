package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func adminRouter(cfg AdminAuthConfig) *gin.Engine {
	router := gin.New()
	router.POST("/internal/admin/refresh", AdminAuthMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doAdminRequest(router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/admin/refresh", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAdminAuthValidToken(t *testing.T) {
	router := adminRouter(AdminAuthConfig{Token: "s3cret"})

	w := doAdminRequest(router, map[string]string{"X-Admin-Token": "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminAuthInvalidToken(t *testing.T) {
	router := adminRouter(AdminAuthConfig{Token: "s3cret"})

	w := doAdminRequest(router, map[string]string{"X-Admin-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doAdminRequest(router, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthAllowListedID(t *testing.T) {
	router := adminRouter(AdminAuthConfig{IDs: []string{"1001", "1002"}})

	w := doAdminRequest(router, map[string]string{"X-Admin-ID": "1002"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doAdminRequest(router, map[string]string{"X-Admin-ID": "1003"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthMisconfigured(t *testing.T) {
	router := adminRouter(AdminAuthConfig{})

	w := doAdminRequest(router, map[string]string{"X-Admin-Token": "anything"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimitMiddlewareThrottles(t *testing.T) {
	router := gin.New()
	router.Use(RateLimitMiddleware(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2}))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1")
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])
}
