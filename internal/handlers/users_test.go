package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopbot/catalog-service/internal/cache"
	"github.com/shopbot/catalog-service/internal/types"
	"github.com/shopbot/catalog-service/internal/users"
)

func newUsersRouter(t *testing.T, src *fakeSource) *gin.Engine {
	t.Helper()
	store, err := cache.New(cache.PolicyTTL, 100)
	require.NoError(t, err)
	dir := users.New(src, store, time.Hour)

	router := gin.New()
	router.GET("/v1/users/:id", GetUser(dir))
	return router
}

func TestGetUserEndpoint(t *testing.T) {
	src := defaultFakeSource()
	src.userRows = []types.Row{
		{
			types.FieldUserID: "1001", types.FieldSurname: "Petrova",
			types.FieldPosition: "store manager", types.FieldShop: "7",
		},
	}
	router := newUsersRouter(t, src)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/1001", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1001", resp.ID)
	assert.Equal(t, "Petrova", resp.Surname)
	assert.Equal(t, "store manager", resp.Position)
	assert.Equal(t, "7", resp.Shop)
}

func TestGetUserEndpointNotFound(t *testing.T) {
	router := newUsersRouter(t, defaultFakeSource())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/9999", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUserEndpointDirectoryDown(t *testing.T) {
	src := defaultFakeSource()
	src.failUsers = true
	router := newUsersRouter(t, src)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/1001", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
