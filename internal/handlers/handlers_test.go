package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopbot/catalog-service/internal/cache"
	"github.com/shopbot/catalog-service/internal/catalog"
	"github.com/shopbot/catalog-service/internal/resolver"
	"github.com/shopbot/catalog-service/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSource struct {
	catalogRows  []types.Row
	scheduleRows map[string][]types.Row
	userRows     []types.Row
	failCatalog  bool
	failUsers    bool
}

func (f *fakeSource) FetchCatalogRows(ctx context.Context) ([]types.Row, error) {
	if f.failCatalog {
		return nil, errors.New("sheet export returned 503")
	}
	return f.catalogRows, nil
}

func (f *fakeSource) FetchScheduleRows(ctx context.Context, shopID string) ([]types.Row, error) {
	rows, ok := f.scheduleRows[shopID]
	if !ok {
		return nil, errors.New("no schedule sheet for shop " + shopID)
	}
	return rows, nil
}

func (f *fakeSource) FetchUserRows(ctx context.Context) ([]types.Row, error) {
	if f.failUsers {
		return nil, errors.New("users export returned 503")
	}
	return f.userRows, nil
}

func defaultFakeSource() *fakeSource {
	return &fakeSource{
		catalogRows: []types.Row{
			{
				types.FieldArticle: "12345", types.FieldShop: "7",
				types.FieldName: "Condensed Milk", types.FieldDepartment: "Dairy",
				types.FieldSupplierCode: "S1", types.FieldSupplierName: "Acme Wholesale",
				types.FieldTier: "1",
			},
			{
				types.FieldArticle: "55555", types.FieldShop: "7",
				types.FieldName: "Discounted Tea", types.FieldDepartment: "Grocery",
				types.FieldSupplierCode: "S1", types.FieldSupplierName: "Acme Wholesale",
				types.FieldTier: "0",
			},
			{
				types.FieldArticle: "67890", types.FieldShop: "7",
				types.FieldName: "Mystery Item",
				types.FieldSupplierCode: "S9", types.FieldSupplierName: "Ghost Supplies",
				types.FieldTier: "1",
			},
		},
		scheduleRows: map[string][]types.Row{
			"7": {
				{
					types.FieldSupplierCode: "S1", types.FieldSupplierName: "Acme Wholesale",
					// Orders accepted every day so test dates are clock-independent
					types.FieldOrderDay1: "1", types.FieldOrderDay2: "2", types.FieldOrderDay3: "3",
					types.FieldLeadDays: "2",
				},
				{
					types.FieldSupplierCode: "S2", types.FieldSupplierName: "Beta Foods",
					types.FieldOrderDay1: "4", types.FieldOrderDay2: "5", types.FieldOrderDay3: "6",
					types.FieldLeadDays: "2",
				},
				{
					types.FieldSupplierCode: "S3", types.FieldSupplierName: "Gamma Trade",
					types.FieldOrderDay1: "7",
					types.FieldLeadDays:  "2",
				},
			},
		},
	}
}

func newTestResolver(t *testing.T, src *fakeSource) *resolver.Resolver {
	t.Helper()
	store, err := cache.New(cache.PolicyTTL, 100)
	require.NoError(t, err)
	builder := catalog.NewBuilder(src, catalog.BuilderConfig{})
	return resolver.New(builder, store, resolver.Config{})
}

func newTestRouter(r *resolver.Resolver) *gin.Engine {
	router := gin.New()
	router.GET("/v1/resolve", Resolve(r))
	router.GET("/health", HealthCheck(r))
	router.POST("/internal/admin/refresh", ForceRefresh(r))
	return router
}

func TestResolveEndpointReturnsProduct(t *testing.T) {
	r := newTestResolver(t, defaultFakeSource())
	router := newTestRouter(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/resolve?article=12345&shop=7", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "12345", resp.Article)
	assert.Equal(t, "7", resp.Shop)
	assert.Equal(t, "Condensed Milk", resp.Name)
	assert.Equal(t, "Dairy", resp.Department)
	assert.Equal(t, "S1", resp.Supplier.Code)
	assert.Equal(t, "Acme Wholesale", resp.Supplier.Name)
	assert.Equal(t, string(types.SupplierStatusOK), resp.Supplier.Status)
	assert.False(t, resp.NeedsReview)
	assert.Empty(t, resp.FromShop)

	orderDate, err := time.ParseInLocation(dateLayout, resp.OrderDate, time.Local)
	require.NoError(t, err)
	deliveryDate, err := time.ParseInLocation(dateLayout, resp.DeliveryDate, time.Local)
	require.NoError(t, err)
	assert.Equal(t, orderDate.AddDate(0, 0, 2), deliveryDate)
}

func TestResolveEndpointMarksLowestTier(t *testing.T) {
	r := newTestResolver(t, defaultFakeSource())
	router := newTestRouter(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/resolve?article=55555&shop=7", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.NeedsReview)
}

func TestResolveEndpointDegradedSupplier(t *testing.T) {
	r := newTestResolver(t, defaultFakeSource())
	router := newTestRouter(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/resolve?article=67890&shop=7", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp ResolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(types.SupplierStatusNone), resp.Supplier.Status)
	assert.Empty(t, resp.OrderDate)
	assert.Empty(t, resp.DeliveryDate)
}

func TestResolveEndpointMissingParams(t *testing.T) {
	r := newTestResolver(t, defaultFakeSource())
	router := newTestRouter(r)

	for _, target := range []string{"/v1/resolve", "/v1/resolve?article=12345", "/v1/resolve?shop=7"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestResolveEndpointNotFound(t *testing.T) {
	r := newTestResolver(t, defaultFakeSource())
	router := newTestRouter(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/resolve?article=99999&shop=7", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveEndpointSourceDown(t *testing.T) {
	src := defaultFakeSource()
	src.failCatalog = true
	r := newTestResolver(t, src)
	router := newTestRouter(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/resolve?article=12345&shop=7", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthReportsIndexState(t *testing.T) {
	r := newTestResolver(t, defaultFakeSource())
	router := newTestRouter(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "empty", resp.Index)

	// First resolution builds and publishes a snapshot
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/resolve?article=12345&shop=7", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Index)
	assert.Equal(t, 3, resp.Products)
	assert.NotEmpty(t, resp.BuiltAt)
}

func TestForceRefreshRebuildsIndex(t *testing.T) {
	src := defaultFakeSource()
	r := newTestResolver(t, src)
	router := newTestRouter(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/admin/refresh", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp RefreshResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Products)
	assert.Equal(t, 1, resp.Shops)
}

func TestForceRefreshSurfacesSourceFailure(t *testing.T) {
	src := defaultFakeSource()
	src.failCatalog = true
	r := newTestResolver(t, src)
	router := newTestRouter(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/admin/refresh", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
