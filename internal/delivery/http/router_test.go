package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_catalog/internal/config"
	"github.com/Pesokrava/product_catalog/internal/delivery/http/handler"
	"github.com/Pesokrava/product_catalog/internal/domain"
	"github.com/Pesokrava/product_catalog/internal/pkg/logger"
	"github.com/Pesokrava/product_catalog/internal/pkg/metrics"
	"github.com/Pesokrava/product_catalog/internal/repository/memory"
	"github.com/Pesokrava/product_catalog/internal/usecase/product"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.New("test")
	cfg := &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			AllowedOrigins: []string{"*"},
		},
	}

	service := product.NewService(memory.NewProductRepository(), nil, nil, nil, log)
	router := NewRouter(handler.NewProductHandler(service, log), metrics.NewHTTPMetrics(), cfg, log)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, method, url string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func decodeProducts(t *testing.T, env envelope) []*domain.Product {
	t.Helper()
	var products []*domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &products))
	return products
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRouter_ProductLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/products"

	status, env := do(t, http.MethodPost, base, map[string]any{
		"name":     "Widget",
		"price":    9.99,
		"stock":    3,
		"category": "tools",
		"reviews":  []map[string]any{{"rating": 5}, {"rating": 1}},
		"supplier": map[string]any{"name": "Acme", "contact_email": "ops@acme.io"},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	var created domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 3.0, created.AverageRating)
	assert.Equal(t, 2, created.TotalReviews)
	require.NotNil(t, created.Supplier)
	require.NotNil(t, created.Supplier.IsActive)
	assert.True(t, *created.Supplier.IsActive)

	status, _ = do(t, http.MethodPost, base, map[string]any{"name": "Gadget", "price": 50.0, "stock": 1, "category": "tools"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = do(t, http.MethodGet, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, http.MethodGet, base+"/search?name=idg", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeProducts(t, env), 1)

	status, env = do(t, http.MethodGet, base+"/category/tools", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeProducts(t, env), 2)

	status, env = do(t, http.MethodGet, base+"/price-range?minPrice=9.99&maxPrice=50", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeProducts(t, env), 2)

	status, env = do(t, http.MethodGet, base+"/category/tools/max-price/50", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeProducts(t, env), 1)

	status, env = do(t, http.MethodPut, base+"/"+created.ID, map[string]any{"name": "Widget", "price": 12.5, "stock": 7})
	require.Equal(t, http.StatusOK, status, env.Error)
	var updated domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, 2, updated.TotalReviews)
	assert.Equal(t, created.CreatedAt.UTC(), updated.CreatedAt.UTC())

	status, _ = do(t, http.MethodDelete, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = do(t, http.MethodGet, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, http.MethodDelete, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestRouter_DuplicateName(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/products"
	body := map[string]any{"name": "Widget", "price": 9.99, "stock": 3}

	status, _ := do(t, http.MethodPost, base, body)
	require.Equal(t, http.StatusCreated, status)

	status, env := do(t, http.MethodPost, base, body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, env.Error, "Widget")

	status, env = do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeProducts(t, env), 1)
}

func TestRouter_UpdateMissingProduct(t *testing.T) {
	srv := newTestServer(t)

	status, _ := do(t, http.MethodPut, srv.URL+"/api/v1/products/missing", map[string]any{"name": "Widget", "price": 1.0, "stock": 1})

	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t)

	do(t, http.MethodGet, srv.URL+"/api/v1/products/missing", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), `catalog_http_requests_total{method="GET",route="/api/v1/products/{id}",status="404"} 1`)
}
