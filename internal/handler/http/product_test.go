package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaraca/storefront/internal/domain"
)

func TestCreateProduct_Admin(t *testing.T) {
	env := newTestEnv(t, "admin-1", "admin")

	rr := env.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"name":     "Espresso Cup",
		"category": "kitchen",
		"price":    1500,
		"stock":    10,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		Data domain.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "espresso-cup", resp.Data.Slug)
	assert.True(t, resp.Data.IsAvailable)
}

func TestCreateProduct_NonAdminForbidden(t *testing.T) {
	env := newTestEnv(t, "user-1", "customer")

	rr := env.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"name":     "Espresso Cup",
		"category": "kitchen",
		"price":    1500,
		"stock":    10,
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateProduct_Validation(t *testing.T) {
	env := newTestEnv(t, "admin-1", "admin")

	rr := env.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"name":  "X",
		"price": -1,
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "VALIDATION_ERROR")

	rr = env.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"name":     "Espresso Cup",
		"category": "kitchen",
		"price":    1500,
		"stock":    10,
		"sku":      "unexpected",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "unknown fields are rejected")
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t, "user-1", "customer")
	product := seedProduct(env, 2500, 5)

	rr := env.do(t, http.MethodGet, "/api/v1/products/"+product.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/products/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListProducts_Public(t *testing.T) {
	env := newTestEnv(t, "user-1", "customer")
	seedProduct(env, 2500, 5)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rr := serveRouter(env, req)
	require.Equal(t, http.StatusOK, rr.Code, "listing requires no auth")

	var resp struct {
		Data       []domain.Product `json:"data"`
		TotalCount int              `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalCount)
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t, "admin-1", "admin")
	product := seedProduct(env, 2500, 5)

	rr := env.do(t, http.MethodDelete, "/api/v1/products/"+product.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/products/"+product.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateReview(t *testing.T) {
	env := newTestEnv(t, "user-1", "customer")
	product := seedProduct(env, 2500, 5)

	rr := env.do(t, http.MethodPost, "/api/v1/products/"+product.ID.String()+"/reviews", map[string]any{
		"rating": 5,
		"title":  "Great mug",
		"body":   "Keeps coffee warm.",
	})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.do(t, http.MethodPost, "/api/v1/products/"+product.ID.String()+"/reviews", map[string]any{
		"rating": 9,
		"title":  "Too good",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCart_AddAndGet(t *testing.T) {
	env := newTestEnv(t, "user-1", "customer")
	product := seedProduct(env, 2500, 5)

	rr := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_id": product.ID.String(),
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Data domain.Cart `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, int64(5000), resp.Data.Total())
}

func TestFavorites(t *testing.T) {
	env := newTestEnv(t, "user-1", "customer")
	product := seedProduct(env, 2500, 5)

	rr := env.do(t, http.MethodPut, "/api/v1/favorites/"+product.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/favorites", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[`)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	env := newTestEnv(t, "user-1", "customer")

	rr := serveRouter(env, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serveRouter(env, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestContentTypeEnforced(t *testing.T) {
	env := newTestEnv(t, "admin-1", "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "text/plain")
	rr := serveRouter(env, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}
