package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Widget"}`))
	require.NoError(t, DecodeJSON(req, &body))
	assert.Equal(t, "Widget", body.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.Error(t, DecodeJSON(req, &body))
}

func TestGetFloatQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?minPrice=10.5&maxPrice=abc", nil)

	minPrice, err := GetFloatQuery(req, "minPrice")
	require.NoError(t, err)
	assert.Equal(t, 10.5, minPrice)

	_, err = GetFloatQuery(req, "maxPrice")
	assert.Error(t, err)

	_, err = GetFloatQuery(req, "missing")
	assert.Error(t, err)
}

func TestGetFloatParam(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "maxPrice", "99.99")

	maxPrice, err := GetFloatParam(req, "maxPrice")
	require.NoError(t, err)
	assert.Equal(t, 99.99, maxPrice)

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "maxPrice", "cheap")
	_, err = GetFloatParam(req, "maxPrice")
	assert.Error(t, err)
}

func TestGetStringParam(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "p-1")

	id, err := GetStringParam(req, "id")
	require.NoError(t, err)
	assert.Equal(t, "p-1", id)

	_, err = GetStringParam(httptest.NewRequest(http.MethodGet, "/", nil), "id")
	assert.Error(t, err)
}
