package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// A deployment without Elasticsearch keeps the route registered; the handler
// must degrade to 503 instead of dereferencing a nil client.
func TestSearchUnavailableWithoutClient(t *testing.T) {
	env := newTestEnv(t)
	h := &SearchHandler{}

	_, c := env.doJSONRequest(http.MethodGet, "/api/v1/products/search?q=honey", nil)
	err := h.Search(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusServiceUnavailable, he.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	env := newTestEnv(t)
	h := &SearchHandler{}

	_, c := env.doJSONRequest(http.MethodGet, "/api/v1/products/search", nil)
	err := h.Search(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}
