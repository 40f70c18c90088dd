package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	keys, err := auth.NewKeys("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)
	return API(Deps{Keys: keys})
}

// Every account route must refuse anonymous requests. A 404 here means the
// route was never registered.
func TestProtectedRoutesRequireAuth(t *testing.T) {
	r := testRouter(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/account/profile"},
		{http.MethodPost, "/api/cart/add-item"},
		{http.MethodGet, "/api/cart/items"},
		{http.MethodPut, "/api/cart/items/p1"},
		{http.MethodDelete, "/api/cart"},
		{http.MethodPost, "/api/cart/validate"},
		{http.MethodPost, "/api/checkout"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodGet, "/api/admin/orders"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestHealthCheck(t *testing.T) {
	r := testRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
