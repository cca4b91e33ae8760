package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_admin_v1/internal/middleware"
	"market_admin_v1/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, s model.Session) string {
	t.Helper()
	token, err := middleware.GenerateAccessToken(s)
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_RequiresToken(t *testing.T) {
	r := SetupRouter(&Controllers{}, Options{})

	for _, path := range []string{"/api/wizards/abc", "/api/listings", "/api/vendors"} {
		w := serve(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := serve(r, http.MethodGet, "/api/listings", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_VendorRoleForbidden(t *testing.T) {
	r := SetupRouter(&Controllers{}, Options{})
	auth := bearer(t, model.Session{AdminID: 2, Role: "vendor", VendorID: 7})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/vendors"},
		{http.MethodPost, "/api/vendors/1/status"},
		{http.MethodPost, "/api/listings/1/active"},
		{http.MethodPost, "/api/listings/bulk/auction-status"},
	}
	for _, tc := range cases {
		w := serve(r, tc.method, tc.path, auth)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
	}
}

func TestRouter_TaskRoutesOnlyWhenEnabled(t *testing.T) {
	r := SetupRouter(&Controllers{}, Options{})
	auth := bearer(t, model.Session{AdminID: 1, Role: "admin"})

	w := serve(r, http.MethodGet, "/api/tasks", auth)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Swagger(t *testing.T) {
	r := SetupRouter(&Controllers{}, Options{})

	w := serve(r, http.MethodGet, "/swagger/doc.json", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Market Admin API")
}

func TestRouter_RequestIDHeader(t *testing.T) {
	r := SetupRouter(&Controllers{}, Options{})

	w := serve(r, http.MethodGet, "/api/listings", "")

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
