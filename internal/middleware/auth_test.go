package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/pkg/auth"
)

func newProtectedRouter(t *testing.T, jwtSvc auth.JWTService, capability model.Capability) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := NewAuthMiddleware(jwtSvc)
	r := gin.New()
	r.GET("/protected", m.Authenticate(), m.RequirePermission(capability), func(c *gin.Context) {
		session := SessionFromContext(c)
		require.NotNil(t, session)
		c.JSON(http.StatusOK, gin.H{"username": session.Username})
	})
	return r
}

func issueToken(t *testing.T, jwtSvc auth.JWTService, role model.Role) string {
	t.Helper()
	token, err := jwtSvc.GenerateToken(&model.User{
		Username:    "sari",
		Role:        role,
		Permissions: model.PermissionsForRole(role),
	})
	require.NoError(t, err)
	return token
}

func TestAuthenticateMissingHeader(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	r := newProtectedRouter(t, jwtSvc, model.CapViewPatients)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	r := newProtectedRouter(t, jwtSvc, model.CapViewPatients)

	for _, header := range []string{"Bearer", "Bearer ", "Basic abc", "token-without-scheme"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	other := auth.NewJWTService("other-secret", time.Hour)
	r := newProtectedRouter(t, jwtSvc, model.CapViewPatients)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, other, model.RoleAdmin))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermissionDenied(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	r := newProtectedRouter(t, jwtSvc, model.CapManageUsers)

	// A valid exporter session reaches the permission check and is turned
	// away there, not at authentication.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, jwtSvc, model.RoleExporter))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermissionGranted(t *testing.T) {
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	r := newProtectedRouter(t, jwtSvc, model.CapExportCSV)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, jwtSvc, model.RoleExporter))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sari")
}

func TestRequirePermissionWithoutSessionFailsClosed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	m := NewAuthMiddleware(jwtSvc)

	// A route wired without Authenticate must still refuse access.
	r := gin.New()
	r.GET("/misconfigured", m.RequirePermission(model.CapViewPatients), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/misconfigured", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
