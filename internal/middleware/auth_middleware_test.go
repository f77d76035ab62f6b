package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/civigo/civigo/internal/auth"
	"github.com/civigo/civigo/internal/models"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *iauth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret: "test-secret-at-least-32-bytes-long!!",
		Issuer: "civigo-test",
	})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Auth(jwt), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserIDKey),
			"uin":     c.GetString(CtxUINKey),
		})
	})
	r.GET("/review", Auth(jwt), RequireRole(models.RoleReviewer), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, jwt
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	r, jwt := newAuthRouter(t)

	token, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: "user-1",
		UIN:    "UIN-TEST12345678",
		Role:   models.RoleCitizen,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "UIN-TEST12345678")
}

func TestAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	r, _ := newAuthRouter(t)

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer  "} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	r, _ := newAuthRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestRequireRole(t *testing.T) {
	r, jwt := newAuthRouter(t)

	citizen, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: "u1", Role: models.RoleCitizen})
	require.NoError(t, err)
	reviewer, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: "u2", Role: models.RoleReviewer})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/review", nil)
	req.Header.Set("Authorization", "Bearer "+citizen)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/review", nil)
	req.Header.Set("Authorization", "Bearer "+reviewer)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
