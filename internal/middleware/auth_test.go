package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/crewlink/crewlink/internal/auth"
)

func newAuthRig(t *testing.T, guards ...gin.HandlerFunc) (*iauth.JWTService, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "crewlink"})
	require.NoError(t, err)

	router := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(jwt)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"subject": c.GetString(CtxSubjectIDKey),
			"email":   c.GetString(CtxEmailKey),
			"role":    c.GetString(CtxRoleKey),
		})
	})
	router.GET("/protected", handlers...)
	return jwt, router
}

func performRequest(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectsMissingToken(t *testing.T) {
	_, router := newAuthRig(t)

	rec := performRequest(router, http.MethodGet, "/protected", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	_, router := newAuthRig(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abcdef")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	_, router := newAuthRig(t)

	rec := performRequest(router, http.MethodGet, "/protected", "not-a-token")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestAuthPropagatesIdentity(t *testing.T) {
	jwt, router := newAuthRig(t)

	token, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{
		SubjectID: "user-1",
		Email:     "maria@example.com",
		Role:      iauth.RoleCandidate,
	})
	require.NoError(t, err)

	rec := performRequest(router, http.MethodGet, "/protected", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"subject":"user-1"`)
	require.Contains(t, rec.Body.String(), `"email":"maria@example.com"`)
	require.Contains(t, rec.Body.String(), `"role":"candidate"`)
}

func TestRequireRole(t *testing.T) {
	jwt, router := newAuthRig(t, RequireAdmin())

	candidateToken, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{
		SubjectID: "user-1",
		Role:      iauth.RoleCandidate,
	})
	require.NoError(t, err)

	rec := performRequest(router, http.MethodGet, "/protected", candidateToken)
	require.Equal(t, http.StatusForbidden, rec.Code)

	adminToken, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{
		SubjectID: "admin-1",
		Role:      iauth.RoleAdmin,
	})
	require.NoError(t, err)

	rec = performRequest(router, http.MethodGet, "/protected", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
}
