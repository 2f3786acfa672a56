package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/crewlink/crewlink/internal/auth"
	"github.com/crewlink/crewlink/pkg/errors"
	"github.com/crewlink/crewlink/pkg/response"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxSubjectIDKey = "subjectID"
	CtxEmailKey     = "subjectEmail"
	CtxRoleKey      = "subjectRole"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxSubjectIDKey, claims.SubjectID)
		c.Set(CtxRoleKey, claims.Role)
		if claims.Email != "" {
			c.Set(CtxEmailKey, claims.Email)
		}

		c.Next()
	}
}

// RequireRole rejects requests whose token does not carry the expected role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRoleKey) != role {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin guards staffing management routes.
func RequireAdmin() gin.HandlerFunc { return RequireRole(iauth.RoleAdmin) }

// RequireCandidate guards candidate self-service routes.
func RequireCandidate() gin.HandlerFunc { return RequireRole(iauth.RoleCandidate) }
