// Package middleware provides Gin HTTP middleware for authentication, tenant authorization,
// rate limiting, security headers, request ids and metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → OrganizationAccess → (Admin) → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth resolves the caller identity once per request; the organization checks read it
// from the context and fix the tenant scope every handler queries with.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talenttree/talenttree/internal/auth"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/tenant"
)

const (
	// CallerKey is the gin.Context key holding the resolved tenant.Caller
	CallerKey = "caller"
	// ClaimsKey is the gin.Context key holding the verified *auth.Claims
	ClaimsKey = "claims"
)

// UnauthorizedBody is the uniform body of every authorization failure.
var UnauthorizedBody = gin.H{"error": "Access Unauthorized"}

// UserLookup loads the account behind a session.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthMiddleware validates the bearer session token and resolves the caller. The caller's
// organization and admin flag are read from the account row, so a demoted or moved user
// loses access on their next request.
func AuthMiddleware(users UserLookup, revocations auth.RevocationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, UnauthorizedBody)
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, UnauthorizedBody)
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			slog.Error("session revocation check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, UnauthorizedBody)
			return
		}

		user, err := users.GetByEmail(c.Request.Context(), claims.Email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, UnauthorizedBody)
			return
		}

		caller := tenant.Caller{Email: user.Email, IsAdmin: user.IsAdmin}
		if user.OrganizationID != nil {
			caller.OrganizationID = *user.OrganizationID
		}

		c.Set(ClaimsKey, claims)
		c.Set(CallerKey, caller)
		c.Next()
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// GetCaller returns the caller resolved by AuthMiddleware.
func GetCaller(c *gin.Context) (tenant.Caller, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		return tenant.Caller{}, false
	}
	caller, ok := v.(tenant.Caller)
	return caller, ok
}

// GetClaims returns the verified session claims set by AuthMiddleware.
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
