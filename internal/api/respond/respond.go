// Package respond holds the error-to-status mapping and the request helpers shared by the
// API handler packages.
package respond

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talenttree/talenttree/internal/contactmap"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/db/repositories"
	"github.com/talenttree/talenttree/internal/middleware"
	"github.com/talenttree/talenttree/internal/tenant"
)

// DateLayout is the wire format of role start and end dates.
const DateLayout = "2006-01-02"

// Error writes the response for err. Known conditions get their own status; anything
// else is logged and reported as "Failed to <action>" with a 500.
func Error(c *gin.Context, err error, action string) {
	var conflict *repositories.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, contactmap.ErrMapNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, repositories.ErrOutOfScope), errors.Is(err, repositories.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrRoleNoFunctions), errors.Is(err, models.ErrRoleEndBeforeStart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tenant.ErrNoScope):
		c.JSON(http.StatusForbidden, middleware.UnauthorizedBody)
	default:
		slog.Error("request failed", "action", action, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// BadRequest writes a 400 for a body that failed to bind.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
}

// NotFound writes a 404 naming what was missing.
func NotFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

// ParamID parses the positive integer route parameter name. On failure it writes a 404
// for what and returns false.
func ParamID(c *gin.Context, name, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		NotFound(c, what)
		return 0, false
	}
	return id, true
}

// Scope returns the tenant scope fixed by middleware.RequireOrganizationAccess. A route
// mounted without that middleware gets a 403.
func Scope(c *gin.Context) (tenant.Scope, bool) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		c.JSON(http.StatusForbidden, middleware.UnauthorizedBody)
		return tenant.Scope{}, false
	}
	return scope, true
}

// ParseDate parses a role date. An empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, errors.New("dates must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}
