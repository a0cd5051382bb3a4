// Package api wires together all HTTP routes for the talentTree directory.
//
// Route grouping:
//   - Signup, login, invitation preview and token registration are public but share the
//     strict auth rate limiter.
//   - Everything else under /api/v1 requires a session token. Tenant routes live under
//     /api/v1/organizations/:org_id and additionally require membership of that
//     organization; invitations require its admin flag.
package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/talenttree/talenttree/internal/api/accounts"
	"github.com/talenttree/talenttree/internal/api/directory"
	"github.com/talenttree/talenttree/internal/api/maps"
	"github.com/talenttree/talenttree/internal/auth"
	"github.com/talenttree/talenttree/internal/config"
	"github.com/talenttree/talenttree/internal/db/repositories"
	"github.com/talenttree/talenttree/internal/jobs"
	"github.com/talenttree/talenttree/internal/middleware"
	"github.com/talenttree/talenttree/internal/notifications"
)

// Dependencies are the process-level collaborators the router needs beyond the database.
type Dependencies struct {
	// Redis backs session revocation and rate limiting. Nil selects the in-memory versions.
	Redis *redis.Client
	// Mailer delivers invitation and confirmation emails. Nil logs them instead.
	Mailer notifications.Mailer
	// Version is reported by GET /version.
	Version string
}

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) starts them with Start
// and stops them with Shutdown after the HTTP server has drained.
type BackgroundServices struct {
	sweeper      *jobs.PendingUserSweeper
	rateLimiters []*middleware.RateLimiter
}

// Start launches the background jobs.
func (bg *BackgroundServices) Start(ctx context.Context) {
	if bg.sweeper != nil {
		bg.sweeper.Start(ctx)
	}
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.sweeper != nil {
		bg.sweeper.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB, deps Dependencies) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	userRepo := repositories.NewUserRepository(db)
	pendingRepo := repositories.NewPendingUserRepository(db)
	bg.sweeper = jobs.NewPendingUserSweeper(pendingRepo, cfg.Invitations.SweepInterval)

	mailer := deps.Mailer
	if mailer == nil {
		mailer = notifications.LogMailer{}
	}
	notifier := notifications.NewNotifier(mailer, cfg.Notifications.SMTP.From)

	// Session revocation and rate limiting share Redis when it is configured.
	var (
		revocations    auth.RevocationStore
		authLimiter    middleware.Limiter
		generalLimiter middleware.Limiter
	)
	generalCfg := middleware.DefaultRateLimitConfig(cfg.Security.RateLimiting)
	if deps.Redis != nil {
		revocations = auth.NewRedisRevocationStore(deps.Redis)
		limiter := redis_rate.NewLimiter(deps.Redis)
		authLimiter = middleware.NewRedisRateLimiter(limiter, middleware.AuthRateLimitConfig())
		generalLimiter = middleware.NewRedisRateLimiter(limiter, generalCfg)
	} else {
		revocations = auth.NewMemoryRevocationStore()
		authMem := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
		generalMem := middleware.NewRateLimiter(generalCfg)
		bg.rateLimiters = append(bg.rateLimiters, authMem, generalMem)
		authLimiter, generalLimiter = authMem, generalMem
	}

	accountHandlers := accounts.NewHandlers(cfg, db, notifier, revocations)
	directoryHandlers := directory.NewHandlers(db)
	mapHandlers := maps.NewHandlers(db)

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger())
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig(cfg.Security.TLS)))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/version", versionHandler(deps.Version))

	apiV1 := router.Group("/api/v1")
	{
		limitAuth := middleware.RateLimitMiddleware(authLimiter)
		limitGeneral := middleware.RateLimitMiddleware(generalLimiter)

		// Public account endpoints (no auth required, but rate limited)
		publicGroup := apiV1.Group("")
		publicGroup.Use(limitAuth)
		{
			publicGroup.POST("/organizations/signup", accountHandlers.Signup)
			publicGroup.POST("/auth/login", accountHandlers.Login)
			publicGroup.GET("/invitations/:token", accountHandlers.Preview)
			publicGroup.POST("/users/register/:token", accountHandlers.Register)
		}

		// Authenticated-only endpoints
		authenticatedGroup := apiV1.Group("")
		authenticatedGroup.Use(middleware.AuthMiddleware(userRepo, revocations))
		if cfg.Security.RateLimiting.Enabled {
			authenticatedGroup.Use(limitGeneral)
		}
		{
			authenticatedGroup.POST("/auth/logout", accountHandlers.Logout)
			authenticatedGroup.GET("/auth/me", accountHandlers.Me)

			// Global taxonomies
			authenticatedGroup.GET("/levels", directoryHandlers.ListLevels)
			authenticatedGroup.GET("/functions", directoryHandlers.ListFunctions)
			authenticatedGroup.GET("/states", directoryHandlers.ListStates)
			authenticatedGroup.GET("/countries", directoryHandlers.ListCountries)

			orgGroup := authenticatedGroup.Group("/organizations/:org_id")
			orgGroup.Use(middleware.RequireOrganizationAccess("org_id"))
			{
				orgGroup.GET("", directoryHandlers.Home)
				orgGroup.POST("/invitations", middleware.RequireAdmin(), accountHandlers.Invite)

				companies := orgGroup.Group("/companies")
				{
					companies.GET("", directoryHandlers.ListCompanies)
					companies.POST("", directoryHandlers.CreateCompany)
					companies.GET("/search", directoryHandlers.SearchCompanies)
					companies.GET("/:id", directoryHandlers.GetCompany)
					companies.PUT("/:id", directoryHandlers.UpdateCompany)
					companies.DELETE("/:id", directoryHandlers.DeleteCompany)
					companies.GET("/:id/employees", directoryHandlers.ListEmployees)
					companies.GET("/:id/alumni", directoryHandlers.ListAlumni)
				}

				profiles := orgGroup.Group("/profiles")
				{
					profiles.GET("", directoryHandlers.ListProfiles)
					profiles.POST("", directoryHandlers.CreateProfile)
					profiles.GET("/:id", directoryHandlers.GetProfile)
					profiles.PUT("/:id", directoryHandlers.UpdateProfile)
					profiles.DELETE("/:id", directoryHandlers.DeleteProfile)
					profiles.GET("/:id/roles", directoryHandlers.ListRoles)
					profiles.POST("/:id/roles", directoryHandlers.CreateRole)
				}

				roles := orgGroup.Group("/roles")
				{
					roles.PUT("/:id", directoryHandlers.UpdateRole)
					roles.DELETE("/:id", directoryHandlers.DeleteRole)
					roles.POST("/:id/primary", directoryHandlers.SetPrimaryRole)
				}

				mapsGroup := orgGroup.Group("/maps")
				{
					mapsGroup.GET("", mapHandlers.List)
					mapsGroup.POST("", mapHandlers.Create)
					mapsGroup.GET("/:id", mapHandlers.Get)
					mapsGroup.PUT("/:id", mapHandlers.Update)
					mapsGroup.DELETE("/:id", mapHandlers.Delete)
				}
			}
		}
	}

	return router, bg
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the build version
func versionHandler(version string) gin.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     version,
			"api_version": "v1",
		})
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	methods := strings.Join(cfg.Security.CORS.AllowedMethods, ", ")
	if methods == "" {
		methods = "GET, POST, PUT, DELETE, OPTIONS"
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
