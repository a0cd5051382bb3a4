// Package accounts implements the HTTP handlers for organization signup, password login,
// logout, invitations and token-based registration.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/talenttree/talenttree/internal/api/respond"
	"github.com/talenttree/talenttree/internal/auth"
	"github.com/talenttree/talenttree/internal/config"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/db/repositories"
	"github.com/talenttree/talenttree/internal/invitations"
	"github.com/talenttree/talenttree/internal/middleware"
	"github.com/talenttree/talenttree/internal/tenant"
)

// Messages for the two signup conflicts.
const (
	OrganizationTakenMessage = "Organization already exists. Contact your admin for login information."
	UsernameTakenMessage     = "Username already taken"
)

// mailWarning is returned alongside a successful response whose email could not be sent.
const mailWarning = "confirmation email could not be sent"

// Notifier sends the account emails.
type Notifier interface {
	invitations.Sender
	SendConfirmation(ctx context.Context, to string) error
}

// Handlers serves the account endpoints
type Handlers struct {
	cfg         *config.Config
	users       *repositories.UserRepository
	orgs        *repositories.OrganizationRepository
	invites     *invitations.Service
	notifier    Notifier
	revocations auth.RevocationStore
}

// NewHandlers creates the account handlers. Invitation links are built from
// cfg.Server.BaseURL and cfg.Invitations.RegisterPath.
func NewHandlers(cfg *config.Config, db *sql.DB, notifier Notifier, revocations auth.RevocationStore) *Handlers {
	users := repositories.NewUserRepository(db)
	pending := repositories.NewPendingUserRepository(db)
	return &Handlers{
		cfg:   cfg,
		users: users,
		orgs:  repositories.NewOrganizationRepository(db),
		invites: invitations.NewService(users, pending, notifier, invitations.Options{
			TTL:         cfg.Invitations.TTL,
			TokenLength: cfg.Invitations.TokenLength,
			Link:        cfg.RegistrationURL,
		}),
		notifier:    notifier,
		revocations: revocations,
	}
}

// SignupRequest creates an organization and its first admin.
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Confirm  string `json:"confirm" binding:"required"`
}

// LoginRequest carries email and password credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// session is the body returned whenever a token is issued.
func session(token string, claims *auth.Claims, user *models.User) gin.H {
	return gin.H{
		"token":      token,
		"expires_at": claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
		"user":       user,
	}
}

func callerOf(user *models.User) tenant.Caller {
	caller := tenant.Caller{Email: user.Email, IsAdmin: user.IsAdmin}
	if user.OrganizationID != nil {
		caller.OrganizationID = *user.OrganizationID
	}
	return caller
}

// @Summary      Organization signup
// @Description  Creates an organization and its first admin account, then logs the admin in.
// @Tags         Accounts
// @Accept       json
// @Produce      json
// @Param        body  body  SignupRequest  true  "Organization name and admin credentials"
// @Success      201  {object}  map[string]interface{}  "organization, user, token, expires_at"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      409  {object}  map[string]interface{}  "Organization or username taken"
// @Router       /api/v1/organizations/signup [post]
// Signup creates an organization and its first admin
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	if err := auth.ValidateNewPassword(req.Password, req.Confirm); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password, h.cfg.Auth.BcryptCost)
	if err != nil {
		respond.Error(c, err, "create account")
		return
	}

	org := &models.Organization{Name: strings.TrimSpace(req.Name)}
	user := &models.User{Email: strings.TrimSpace(req.Email), PasswordHash: hash}
	if err := h.orgs.CreateWithAdmin(c.Request.Context(), org, user); err != nil {
		var conflict *repositories.ConflictError
		if errors.As(err, &conflict) {
			msg := UsernameTakenMessage
			if conflict.Entity == "organization" {
				msg = OrganizationTakenMessage
			}
			c.JSON(http.StatusConflict, gin.H{"error": msg})
			return
		}
		respond.Error(c, err, "create organization")
		return
	}

	token, claims, err := auth.GenerateJWT(callerOf(user), h.cfg.Auth.JWTExpiry)
	if err != nil {
		respond.Error(c, err, "create session")
		return
	}

	body := session(token, claims, user)
	body["organization"] = org
	if err := h.notifier.SendConfirmation(c.Request.Context(), user.Email); err != nil {
		slog.Warn("signup confirmation email failed", "email", user.Email, "error", err)
		body["warning"] = mailWarning
	}
	c.JSON(http.StatusCreated, body)
}

// @Summary      Login
// @Description  Exchanges email and password for a session token.
// @Tags         Accounts
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Credentials"
// @Success      200  {object}  map[string]interface{}  "token, expires_at, user"
// @Failure      401  {object}  map[string]interface{}  "Invalid email or password"
// @Router       /api/v1/auth/login [post]
// Login checks the credentials and issues a session token
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		respond.Error(c, err, "log in")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, claims, err := auth.GenerateJWT(callerOf(user), h.cfg.Auth.JWTExpiry)
	if err != nil {
		respond.Error(c, err, "create session")
		return
	}
	c.JSON(http.StatusOK, session(token, claims, user))
}

// @Summary      Logout
// @Description  Revokes the presented session token until its expiry.
// @Tags         Accounts
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      401  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/auth/logout [post]
// Logout revokes the presented session token until it would have expired.
func (h *Handlers) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, middleware.UnauthorizedBody)
		return
	}

	if err := h.revocations.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		respond.Error(c, err, "log out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// @Summary      Current user
// @Description  Returns the caller resolved from the session token.
// @Tags         Accounts
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user"
// @Failure      401  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/auth/me [get]
// Me returns the resolved caller.
func (h *Handlers) Me(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, middleware.UnauthorizedBody)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": caller})
}
