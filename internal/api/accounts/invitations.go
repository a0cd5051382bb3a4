// invitations.go implements the invite, preview and token registration endpoints.
package accounts

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talenttree/talenttree/internal/api/respond"
	"github.com/talenttree/talenttree/internal/auth"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/db/repositories"
	"github.com/talenttree/talenttree/internal/invitations"
)

// InviteRequest invites an email into the caller's organization.
type InviteRequest struct {
	Email   string `json:"email" binding:"required"`
	IsAdmin bool   `json:"is_admin"`
}

// RegisterRequest sets the password of the account a token creates.
type RegisterRequest struct {
	Password string `json:"password" binding:"required"`
	Confirm  string `json:"confirm" binding:"required"`
}

// tokenError writes the response for a preview or redeem failure.
func tokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, invitations.ErrTokenExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Invitation has expired. Ask your admin to invite you again."})
	case errors.Is(err, invitations.ErrTokenInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invitation token"})
	default:
		respond.Error(c, err, "redeem invitation")
	}
}

// @Summary      Invite a member
// @Description  Emails a single-use registration link to a new member. Re-inviting an email replaces its earlier invitation. Admin only.
// @Tags         Accounts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        org_id  path  int            true  "Organization ID"
// @Param        body    body  InviteRequest  true  "Invitee"
// @Success      201  {object}  map[string]interface{}  "invitation"
// @Success      202  {object}  map[string]interface{}  "invitation stored, email not sent"
// @Failure      403  {object}  map[string]interface{}  "Access Unauthorized"
// @Failure      409  {object}  map[string]interface{}  "Already registered"
// @Router       /api/v1/organizations/{org_id}/invitations [post]
// Invite stores an invitation and emails its link
func (h *Handlers) Invite(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	p, err := h.invites.Invite(c.Request.Context(), req.Email, req.IsAdmin, scope.OrganizationID)
	var delivery *invitations.DeliveryError
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"invitation": p})
	case errors.As(err, &delivery):
		slog.Warn("invitation email failed", "email", delivery.Pending.Email, "error", delivery.Err)
		c.JSON(http.StatusAccepted, gin.H{
			"invitation": delivery.Pending,
			"warning":    "invitation saved but the email could not be sent",
		})
	case errors.Is(err, invitations.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
	case errors.Is(err, invitations.ErrAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": "User is already registered"})
	default:
		respond.Error(c, err, "create invitation")
	}
}

// @Summary      Preview invitation
// @Description  Shows the invited email and organization without consuming the token.
// @Tags         Accounts
// @Produce      json
// @Param        token  path  string  true  "Invitation token"
// @Success      200  {object}  map[string]interface{}  "invitation"
// @Failure      400  {object}  map[string]interface{}  "Invalid token"
// @Failure      410  {object}  map[string]interface{}  "Invitation expired"
// @Router       /api/v1/invitations/{token} [get]
// Preview shows who an invitation is for without consuming it
func (h *Handlers) Preview(c *gin.Context) {
	p, err := h.invites.Preview(c.Request.Context(), c.Param("token"))
	if err != nil {
		tokenError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitation": p})
}

// @Summary      Register with an invitation
// @Description  Redeems the invitation token, creates the account with the invited admin flag and logs it in. The token is single-use.
// @Tags         Accounts
// @Accept       json
// @Produce      json
// @Param        token  path  string           true  "Invitation token"
// @Param        body   body  RegisterRequest  true  "Password and confirmation"
// @Success      201  {object}  map[string]interface{}  "token, expires_at, user"
// @Failure      400  {object}  map[string]interface{}  "Invalid token or password"
// @Failure      410  {object}  map[string]interface{}  "Invitation expired"
// @Router       /api/v1/users/register/{token} [post]
// Register redeems an invitation and creates the account
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	// Passwords are checked first so a typo does not burn the token.
	if err := auth.ValidateNewPassword(req.Password, req.Confirm); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hash, err := auth.HashPassword(req.Password, h.cfg.Auth.BcryptCost)
	if err != nil {
		respond.Error(c, err, "create account")
		return
	}

	redemption, err := h.invites.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		tokenError(c, err)
		return
	}

	orgID := redemption.OrganizationID
	user := &models.User{
		Email:          redemption.Email,
		PasswordHash:   hash,
		OrganizationID: &orgID,
		IsAdmin:        redemption.IsAdmin,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": UsernameTakenMessage})
			return
		}
		respond.Error(c, err, "create account")
		return
	}

	token, claims, err := auth.GenerateJWT(callerOf(user), h.cfg.Auth.JWTExpiry)
	if err != nil {
		respond.Error(c, err, "create session")
		return
	}

	body := session(token, claims, user)
	if err := h.notifier.SendConfirmation(c.Request.Context(), user.Email); err != nil {
		slog.Warn("registration confirmation email failed", "email", user.Email, "error", err)
		body["warning"] = mailWarning
	}
	c.JSON(http.StatusCreated, body)
}
