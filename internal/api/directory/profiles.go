// profiles.go implements profile CRUD. A profile can be created together with its primary
// role in one transaction.
package directory

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talenttree/talenttree/internal/api/respond"
	"github.com/talenttree/talenttree/internal/db/models"
)

// ProfileRequest creates or updates a profile. PrimaryRole is only read on create.
type ProfileRequest struct {
	LinkedInURL string       `json:"linkedin_url" binding:"required,url"`
	FirstName   string       `json:"first_name" binding:"required"`
	LastName    string       `json:"last_name" binding:"required"`
	Headline    string       `json:"headline"`
	City        string       `json:"city"`
	StateID     string       `json:"state_id"`
	CountryID   string       `json:"country_id"`
	PrimaryRole *RoleRequest `json:"primary_role"`
}

func optionalCode(s string) *string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

func (r ProfileRequest) toProfile() *models.Profile {
	return &models.Profile{
		LinkedInURL: strings.TrimSpace(r.LinkedInURL),
		FirstName:   strings.TrimSpace(r.FirstName),
		LastName:    strings.TrimSpace(r.LastName),
		Headline:    strings.TrimSpace(r.Headline),
		City:        strings.TrimSpace(r.City),
		StateID:     optionalCode(r.StateID),
		CountryID:   optionalCode(r.CountryID),
	}
}

// @Summary      List profiles
// @Description  Returns the organization's profiles.
// @Tags         Profiles
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Success      200  {object}  map[string]interface{}  "profiles"
// @Failure      403  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/organizations/{org_id}/profiles [get]
// ListProfiles returns the organization's profiles
func (h *Handlers) ListProfiles(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	profiles, err := h.profiles.List(c.Request.Context(), scope)
	if err != nil {
		respond.Error(c, err, "list profiles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// @Summary      Create profile
// @Description  Adds a tracked person. With primary_role set, the role is stored as the profile's primary role in the same transaction.
// @Tags         Profiles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        org_id  path  int             true  "Organization ID"
// @Param        body    body  ProfileRequest  true  "Profile, optionally with its primary role"
// @Success      201  {object}  map[string]interface{}  "profile, primary_role"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      409  {object}  map[string]interface{}  "profile already exists"
// @Router       /api/v1/organizations/{org_id}/profiles [post]
// CreateProfile adds a profile
func (h *Handlers) CreateProfile(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	profile := req.toProfile()
	if req.PrimaryRole == nil {
		if err := h.profiles.Create(c.Request.Context(), scope, profile); err != nil {
			respond.Error(c, err, "create profile")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"profile": profile, "primary_role": nil})
		return
	}

	role, err := req.PrimaryRole.toRole()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.profiles.CreateWithPrimaryRole(c.Request.Context(), scope, profile, role); err != nil {
		respond.Error(c, err, "create profile")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile, "primary_role": role})
}

// @Summary      Get profile
// @Description  Returns a profile with its primary role, or null when it has none.
// @Tags         Profiles
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Profile ID"
// @Success      200  {object}  map[string]interface{}  "profile, primary_role"
// @Failure      404  {object}  map[string]interface{}  "Profile not found"
// @Router       /api/v1/organizations/{org_id}/profiles/{id} [get]
// GetProfile returns a profile with its primary role
func (h *Handlers) GetProfile(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Profile")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	profile, err := h.profiles.GetByID(ctx, scope, id)
	if err != nil {
		respond.Error(c, err, "retrieve profile")
		return
	}
	if profile == nil {
		respond.NotFound(c, "Profile")
		return
	}

	primary, err := h.employment.PrimaryRole(ctx, scope, id)
	if err != nil {
		respond.Error(c, err, "retrieve primary role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile, "primary_role": primary})
}

// @Summary      Update profile
// @Description  Rewrites a profile's fields. Roles are managed through the role endpoints.
// @Tags         Profiles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Profile ID"
// @Param        body    body  ProfileRequest  true  "Profile"
// @Success      200  {object}  map[string]interface{}  "profile"
// @Failure      404  {object}  map[string]interface{}  "Profile not found"
// @Failure      409  {object}  map[string]interface{}  "profile already exists"
// @Router       /api/v1/organizations/{org_id}/profiles/{id} [put]
// UpdateProfile rewrites a profile's fields
func (h *Handlers) UpdateProfile(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Profile")
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	profile := req.toProfile()
	profile.ID = id
	if err := h.profiles.Update(c.Request.Context(), scope, profile); err != nil {
		respond.Error(c, err, "update profile")
		return
	}
	orgID := scope.OrganizationID
	profile.OrganizationID = &orgID
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// @Summary      Delete profile
// @Description  Deletes a profile. Its roles are kept with no profile.
// @Tags         Profiles
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Profile ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Profile not found"
// @Router       /api/v1/organizations/{org_id}/profiles/{id} [delete]
// DeleteProfile removes a profile; its roles are kept with no profile
func (h *Handlers) DeleteProfile(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Profile")
	if !ok {
		return
	}
	if err := h.profiles.Delete(c.Request.Context(), scope, id); err != nil {
		respond.Error(c, err, "delete profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile deleted"})
}
