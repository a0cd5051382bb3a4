// roles.go implements role listing and editing, including moving a profile's primary flag.
package directory

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talenttree/talenttree/internal/api/respond"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/employment"
)

// RoleRequest creates or updates a role. Dates use YYYY-MM-DD; an empty end_date means the
// role is current. IsPrimary is only read on create.
type RoleRequest struct {
	CompanyID   int64   `json:"company_id" binding:"required"`
	LevelID     int64   `json:"level_id" binding:"required"`
	FunctionIDs []int64 `json:"function_ids" binding:"required,min=1"`
	StartDate   string  `json:"start_date" binding:"required"`
	EndDate     string  `json:"end_date"`
	IsPrimary   bool    `json:"is_primary"`
}

func (r RoleRequest) toRole() (*models.Role, error) {
	start, err := respond.ParseDate(r.StartDate)
	if err != nil {
		return nil, err
	}
	if start == nil {
		return nil, errors.New("start_date is required")
	}
	end, err := respond.ParseDate(r.EndDate)
	if err != nil {
		return nil, err
	}

	companyID, levelID := r.CompanyID, r.LevelID
	role := &models.Role{
		CompanyID: &companyID,
		LevelID:   &levelID,
		StartDate: *start,
		EndDate:   end,
		IsPrimary: r.IsPrimary,
		Functions: make([]models.Function, len(r.FunctionIDs)),
	}
	for i, id := range r.FunctionIDs {
		role.Functions[i] = models.Function{ID: id}
	}
	if err := role.Validate(); err != nil {
		return nil, err
	}
	return role, nil
}

// @Summary      List roles
// @Description  Returns a profile's roles split into current (no end date) and past.
// @Tags         Roles
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Profile ID"
// @Success      200  {object}  map[string]interface{}  "profile, current, past"
// @Failure      404  {object}  map[string]interface{}  "Profile not found"
// @Router       /api/v1/organizations/{org_id}/profiles/{id}/roles [get]
// ListRoles returns a profile's roles split into current and past
func (h *Handlers) ListRoles(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	profileID, ok := respond.ParamID(c, "id", "Profile")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	profile, err := h.profiles.GetByID(ctx, scope, profileID)
	if err != nil {
		respond.Error(c, err, "retrieve profile")
		return
	}
	if profile == nil {
		respond.NotFound(c, "Profile")
		return
	}

	roles, err := h.roles.ListByProfile(ctx, scope, profileID)
	if err != nil {
		respond.Error(c, err, "list roles")
		return
	}
	current, past := employment.Split(roles)
	if current == nil {
		current = []*models.Role{}
	}
	if past == nil {
		past = []*models.Role{}
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile, "current": current, "past": past})
}

// @Summary      Add role
// @Description  Adds an employment stint to a profile. With is_primary set, every other role of the profile loses the flag in the same transaction.
// @Tags         Roles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        org_id  path  int          true  "Organization ID"
// @Param        id      path  int          true  "Profile ID"
// @Param        body    body  RoleRequest  true  "Role"
// @Success      201  {object}  map[string]interface{}  "role"
// @Failure      400  {object}  map[string]interface{}  "Invalid role"
// @Failure      404  {object}  map[string]interface{}  "Profile not found"
// @Router       /api/v1/organizations/{org_id}/profiles/{id}/roles [post]
// CreateRole adds a role to a profile
func (h *Handlers) CreateRole(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	profileID, ok := respond.ParamID(c, "id", "Profile")
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	role, err := req.toRole()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profiles.GetByID(c.Request.Context(), scope, profileID)
	if err != nil {
		respond.Error(c, err, "retrieve profile")
		return
	}
	if profile == nil {
		respond.NotFound(c, "Profile")
		return
	}

	role.ProfileID = &profileID
	if err := h.roles.Create(c.Request.Context(), scope, role); err != nil {
		respond.Error(c, err, "create role")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"role": role})
}

// @Summary      Update role
// @Description  Rewrites a role's company, level, dates and functions. The primary flag is left alone.
// @Tags         Roles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Role ID"
// @Param        body    body  RoleRequest  true  "Role"
// @Success      200  {object}  map[string]interface{}  "role"
// @Failure      400  {object}  map[string]interface{}  "Invalid role"
// @Failure      404  {object}  map[string]interface{}  "Role not found"
// @Router       /api/v1/organizations/{org_id}/roles/{id} [put]
// UpdateRole rewrites a role's company, level, dates and functions
func (h *Handlers) UpdateRole(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Role")
	if !ok {
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}
	role, err := req.toRole()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role.ID = id
	if err := h.roles.Update(c.Request.Context(), scope, role); err != nil {
		respond.Error(c, err, "update role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

// @Summary      Set primary role
// @Description  Flags the role as its profile's primary role and clears the flag on the profile's other roles.
// @Tags         Roles
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Role ID"
// @Success      200  {object}  map[string]interface{}  "role"
// @Failure      404  {object}  map[string]interface{}  "Role not found"
// @Router       /api/v1/organizations/{org_id}/roles/{id}/primary [post]
// SetPrimaryRole makes the role its profile's only primary role
func (h *Handlers) SetPrimaryRole(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Role")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.roles.SetPrimary(ctx, scope, id); err != nil {
		respond.Error(c, err, "set primary role")
		return
	}
	role, err := h.roles.GetByID(ctx, scope, id)
	if err != nil {
		respond.Error(c, err, "retrieve role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

// @Summary      Delete role
// @Description  Deletes a role and its function associations.
// @Tags         Roles
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Role ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Role not found"
// @Router       /api/v1/organizations/{org_id}/roles/{id} [delete]
// DeleteRole removes a role
func (h *Handlers) DeleteRole(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Role")
	if !ok {
		return
	}
	if err := h.roles.Delete(c.Request.Context(), scope, id); err != nil {
		respond.Error(c, err, "delete role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role deleted"})
}
