// Package maps implements the contact-map endpoints. A map is stored as configuration only;
// GET /maps/:id renders its grid from the current roles on every request.
package maps

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/talenttree/talenttree/internal/api/respond"
	"github.com/talenttree/talenttree/internal/contactmap"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/db/repositories"
)

// Handlers serves the map endpoints
type Handlers struct {
	maps *repositories.MapRepository
}

// NewHandlers creates the map handlers over db
func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{maps: repositories.NewMapRepository(sqlx.NewDb(db, "postgres"))}
}

// MapRequest creates or updates a map. Function and company ids keep their order, which is
// the column and row order of the rendered grid.
type MapRequest struct {
	Name        string  `json:"name" binding:"required"`
	LevelID     int64   `json:"level_id" binding:"required"`
	FunctionIDs []int64 `json:"function_ids" binding:"required,min=1,dive,gt=0"`
	CompanyIDs  []int64 `json:"company_ids" binding:"required,min=1,dive,gt=0"`
}

func (r MapRequest) toMap() *models.ContactMap {
	levelID := r.LevelID
	return &models.ContactMap{Name: strings.TrimSpace(r.Name), LevelID: &levelID}
}

// @Summary      List maps
// @Description  Returns the organization's saved map configurations.
// @Tags         Maps
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Success      200  {object}  map[string]interface{}  "maps"
// @Failure      403  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/organizations/{org_id}/maps [get]
// List returns the organization's maps
func (h *Handlers) List(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	maps, err := h.maps.List(c.Request.Context(), scope)
	if err != nil {
		respond.Error(c, err, "list maps")
		return
	}
	c.JSON(http.StatusOK, gin.H{"maps": maps})
}

// @Summary      Create map
// @Description  Stores a map configuration. function_ids are the grid columns and company_ids its rows, both in submitted order. Every company must belong to the organization.
// @Tags         Maps
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        body    body  MapRequest  true  "Name, level, functions and companies"
// @Success      201  {object}  map[string]interface{}  "map"
// @Failure      400  {object}  map[string]interface{}  "Invalid request, or a level, function or company outside the organization"
// @Router       /api/v1/organizations/{org_id}/maps [post]
// Create stores a map configuration
func (h *Handlers) Create(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	var req MapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	m := req.toMap()
	if err := h.maps.Create(c.Request.Context(), scope, m, req.FunctionIDs, req.CompanyIDs); err != nil {
		respond.Error(c, err, "create map")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"map": m})
}

// @Summary      Render map
// @Description  Returns the map configuration with its headers and one row per company. Each cell is the profile currently holding the map's level for that function at that company, or null. All cells are read from one snapshot.
// @Tags         Maps
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Map ID"
// @Success      200  {object}  contactmap.Grid
// @Failure      404  {object}  map[string]interface{}  "Map not found"
// @Router       /api/v1/organizations/{org_id}/maps/{id} [get]
// Get renders a map
func (h *Handlers) Get(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Map")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var grid *contactmap.Grid
	err := h.maps.Snapshot(ctx, func(s *repositories.MapSnapshot) error {
		var err error
		grid, err = contactmap.Render(ctx, s, scope, id)
		return err
	})
	if err != nil {
		respond.Error(c, err, "render map")
		return
	}
	c.JSON(http.StatusOK, grid)
}

// @Summary      Update map
// @Description  Replaces the map's name, level, functions and companies.
// @Tags         Maps
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Map ID"
// @Param        body    body  MapRequest  true  "Name, level, functions and companies"
// @Success      200  {object}  map[string]interface{}  "map"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      404  {object}  map[string]interface{}  "Map not found"
// @Router       /api/v1/organizations/{org_id}/maps/{id} [put]
// Update rewrites a map's name, level and associations
func (h *Handlers) Update(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Map")
	if !ok {
		return
	}
	var req MapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	m := req.toMap()
	m.ID = id
	if err := h.maps.Update(c.Request.Context(), scope, m, req.FunctionIDs, req.CompanyIDs); err != nil {
		respond.Error(c, err, "update map")
		return
	}
	orgID := scope.OrganizationID
	m.OrganizationID = &orgID
	c.JSON(http.StatusOK, gin.H{"map": m})
}

// @Summary      Delete map
// @Description  Deletes a map configuration. Directory data is untouched.
// @Tags         Maps
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Map ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Map not found"
// @Router       /api/v1/organizations/{org_id}/maps/{id} [delete]
// Delete removes a map
func (h *Handlers) Delete(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Map")
	if !ok {
		return
	}
	if err := h.maps.Delete(c.Request.Context(), scope, id); err != nil {
		respond.Error(c, err, "delete map")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Map deleted"})
}
