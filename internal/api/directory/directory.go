// Package directory implements the tenant-scoped directory endpoints: the organization home
// page, companies, profiles, roles and the global taxonomies.
//
// Every handler except the taxonomy ones is mounted behind
// middleware.RequireOrganizationAccess and reads its tenant.Scope from the context.
package directory

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/talenttree/talenttree/internal/api/respond"
	"github.com/talenttree/talenttree/internal/db/repositories"
	"github.com/talenttree/talenttree/internal/employment"
)

// Handlers serves the directory endpoints
type Handlers struct {
	orgs       *repositories.OrganizationRepository
	users      *repositories.UserRepository
	companies  *repositories.CompanyRepository
	profiles   *repositories.ProfileRepository
	roles      *repositories.RoleRepository
	maps       *repositories.MapRepository
	taxonomy   *repositories.TaxonomyRepository
	employment *employment.Resolver
}

// NewHandlers creates the directory handlers over db
func NewHandlers(db *sql.DB) *Handlers {
	sqlxDB := sqlx.NewDb(db, "postgres")
	roles := repositories.NewRoleRepository(sqlxDB)
	return &Handlers{
		orgs:       repositories.NewOrganizationRepository(db),
		users:      repositories.NewUserRepository(db),
		companies:  repositories.NewCompanyRepository(db),
		profiles:   repositories.NewProfileRepository(sqlxDB),
		roles:      roles,
		maps:       repositories.NewMapRepository(sqlxDB),
		taxonomy:   repositories.NewTaxonomyRepository(sqlxDB),
		employment: employment.NewResolver(roles),
	}
}

// @Summary      Organization home
// @Description  Returns the organization with its member accounts and saved maps.
// @Tags         Directory
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Success      200  {object}  map[string]interface{}  "organization, users, maps"
// @Failure      403  {object}  map[string]interface{}  "Access Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Organization not found"
// @Router       /api/v1/organizations/{org_id} [get]
// Home returns the organization overview
func (h *Handlers) Home(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	org, err := h.orgs.GetByID(ctx, scope.OrganizationID)
	if err != nil {
		respond.Error(c, err, "retrieve organization")
		return
	}
	if org == nil {
		respond.NotFound(c, "Organization")
		return
	}

	users, err := h.users.ListByOrganization(ctx, scope)
	if err != nil {
		respond.Error(c, err, "list users")
		return
	}
	maps, err := h.maps.List(ctx, scope)
	if err != nil {
		respond.Error(c, err, "list maps")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organization": org,
		"users":        users,
		"maps":         maps,
	})
}

// @Summary      List levels
// @Description  Returns the global seniority levels.
// @Tags         Taxonomies
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "levels"
// @Failure      401  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/levels [get]
// ListLevels returns the seniority levels
func (h *Handlers) ListLevels(c *gin.Context) {
	levels, err := h.taxonomy.ListLevels(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "list levels")
		return
	}
	c.JSON(http.StatusOK, gin.H{"levels": levels})
}

// @Summary      List functions
// @Description  Returns the global job functions.
// @Tags         Taxonomies
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "functions"
// @Failure      401  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/functions [get]
// ListFunctions returns the job functions
func (h *Handlers) ListFunctions(c *gin.Context) {
	functions, err := h.taxonomy.ListFunctions(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "list functions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"functions": functions})
}

// @Summary      List states
// @Description  Returns the US states keyed by two-letter code.
// @Tags         Taxonomies
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "states"
// @Failure      401  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/states [get]
// ListStates returns the US states
func (h *Handlers) ListStates(c *gin.Context) {
	states, err := h.taxonomy.ListStates(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "list states")
		return
	}
	c.JSON(http.StatusOK, gin.H{"states": states})
}

// @Summary      List countries
// @Description  Returns the countries keyed by three-letter code.
// @Tags         Taxonomies
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "countries"
// @Failure      401  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/countries [get]
// ListCountries returns the countries
func (h *Handlers) ListCountries(c *gin.Context) {
	countries, err := h.taxonomy.ListCountries(c.Request.Context())
	if err != nil {
		respond.Error(c, err, "list countries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}
