// companies.go implements company CRUD, the employee/alumni split and domain search.
package directory

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talenttree/talenttree/internal/api/respond"
	"github.com/talenttree/talenttree/internal/db/models"
)

// CompanyRequest creates or updates a company
type CompanyRequest struct {
	Domain string `json:"domain" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

// normalizeDomain lowercases a domain and strips surrounding whitespace.
func normalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

// @Summary      List companies
// @Description  Returns the organization's companies.
// @Tags         Companies
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Success      200  {object}  map[string]interface{}  "companies"
// @Failure      403  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/organizations/{org_id}/companies [get]
// ListCompanies returns the organization's companies
func (h *Handlers) ListCompanies(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	companies, err := h.companies.List(c.Request.Context(), scope)
	if err != nil {
		respond.Error(c, err, "list companies")
		return
	}
	if companies == nil {
		companies = []*models.Company{}
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// @Summary      Create company
// @Description  Adds a company to the organization. Domains are unique within an organization.
// @Tags         Companies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        org_id  path  int             true  "Organization ID"
// @Param        body    body  CompanyRequest  true  "Domain and name"
// @Success      201  {object}  map[string]interface{}  "company"
// @Failure      409  {object}  map[string]interface{}  "company already exists"
// @Router       /api/v1/organizations/{org_id}/companies [post]
// CreateCompany adds a company
func (h *Handlers) CreateCompany(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	company := &models.Company{Domain: normalizeDomain(req.Domain), Name: strings.TrimSpace(req.Name)}
	if err := h.companies.Create(c.Request.Context(), scope, company); err != nil {
		respond.Error(c, err, "create company")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"company": company})
}

// @Summary      Get company
// @Description  Returns one company of the organization.
// @Tags         Companies
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Company ID"
// @Success      200  {object}  map[string]interface{}  "company"
// @Failure      404  {object}  map[string]interface{}  "Company not found"
// @Router       /api/v1/organizations/{org_id}/companies/{id} [get]
// GetCompany returns one company
func (h *Handlers) GetCompany(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Company")
	if !ok {
		return
	}

	company, err := h.companies.GetByID(c.Request.Context(), scope, id)
	if err != nil {
		respond.Error(c, err, "retrieve company")
		return
	}
	if company == nil {
		respond.NotFound(c, "Company")
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": company})
}

// @Summary      Update company
// @Description  Changes a company's domain and name. Domains stay unique within the organization.
// @Tags         Companies
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Company ID"
// @Param        body    body  CompanyRequest  true  "Domain and name"
// @Success      200  {object}  map[string]interface{}  "company"
// @Failure      404  {object}  map[string]interface{}  "Company not found"
// @Failure      409  {object}  map[string]interface{}  "company already exists"
// @Router       /api/v1/organizations/{org_id}/companies/{id} [put]
// UpdateCompany changes a company's domain and name
func (h *Handlers) UpdateCompany(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Company")
	if !ok {
		return
	}
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	company := &models.Company{ID: id, Domain: normalizeDomain(req.Domain), Name: strings.TrimSpace(req.Name)}
	if err := h.companies.Update(c.Request.Context(), scope, company); err != nil {
		respond.Error(c, err, "update company")
		return
	}
	orgID := scope.OrganizationID
	company.OrganizationID = &orgID
	c.JSON(http.StatusOK, gin.H{"company": company})
}

// @Summary      Delete company
// @Description  Deletes a company. Roles at the company are kept with no company.
// @Tags         Companies
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Company ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "Company not found"
// @Router       /api/v1/organizations/{org_id}/companies/{id} [delete]
// DeleteCompany removes a company; its roles are kept with no company
func (h *Handlers) DeleteCompany(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Company")
	if !ok {
		return
	}
	if err := h.companies.Delete(c.Request.Context(), scope, id); err != nil {
		respond.Error(c, err, "delete company")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Company deleted"})
}

// @Summary      List employees
// @Description  Returns the profiles whose primary role is a current role at the company.
// @Tags         Companies
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Company ID"
// @Success      200  {object}  map[string]interface{}  "company, employees"
// @Failure      404  {object}  map[string]interface{}  "Company not found"
// @Router       /api/v1/organizations/{org_id}/companies/{id}/employees [get]
// ListEmployees returns profiles currently employed at the company
func (h *Handlers) ListEmployees(c *gin.Context) {
	h.listPeople(c, true)
}

// @Summary      List alumni
// @Description  Returns the profiles with an ended role at the company who are not currently employed there.
// @Tags         Companies
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        id      path  int  true  "Company ID"
// @Success      200  {object}  map[string]interface{}  "company, alumni"
// @Failure      404  {object}  map[string]interface{}  "Company not found"
// @Router       /api/v1/organizations/{org_id}/companies/{id}/alumni [get]
// ListAlumni returns profiles formerly employed at the company
func (h *Handlers) ListAlumni(c *gin.Context) {
	h.listPeople(c, false)
}

func (h *Handlers) listPeople(c *gin.Context, current bool) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	id, ok := respond.ParamID(c, "id", "Company")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	company, err := h.companies.GetByID(ctx, scope, id)
	if err != nil {
		respond.Error(c, err, "retrieve company")
		return
	}
	if company == nil {
		respond.NotFound(c, "Company")
		return
	}

	var profiles []*models.Profile
	key := "employees"
	if current {
		profiles, err = h.employment.Employees(ctx, scope, id)
	} else {
		key = "alumni"
		profiles, err = h.employment.Alumni(ctx, scope, id)
	}
	if err != nil {
		respond.Error(c, err, "list "+key)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": company, key: profiles})
}

// @Summary      Search companies
// @Description  Returns the domains of companies whose name or domain contains q, case-insensitively.
// @Tags         Companies
// @Security     Bearer
// @Produce      json
// @Param        org_id  path  int  true  "Organization ID"
// @Param        q       query  string  false  "Search text"
// @Success      200  {object}  map[string]interface{}  "domains"
// @Failure      403  {object}  map[string]interface{}  "Access Unauthorized"
// @Router       /api/v1/organizations/{org_id}/companies/search [get]
// SearchCompanies returns the domains of companies whose name or domain contains q
// GET /companies/search?q=acme
func (h *Handlers) SearchCompanies(c *gin.Context) {
	scope, ok := respond.Scope(c)
	if !ok {
		return
	}
	domains, err := h.companies.SearchDomains(c.Request.Context(), scope, strings.TrimSpace(c.Query("q")))
	if err != nil {
		respond.Error(c, err, "search companies")
		return
	}
	c.JSON(http.StatusOK, gin.H{"domains": domains})
}
