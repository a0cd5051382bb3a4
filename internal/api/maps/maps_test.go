package maps

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/talenttree/talenttree/internal/middleware"
	"github.com/talenttree/talenttree/internal/tenant"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const orgID = int64(5)

var (
	mapCols     = []string{"id", "name", "level_id", "organization_id", "created_at"}
	companyCols = []string{"id", "domain", "name", "organization_id", "api_company_id", "created_at"}
	profileCols = []string{"id", "linkedin_url", "first_name", "last_name", "headline", "city",
		"state_id", "country_id", "organization_id", "created_at"}
)

func newMapsRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewHandlers(db)
	r := gin.New()
	g := r.Group("/orgs/:org_id", func(c *gin.Context) {
		c.Set(middleware.CallerKey, tenant.Caller{Email: "ada@acme.test", OrganizationID: orgID})
		c.Next()
	}, middleware.RequireOrganizationAccess("org_id"))
	g.GET("/maps", h.List)
	g.POST("/maps", h.Create)
	g.GET("/maps/:id", h.Get)
	g.PUT("/maps/:id", h.Update)
	g.DELETE("/maps/:id", h.Delete)
	return mock, r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// Render
// ---------------------------------------------------------------------------

func TestGet_RendersGrid(t *testing.T) {
	mock, r := newMapsRouter(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM maps m WHERE m.id").WithArgs(int64(3), orgID).
		WillReturnRows(sqlmock.NewRows(mapCols).AddRow(3, "Hiring", 2, orgID, now))
	mock.ExpectQuery("SELECT id, name FROM levels WHERE id").WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "VP"))
	mock.ExpectQuery("FROM map_functions").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(10, "Engineering").AddRow(11, "Sales"))
	mock.ExpectQuery("FROM map_companies").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(companyCols).AddRow(7, "acme.com", "Acme", orgID, nil, now))
	mock.ExpectQuery("FROM roles r").WithArgs(int64(7), int64(2), int64(10), orgID).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow(40, "https://linkedin.com/in/grace", "Grace", "Hopper", "", "", nil, nil, orgID, now))
	mock.ExpectQuery("FROM roles r").WithArgs(int64(7), int64(2), int64(11), orgID).
		WillReturnRows(sqlmock.NewRows(profileCols))
	mock.ExpectCommit()

	w := do(r, http.MethodGet, "/orgs/5/maps/3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}

	var grid struct {
		Headers []string `json:"headers"`
		Rows    []struct {
			Company struct {
				Domain string `json:"domain"`
			} `json:"company"`
			Cells []*struct {
				FirstName string `json:"first_name"`
			} `json:"cells"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &grid); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	wantHeaders := []string{"VP Engineering ", "VP Sales "}
	if len(grid.Headers) != 2 || grid.Headers[0] != wantHeaders[0] || grid.Headers[1] != wantHeaders[1] {
		t.Errorf("headers = %q, want %q", grid.Headers, wantHeaders)
	}
	if len(grid.Rows) != 1 || grid.Rows[0].Company.Domain != "acme.com" {
		t.Fatalf("rows = %+v", grid.Rows)
	}
	cells := grid.Rows[0].Cells
	if len(cells) != 2 || cells[0] == nil || cells[0].FirstName != "Grace" || cells[1] != nil {
		t.Errorf("cells = %+v, want [Grace, null]", cells)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGet_MapNotFound(t *testing.T) {
	mock, r := newMapsRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM maps m WHERE m.id").WithArgs(int64(3), orgID).
		WillReturnRows(sqlmock.NewRows(mapCols))
	mock.ExpectRollback()

	if w := do(r, http.MethodGet, "/orgs/5/maps/3", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Create / Update / Delete
// ---------------------------------------------------------------------------

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"level_id": 1, "function_ids": []int{1}, "company_ids": []int{1}}},
		{"no functions", gin.H{"name": "m", "level_id": 1, "function_ids": []int{}, "company_ids": []int{1}}},
		{"no companies", gin.H{"name": "m", "level_id": 1, "function_ids": []int{1}}},
		{"zero id", gin.H{"name": "m", "level_id": 1, "function_ids": []int{0}, "company_ids": []int{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, r := newMapsRouter(t)
			if w := do(r, http.MethodPost, "/orgs/5/maps", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("no queries expected: %v", err)
			}
		})
	}
}

func TestList(t *testing.T) {
	mock, r := newMapsRouter(t)
	mock.ExpectQuery("FROM maps m").WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows(mapCols).AddRow(3, "Hiring", 2, orgID, time.Now()))

	w := do(r, http.MethodGet, "/orgs/5/maps", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Maps []map[string]interface{} `json:"maps"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Maps) != 1 || body.Maps[0]["name"] != "Hiring" {
		t.Errorf("maps = %v", body.Maps)
	}
}

func TestDelete_NotInScope(t *testing.T) {
	mock, r := newMapsRouter(t)
	mock.ExpectExec("DELETE FROM maps").WithArgs(int64(3), orgID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if w := do(r, http.MethodDelete, "/orgs/5/maps/3", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdate_BadID(t *testing.T) {
	_, r := newMapsRouter(t)
	w := do(r, http.MethodPut, "/orgs/5/maps/x", gin.H{
		"name": "m", "level_id": 1, "function_ids": []int{1}, "company_ids": []int{1},
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
