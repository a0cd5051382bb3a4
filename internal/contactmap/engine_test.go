package contactmap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/tenant"
)

// memorySource answers FindCurrentHolder by scanning roles the way the SQL does: company,
// level, function membership and a null end date, first match wins.
type memorySource struct {
	maps     map[int64]*models.ContactMap
	roles    []*models.Role
	profiles map[int64]*models.Profile
	lookups  int
	failOn   int64
}

func (s *memorySource) GetMap(_ context.Context, _ tenant.Scope, id int64) (*models.ContactMap, error) {
	return s.maps[id], nil
}

func (s *memorySource) FindCurrentHolder(_ context.Context, _ tenant.Scope, companyID, levelID, functionID int64) (*models.Profile, error) {
	s.lookups++
	if s.failOn != 0 && functionID == s.failOn {
		return nil, errors.New("connection reset")
	}
	for _, r := range s.roles {
		if *r.CompanyID != companyID || *r.LevelID != levelID || !r.IsCurrent() {
			continue
		}
		for _, f := range r.Functions {
			if f.ID == functionID {
				return s.profiles[*r.ProfileID], nil
			}
		}
	}
	return nil, nil
}

func ptr[T any](v T) *T { return &v }

var (
	scope       = tenant.For(5)
	director    = models.Level{ID: 10, Name: "Director"}
	engineering = models.Function{ID: 4, Name: "Engineering"}
	sales       = models.Function{ID: 6, Name: "Sales"}
	acme        = models.Company{ID: 100, Domain: "acme.com", Name: "Acme"}
	globex      = models.Company{ID: 200, Domain: "globex.com", Name: "Globex"}
)

func newSource() *memorySource {
	ended := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return &memorySource{
		maps: map[int64]*models.ContactMap{
			1: {
				ID: 1, Name: "Directors", LevelID: ptr(director.ID), Level: &director,
				Functions: []models.Function{sales, engineering},
				Companies: []models.Company{globex, acme},
			},
		},
		profiles: map[int64]*models.Profile{
			1: {ID: 1, FirstName: "Current"},
			2: {ID: 2, FirstName: "Former"},
			3: {ID: 3, FirstName: "Seller"},
		},
		roles: []*models.Role{
			{ID: 1, CompanyID: ptr(acme.ID), LevelID: ptr(director.ID), ProfileID: ptr(int64(2)), EndDate: &ended,
				Functions: []models.Function{engineering}},
			{ID: 2, CompanyID: ptr(acme.ID), LevelID: ptr(director.ID), ProfileID: ptr(int64(1)),
				Functions: []models.Function{engineering}},
			{ID: 3, CompanyID: ptr(globex.ID), LevelID: ptr(director.ID), ProfileID: ptr(int64(3)),
				Functions: []models.Function{sales, engineering}},
		},
	}
}

func TestGenerateHeaders_KeepsTrailingSpaceAndOrder(t *testing.T) {
	m := newSource().maps[1]
	assert.Equal(t, []string{"Director Sales ", "Director Engineering "}, GenerateHeaders(m))
}

func TestGenerateHeaders_NoFunctions(t *testing.T) {
	assert.Empty(t, GenerateHeaders(&models.ContactMap{Level: &director}))
}

func TestGenerateRows_ShapeMatchesAssociations(t *testing.T) {
	src := newSource()
	m := src.maps[1]

	rows, err := GenerateRows(context.Background(), src, scope, m)
	require.NoError(t, err)

	require.Len(t, rows, len(m.Companies))
	for i, row := range rows {
		assert.Equal(t, m.Companies[i].ID, row.Company.ID, "row %d order", i)
		assert.Len(t, row.Cells, len(m.Functions))
	}
	assert.Equal(t, len(m.Companies)*len(m.Functions), src.lookups)
}

// Only the role without an end date fills the Acme/Engineering cell.
func TestGenerateRows_CurrentHolderOnly(t *testing.T) {
	src := newSource()
	rows, err := GenerateRows(context.Background(), src, scope, src.maps[1])
	require.NoError(t, err)

	acmeRow := rows[1]
	require.Equal(t, acme.ID, acmeRow.Company.ID)
	assert.Nil(t, acmeRow.Cells[0], "Acme has no Sales director")
	require.NotNil(t, acmeRow.Cells[1])
	assert.Equal(t, int64(1), acmeRow.Cells[1].ID)

	globexRow := rows[0]
	require.NotNil(t, globexRow.Cells[0])
	require.NotNil(t, globexRow.Cells[1])
	assert.Equal(t, int64(3), globexRow.Cells[0].ID)
	assert.Equal(t, int64(3), globexRow.Cells[1].ID)
}

func TestGenerateRows_DeletedLevelIsAllVacant(t *testing.T) {
	src := newSource()
	m := *src.maps[1]
	m.LevelID = nil
	m.Level = nil

	rows, err := GenerateRows(context.Background(), src, scope, &m)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, []*models.Profile{nil, nil}, row.Cells)
	}
	assert.Zero(t, src.lookups)
}

func TestGenerateRows_LookupError(t *testing.T) {
	src := newSource()
	src.failOn = engineering.ID

	_, err := GenerateRows(context.Background(), src, scope, src.maps[1])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "globex.com")
}

func TestRender(t *testing.T) {
	src := newSource()

	grid, err := Render(context.Background(), src, scope, 1)
	require.NoError(t, err)
	assert.Equal(t, "Directors", grid.Map.Name)
	assert.Len(t, grid.Headers, 2)
	assert.Len(t, grid.Rows, 2)
}

func TestRender_MissingMap(t *testing.T) {
	_, err := Render(context.Background(), newSource(), scope, 99)
	assert.ErrorIs(t, err, ErrMapNotFound)
}

// Every render re-reads roles, so ending a role vacates its cell on the next read.
func TestRender_ReflectsRoleChanges(t *testing.T) {
	src := newSource()
	grid, err := Render(context.Background(), src, scope, 1)
	require.NoError(t, err)
	require.NotNil(t, grid.Rows[1].Cells[1])

	src.roles[1].EndDate = ptr(time.Now())
	grid, err = Render(context.Background(), src, scope, 1)
	require.NoError(t, err)
	assert.Nil(t, grid.Rows[1].Cells[1])
}
