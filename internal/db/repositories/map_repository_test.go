package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/tenant"
)

var mapCols = []string{"id", "name", "level_id", "organization_id", "created_at"}

func newMapRepo(t *testing.T) (*MapRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMapRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func expectAssociations(mock sqlmock.Sqlmock, mapID int64, functions, companies string, companiesStored int64) {
	mock.ExpectExec("DELETE FROM map_functions WHERE map_id").
		WithArgs(mapID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM map_companies WHERE map_id").
		WithArgs(mapID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO map_functions.*WITH ORDINALITY").
		WithArgs(mapID, functions).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO map_companies.*JOIN companies c ON c.id = x.id AND c.organization_id = \\$3").
		WithArgs(mapID, companies, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, companiesStored))
}

// expectGetMap registers the four reads of getMap for a map with one level, two functions
// (Engineering then Executive) and two companies (Globex then Acme).
func expectGetMap(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT.*FROM maps m WHERE m.id = \\$1 AND m.organization_id = \\$2").
		WithArgs(int64(40), int64(5)).
		WillReturnRows(sqlmock.NewRows(mapCols).AddRow(int64(40), "Eng leaders", int64(10), int64(5), time.Now()))
	mock.ExpectQuery("SELECT id, name FROM levels WHERE id").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(10), "Director"))
	mock.ExpectQuery("FROM map_functions mf.*ORDER BY mf.position").
		WithArgs(int64(40)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(4), "Engineering").
			AddRow(int64(1), "Executive"))
	mock.ExpectQuery("FROM map_companies mc.*ORDER BY mc.position").
		WithArgs(int64(40)).
		WillReturnRows(sqlmock.NewRows(companyCols).
			AddRow(int64(11), "globex.com", "Globex", int64(5), nil, time.Now()).
			AddRow(int64(10), "acme.com", "Acme", int64(5), nil, time.Now()))
}

// ---------------------------------------------------------------------------
// Create / Update
// ---------------------------------------------------------------------------

func TestCreateMap_KeepsSubmittedOrder(t *testing.T) {
	repo, mock := newMapRepo(t)
	level := int64(10)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO maps").
		WithArgs("Eng leaders", int64(10), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(40), time.Now()))
	expectAssociations(mock, 40, "{4,1}", "{11,10}", 2)
	mock.ExpectCommit()

	m := &models.ContactMap{Name: "Eng leaders", LevelID: &level}
	if err := repo.Create(context.Background(), tenant.For(5), m, []int64{4, 1}, []int64{11, 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != 40 {
		t.Errorf("ID = %d, want 40", m.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateMap_ForeignCompanyRollsBack(t *testing.T) {
	repo, mock := newMapRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO maps").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(40), time.Now()))
	expectAssociations(mock, 40, "{4}", "{10,77}", 1)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), tenant.For(5), &models.ContactMap{Name: "m"}, []int64{4}, []int64{10, 77})
	if !errors.Is(err, ErrOutOfScope) {
		t.Fatalf("err = %v, want ErrOutOfScope", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateMap_UnknownLevel(t *testing.T) {
	repo, mock := newMapRepo(t)
	level := int64(999)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO maps").
		WillReturnError(foreignKeyViolation("maps_level_id_fkey"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), tenant.For(5), &models.ContactMap{Name: "m", LevelID: &level}, nil, nil)
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("err = %v, want ErrInvalidReference", err)
	}
}

func TestUpdateMap_NotFound(t *testing.T) {
	repo, mock := newMapRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE maps SET name").
		WithArgs("renamed", nil, int64(40), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), tenant.For(5), &models.ContactMap{ID: 40, Name: "renamed"}, []int64{1}, []int64{10})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMapWrites_RequireScope(t *testing.T) {
	repo, mock := newMapRepo(t)
	ctx := context.Background()

	err := repo.Update(ctx, tenant.Scope{}, &models.ContactMap{ID: 40, Name: "renamed"}, []int64{1}, []int64{10})
	if !errors.Is(err, tenant.ErrNoScope) {
		t.Errorf("Update err = %v, want ErrNoScope", err)
	}
	if err := repo.Delete(ctx, tenant.Scope{}, 40); !errors.Is(err, tenant.ErrNoScope) {
		t.Errorf("Delete err = %v, want ErrNoScope", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database calls: %v", err)
	}
}

func TestUpdateMap_ReplacesAssociations(t *testing.T) {
	repo, mock := newMapRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE maps SET name").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAssociations(mock, 40, "{7}", "{10}", 1)
	mock.ExpectCommit()

	err := repo.Update(context.Background(), tenant.For(5), &models.ContactMap{ID: 40, Name: "renamed"}, []int64{7}, []int64{10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Get / List / Delete
// ---------------------------------------------------------------------------

func TestGetMap_LoadsOrderedAssociations(t *testing.T) {
	repo, mock := newMapRepo(t)
	expectGetMap(mock)

	m, err := repo.Get(context.Background(), tenant.For(5), 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil || m.Level == nil || m.Level.Name != "Director" {
		t.Fatalf("map = %+v", m)
	}
	if len(m.Functions) != 2 || m.Functions[0].Name != "Engineering" {
		t.Errorf("functions = %+v", m.Functions)
	}
	if len(m.Companies) != 2 || m.Companies[0].Domain != "globex.com" {
		t.Errorf("companies = %+v", m.Companies)
	}
}

func TestGetMap_NotFound(t *testing.T) {
	repo, mock := newMapRepo(t)
	mock.ExpectQuery("SELECT.*FROM maps m WHERE").
		WillReturnRows(sqlmock.NewRows(mapCols))

	m, err := repo.Get(context.Background(), tenant.For(5), 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil, got %+v", m)
	}
}

func TestGetMap_DeletedLevel(t *testing.T) {
	repo, mock := newMapRepo(t)
	mock.ExpectQuery("SELECT.*FROM maps m WHERE").
		WillReturnRows(sqlmock.NewRows(mapCols).AddRow(int64(40), "m", nil, int64(5), time.Now()))
	mock.ExpectQuery("FROM map_functions").WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery("FROM map_companies").WillReturnRows(sqlmock.NewRows(companyCols))

	m, err := repo.Get(context.Background(), tenant.For(5), 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Level != nil || len(m.Functions) != 0 || m.Companies == nil {
		t.Errorf("map = %+v", m)
	}
}

func TestListMaps(t *testing.T) {
	repo, mock := newMapRepo(t)
	mock.ExpectQuery("SELECT.*FROM maps m.*WHERE m.organization_id").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(mapCols).AddRow(int64(40), "a", int64(10), int64(5), time.Now()))

	maps, err := repo.List(context.Background(), tenant.For(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(maps) != 1 || maps[0].Name != "a" {
		t.Errorf("maps = %+v", maps)
	}
}

func TestDeleteMap(t *testing.T) {
	repo, mock := newMapRepo(t)
	mock.ExpectExec("DELETE FROM maps WHERE id = \\$1 AND organization_id = \\$2").
		WithArgs(int64(40), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), tenant.For(5), 40); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

func TestSnapshot_ReadsInsideOneTransaction(t *testing.T) {
	repo, mock := newMapRepo(t)
	mock.ExpectBegin()
	expectGetMap(mock)
	mock.ExpectQuery("SELECT.*FROM roles r.*JOIN role_functions rf.*r.end_date IS NULL.*LIMIT 1").
		WithArgs(int64(11), int64(10), int64(4), int64(5)).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(sampleProfileRow(20, "u1")...))
	mock.ExpectQuery("SELECT.*FROM roles r").
		WithArgs(int64(11), int64(10), int64(1), int64(5)).
		WillReturnRows(sqlmock.NewRows(profileCols))
	mock.ExpectCommit()

	var holder, vacant *models.Profile
	err := repo.Snapshot(context.Background(), func(s *MapSnapshot) error {
		m, err := s.GetMap(context.Background(), tenant.For(5), 40)
		if err != nil {
			return err
		}
		if holder, err = s.FindCurrentHolder(context.Background(), tenant.For(5), m.Companies[0].ID, *m.LevelID, m.Functions[0].ID); err != nil {
			return err
		}
		vacant, err = s.FindCurrentHolder(context.Background(), tenant.For(5), m.Companies[0].ID, *m.LevelID, m.Functions[1].ID)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if holder == nil || holder.ID != 20 {
		t.Errorf("holder = %+v, want profile 20", holder)
	}
	if vacant != nil {
		t.Errorf("vacant = %+v, want nil", vacant)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSnapshot_CallbackErrorRollsBack(t *testing.T) {
	repo, mock := newMapRepo(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.Snapshot(context.Background(), func(*MapSnapshot) error { return errDB })
	if !errors.Is(err, errDB) {
		t.Errorf("err = %v, want errDB", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
