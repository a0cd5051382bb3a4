// Package contactmap renders a saved contact map into its grid: one row per company in the
// map, one column per function, each cell holding the profile that currently fills the map's
// level for that function at that company. Nothing is cached; every render re-reads the
// current roles.
package contactmap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/telemetry"
	"github.com/talenttree/talenttree/internal/tenant"
)

// ErrMapNotFound is returned when the map id is not in the caller's organization.
var ErrMapNotFound = errors.New("map not found")

// Source is what the engine reads from. repositories.MapSnapshot implements it over a
// single read-only transaction.
type Source interface {
	GetMap(ctx context.Context, scope tenant.Scope, id int64) (*models.ContactMap, error)
	FindCurrentHolder(ctx context.Context, scope tenant.Scope, companyID, levelID, functionID int64) (*models.Profile, error)
}

// Grid is a rendered map.
type Grid struct {
	Map     *models.ContactMap `json:"map"`
	Headers []string           `json:"headers"`
	Rows    []models.MapRow    `json:"rows"`
}

// GenerateHeaders labels each function column "{level} {function} " in association order.
// The trailing space is part of the label.
func GenerateHeaders(m *models.ContactMap) []string {
	levelName := ""
	if m.Level != nil {
		levelName = m.Level.Name
	}
	headers := make([]string, len(m.Functions))
	for i, f := range m.Functions {
		headers[i] = fmt.Sprintf("%s %s ", levelName, f.Name)
	}
	return headers
}

// GenerateRows resolves one row per company and one cell per function, both in association
// order. A map whose level was deleted renders every cell vacant.
func GenerateRows(ctx context.Context, src Source, scope tenant.Scope, m *models.ContactMap) ([]models.MapRow, error) {
	rows := make([]models.MapRow, len(m.Companies))
	for i, company := range m.Companies {
		cells := make([]*models.Profile, len(m.Functions))
		if m.LevelID != nil {
			for j, function := range m.Functions {
				holder, err := src.FindCurrentHolder(ctx, scope, company.ID, *m.LevelID, function.ID)
				if err != nil {
					return nil, fmt.Errorf("failed to resolve cell (%s, %s): %w", company.Domain, function.Name, err)
				}
				cells[j] = holder
				recordLookup(holder)
			}
		}
		rows[i] = models.MapRow{Company: company, Cells: cells}
	}
	return rows, nil
}

// Render loads the map and builds its grid from src.
func Render(ctx context.Context, src Source, scope tenant.Scope, mapID int64) (*Grid, error) {
	start := time.Now()
	defer func() { telemetry.ContactMapRenderDuration.Observe(time.Since(start).Seconds()) }()

	m, err := src.GetMap(ctx, scope, mapID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMapNotFound
	}

	rows, err := GenerateRows(ctx, src, scope, m)
	if err != nil {
		return nil, err
	}
	return &Grid{Map: m, Headers: GenerateHeaders(m), Rows: rows}, nil
}

func recordLookup(holder *models.Profile) {
	result := "vacant"
	if holder != nil {
		result = "occupied"
	}
	telemetry.ContactMapCellLookupsTotal.WithLabelValues(result).Inc()
}
