package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/catalog"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/jmoiron/sqlx"
)

// PGRepository reads the store, scenario and schedule tables owned by the
// surrounding booking application.
type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

var (
	_ catalog.StoreCatalog    = (*PGRepository)(nil)
	_ catalog.ScenarioCatalog = (*PGRepository)(nil)
	_ catalog.ScheduleSource  = (*PGRepository)(nil)
)

func (r *PGRepository) ListActiveStores(ctx context.Context, organizationID string) ([]model.Store, error) {
	query := `
        SELECT id, organization_id, name, short_name, kit_group_id,
               status = 'active' AS is_active, display_order
        FROM stores
        WHERE organization_id = $1 AND status = 'active'
        ORDER BY display_order, id
    `
	var stores []model.Store
	if err := r.DB.SelectContext(ctx, &stores, query, organizationID); err != nil {
		return nil, fmt.Errorf("list active stores: %w", err)
	}
	return stores, nil
}

func (r *PGRepository) ListScenariosWithKits(ctx context.Context, organizationID string) ([]model.Scenario, error) {
	query := `
        SELECT id, organization_id, title, kit_count
        FROM scenarios
        WHERE organization_id = $1 AND kit_count > 0
        ORDER BY title, id
    `
	var scenarios []model.Scenario
	if err := r.DB.SelectContext(ctx, &scenarios, query, organizationID); err != nil {
		return nil, fmt.Errorf("list scenarios with kits: %w", err)
	}
	return scenarios, nil
}

func (r *PGRepository) GetScenario(ctx context.Context, organizationID, scenarioID string) (*model.Scenario, error) {
	var sc model.Scenario
	query := `SELECT id, organization_id, title, kit_count FROM scenarios WHERE organization_id = $1 AND id = $2`
	err := r.DB.GetContext(ctx, &sc, query, organizationID, scenarioID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get scenario: %w", err)
	}
	return &sc, nil
}

func (r *PGRepository) SetKitCount(ctx context.Context, organizationID, scenarioID string, kitCount int) error {
	query := `UPDATE scenarios SET kit_count = $3, updated_at = now() WHERE organization_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, organizationID, scenarioID, kitCount)
	if err != nil {
		return fmt.Errorf("set kit count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrScenarioNotFound
	}
	return nil
}

func (r *PGRepository) ListPerformances(ctx context.Context, organizationID string, start, end time.Time) ([]model.Performance, error) {
	query := `
        SELECT date, store_id, COALESCE(scenario_id::text, '') AS scenario_id
        FROM schedule_events
        WHERE organization_id = $1
          AND date BETWEEN $2 AND $3
          AND NOT is_cancelled
        ORDER BY date, store_id
    `
	var perfs []model.Performance
	if err := r.DB.SelectContext(ctx, &perfs, query, organizationID, start, end); err != nil {
		return nil, fmt.Errorf("list performances: %w", err)
	}
	return perfs, nil
}
