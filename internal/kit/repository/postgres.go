package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/kit"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

var _ kit.Repository = (*PGRepository)(nil)

const locationColumns = `organization_id, scenario_id, kit_number, store_id, condition, condition_notes, updated_at`

const upsertLocationQuery = `
    INSERT INTO kit_locations (` + locationColumns + `)
    VALUES (:organization_id, :scenario_id, :kit_number, :store_id, :condition, :condition_notes, :updated_at)
    ON CONFLICT (organization_id, scenario_id, kit_number)
    DO UPDATE SET
        store_id = EXCLUDED.store_id,
        condition = EXCLUDED.condition,
        condition_notes = EXCLUDED.condition_notes,
        updated_at = EXCLUDED.updated_at
`

func (r *PGRepository) List(ctx context.Context, organizationID string, scenarioID *string) ([]model.KitLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM kit_locations WHERE organization_id = $1`
	args := []interface{}{organizationID}
	if scenarioID != nil {
		query += ` AND scenario_id = $2`
		args = append(args, *scenarioID)
	}
	query += ` ORDER BY scenario_id, kit_number`

	locs := make([]model.KitLocation, 0)
	if err := r.DB.SelectContext(ctx, &locs, query, args...); err != nil {
		return nil, fmt.Errorf("list kit locations: %w", err)
	}
	return locs, nil
}

func (r *PGRepository) Get(ctx context.Context, organizationID, scenarioID string, kitNumber int) (*model.KitLocation, error) {
	var loc model.KitLocation
	query := `SELECT ` + locationColumns + ` FROM kit_locations WHERE organization_id = $1 AND scenario_id = $2 AND kit_number = $3`
	err := r.DB.GetContext(ctx, &loc, query, organizationID, scenarioID, kitNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get kit location: %w", err)
	}
	return &loc, nil
}

func (r *PGRepository) Upsert(ctx context.Context, loc *model.KitLocation) error {
	if _, err := r.DB.NamedExecContext(ctx, upsertLocationQuery, loc); err != nil {
		return fmt.Errorf("upsert kit location: %w", err)
	}
	return nil
}

func (r *PGRepository) UpsertMany(ctx context.Context, locs []model.KitLocation) error {
	if len(locs) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range locs {
		if _, err := tx.NamedExecContext(ctx, upsertLocationQuery, &locs[i]); err != nil {
			return fmt.Errorf("upsert kit location %d: %w", locs[i].KitNumber, err)
		}
	}
	return tx.Commit()
}

func (r *PGRepository) UpdateCondition(ctx context.Context, organizationID, scenarioID string, kitNumber int, condition model.KitCondition, notes *string, at time.Time) (*model.KitLocation, error) {
	query := `
        INSERT INTO kit_locations (organization_id, scenario_id, kit_number, condition, condition_notes, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (organization_id, scenario_id, kit_number)
        DO UPDATE SET
            condition = EXCLUDED.condition,
            condition_notes = EXCLUDED.condition_notes,
            updated_at = EXCLUDED.updated_at
        RETURNING ` + locationColumns

	var loc model.KitLocation
	if err := r.DB.GetContext(ctx, &loc, query, organizationID, scenarioID, kitNumber, condition, notes, at); err != nil {
		return nil, fmt.Errorf("update kit condition: %w", err)
	}
	return &loc, nil
}

func (r *PGRepository) Resize(ctx context.Context, organizationID, scenarioID string, kitCount int, at time.Time) (int, int, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM kit_locations WHERE organization_id = $1 AND scenario_id = $2 AND kit_number > $3`,
		organizationID, scenarioID, kitCount)
	if err != nil {
		return 0, 0, fmt.Errorf("trim kit locations: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	res, err = tx.ExecContext(ctx, `
        INSERT INTO kit_locations (organization_id, scenario_id, kit_number, condition, updated_at)
        SELECT $1, $2, n, 'good', $4
        FROM generate_series(1, $3::int) AS n
        ON CONFLICT (organization_id, scenario_id, kit_number) DO NOTHING
    `, organizationID, scenarioID, kitCount, at)
	if err != nil {
		return 0, 0, fmt.Errorf("fill kit locations: %w", err)
	}
	added, err := res.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return int(added), int(removed), nil
}
