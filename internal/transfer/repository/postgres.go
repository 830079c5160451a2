package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/transfer"
	"github.com/jmoiron/sqlx"
)

type PGEventRepository struct {
	DB *sqlx.DB
}

func NewPGEventRepository(db *sqlx.DB) *PGEventRepository {
	return &PGEventRepository{DB: db}
}

var _ transfer.EventRepository = (*PGEventRepository)(nil)

const eventColumns = `id, organization_id, scenario_id, kit_number, from_store_id, to_store_id,
    transfer_date, performance_date, status, notes, created_by, created_at, updated_at`

func (r *PGEventRepository) CreateMany(ctx context.Context, events []model.TransferEvent) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO kit_transfer_events (` + eventColumns + `)
        VALUES (
            :id, :organization_id, :scenario_id, :kit_number, :from_store_id, :to_store_id,
            :transfer_date, :performance_date, :status, :notes, :created_by, :created_at, :updated_at
        )
    `
	for i := range events {
		if _, err := tx.NamedExecContext(ctx, query, &events[i]); err != nil {
			return fmt.Errorf("failed to insert transfer event: %w", err)
		}
	}
	return tx.Commit()
}

func (r *PGEventRepository) Get(ctx context.Context, organizationID, id string) (*model.TransferEvent, error) {
	var ev model.TransferEvent
	query := `SELECT ` + eventColumns + ` FROM kit_transfer_events WHERE organization_id = $1 AND id = $2`
	if err := r.DB.GetContext(ctx, &ev, query, organizationID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ev, nil
}

func (r *PGEventRepository) List(ctx context.Context, organizationID string, start, end time.Time, status *model.TransferStatus) ([]model.TransferEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM kit_transfer_events
        WHERE organization_id = $1 AND transfer_date BETWEEN $2 AND $3`
	args := []interface{}{organizationID, start, end}
	if status != nil {
		query += ` AND status = $4`
		args = append(args, *status)
	}
	query += ` ORDER BY transfer_date, scenario_id, kit_number, id`

	events := make([]model.TransferEvent, 0)
	if err := r.DB.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list transfer events: %w", err)
	}
	return events, nil
}

func (r *PGEventRepository) UpdateStatus(ctx context.Context, organizationID, id string, status model.TransferStatus, at time.Time) (*model.TransferEvent, error) {
	var ev model.TransferEvent
	query := `UPDATE kit_transfer_events SET status = $3, updated_at = $4
        WHERE organization_id = $1 AND id = $2
        RETURNING ` + eventColumns
	if err := r.DB.GetContext(ctx, &ev, query, organizationID, id, status, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update transfer status: %w", err)
	}
	return &ev, nil
}

func (r *PGEventRepository) Delete(ctx context.Context, organizationID, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM kit_transfer_events WHERE organization_id = $1 AND id = $2`, organizationID, id)
	if err != nil {
		return false, fmt.Errorf("delete transfer event: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PGEventRepository) CancelPending(ctx context.Context, organizationID string, start, end time.Time, at time.Time) (int, error) {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE kit_transfer_events SET status = 'cancelled', updated_at = $4
        WHERE organization_id = $1 AND status = 'pending' AND transfer_date BETWEEN $2 AND $3
    `, organizationID, start, end, at)
	if err != nil {
		return 0, fmt.Errorf("cancel pending transfers: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type PGCompletionRepository struct {
	DB *sqlx.DB
}

func NewPGCompletionRepository(db *sqlx.DB) *PGCompletionRepository {
	return &PGCompletionRepository{DB: db}
}

var _ transfer.CompletionRepository = (*PGCompletionRepository)(nil)

const completionColumns = `id, organization_id, scenario_id, kit_number, performance_date, from_store_id, to_store_id,
    picked_up_at, picked_up_by, delivered_at, delivered_by, created_at, updated_at`

func (r *PGCompletionRepository) Get(ctx context.Context, organizationID string, key model.CompletionKey) (*model.TransferCompletion, error) {
	var c model.TransferCompletion
	query := `SELECT ` + completionColumns + ` FROM kit_transfer_completions
        WHERE organization_id = $1 AND scenario_id = $2 AND kit_number = $3
          AND performance_date = $4 AND to_store_id = $5`
	err := r.DB.GetContext(ctx, &c, query, organizationID, key.ScenarioID, key.KitNumber, key.PerformanceDate, key.ToStoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer completion: %w", err)
	}
	return &c, nil
}

func (r *PGCompletionRepository) Upsert(ctx context.Context, c *model.TransferCompletion) (*model.TransferCompletion, error) {
	query := `
        INSERT INTO kit_transfer_completions (` + completionColumns + `)
        VALUES (
            :id, :organization_id, :scenario_id, :kit_number, :performance_date, :from_store_id, :to_store_id,
            :picked_up_at, :picked_up_by, :delivered_at, :delivered_by, :created_at, :updated_at
        )
        ON CONFLICT (organization_id, scenario_id, kit_number, performance_date, to_store_id)
        DO UPDATE SET
            from_store_id = EXCLUDED.from_store_id,
            picked_up_at = EXCLUDED.picked_up_at,
            picked_up_by = EXCLUDED.picked_up_by,
            delivered_at = EXCLUDED.delivered_at,
            delivered_by = EXCLUDED.delivered_by,
            updated_at = EXCLUDED.updated_at
        RETURNING ` + completionColumns

	rows, err := r.DB.NamedQueryContext(ctx, query, c)
	if err != nil {
		return nil, fmt.Errorf("upsert transfer completion: %w", err)
	}
	defer rows.Close()

	var saved model.TransferCompletion
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("upsert transfer completion: no row returned")
	}
	if err := rows.StructScan(&saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *PGCompletionRepository) ListByWindow(ctx context.Context, organizationID string, start, end time.Time) ([]model.TransferCompletion, error) {
	query := `SELECT ` + completionColumns + ` FROM kit_transfer_completions
        WHERE organization_id = $1 AND performance_date BETWEEN $2 AND $3
        ORDER BY performance_date, scenario_id, kit_number, to_store_id`
	out := make([]model.TransferCompletion, 0)
	if err := r.DB.SelectContext(ctx, &out, query, organizationID, start, end); err != nil {
		return nil, fmt.Errorf("list transfer completions: %w", err)
	}
	return out, nil
}

func (r *PGCompletionRepository) DeleteWindow(ctx context.Context, organizationID string, start, end time.Time) (int, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM kit_transfer_completions WHERE organization_id = $1 AND performance_date BETWEEN $2 AND $3`,
		organizationID, start, end)
	if err != nil {
		return 0, fmt.Errorf("clear transfer completions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
