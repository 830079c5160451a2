package transfer

import (
	"context"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

type EventRepository interface {
	CreateMany(ctx context.Context, events []model.TransferEvent) error
	Get(ctx context.Context, organizationID, id string) (*model.TransferEvent, error)
	List(ctx context.Context, organizationID string, start, end time.Time, status *model.TransferStatus) ([]model.TransferEvent, error)
	UpdateStatus(ctx context.Context, organizationID, id string, status model.TransferStatus, at time.Time) (*model.TransferEvent, error)
	Delete(ctx context.Context, organizationID, id string) (bool, error)
	CancelPending(ctx context.Context, organizationID string, start, end time.Time, at time.Time) (int, error)
}

type CompletionRepository interface {
	Get(ctx context.Context, organizationID string, key model.CompletionKey) (*model.TransferCompletion, error)
	// Upsert writes the record by its natural key and returns the stored row.
	Upsert(ctx context.Context, c *model.TransferCompletion) (*model.TransferCompletion, error)
	ListByWindow(ctx context.Context, organizationID string, start, end time.Time) ([]model.TransferCompletion, error)
	DeleteWindow(ctx context.Context, organizationID string, start, end time.Time) (int, error)
}
