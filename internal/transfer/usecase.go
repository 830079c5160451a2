package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/transfer/dto"
)

var (
	ErrInvalidTransition = errors.New("invalid completion transition")
	ErrEventNotFound     = errors.New("transfer event not found")
	ErrInvalidWindow     = errors.New("window end is before start")
)

// LocationSyncError is returned by MarkDelivered when the delivery was saved
// but the kit's location could not be updated to the destination.
type LocationSyncError struct {
	ScenarioID string
	KitNumber  int
	ToStoreID  string
	Err        error
}

func (e *LocationSyncError) Error() string {
	return fmt.Sprintf("delivery saved but location of %s #%d not set to %s: %v", e.ScenarioID, e.KitNumber, e.ToStoreID, e.Err)
}

func (e *LocationSyncError) Unwrap() error {
	return e.Err
}

type EventUseCase interface {
	ConfirmPlan(ctx context.Context, input *dto.ConfirmPlanInput) ([]model.TransferEvent, error)
	ListTransferEvents(ctx context.Context, organizationID string, start, end time.Time, status *model.TransferStatus) ([]model.TransferEvent, error)
	UpdateTransferStatus(ctx context.Context, organizationID, id string, status model.TransferStatus) (*model.TransferEvent, error)
	DeleteTransferEvent(ctx context.Context, organizationID, id string) error
	CancelPendingTransfers(ctx context.Context, organizationID string, start, end time.Time) (int, error)
}

type CompletionUseCase interface {
	GetTransferCompletions(ctx context.Context, organizationID string, start, end time.Time) ([]model.TransferCompletion, error)
	MarkPickedUp(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error)
	UnmarkPickedUp(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error)
	// MarkDelivered may return a saved record together with a *LocationSyncError.
	MarkDelivered(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error)
	UnmarkDelivered(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error)
	ClearCompletions(ctx context.Context, organizationID string, start, end time.Time) (int, error)
}
