package usecase

import (
	"context"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/feed"
	"github.com/fekuna/mystery-kit-service/internal/metrics"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/planner"
	"github.com/fekuna/mystery-kit-service/internal/transfer"
	"github.com/fekuna/mystery-kit-service/internal/transfer/dto"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type eventUseCase struct {
	repo transfer.EventRepository
	notifier
	now func() time.Time
}

func NewEventUseCase(repo transfer.EventRepository, publisher feed.Publisher, m *metrics.Metrics, log logger.ZapLogger) transfer.EventUseCase {
	return &eventUseCase{
		repo:     repo,
		notifier: notifier{publisher: publisher, metrics: m, logger: log},
		now:      time.Now,
	}
}

// ConfirmPlan records planned suggestions as pending events. Missed
// suggestions have no transfer day and are not recorded.
func (uc *eventUseCase) ConfirmPlan(ctx context.Context, input *dto.ConfirmPlanInput) ([]model.TransferEvent, error) {
	now := uc.now()
	var createdBy *string
	if input.Actor.ID != "" {
		id := input.Actor.ID
		createdBy = &id
	}

	events := make([]model.TransferEvent, 0, len(input.Suggestions))
	for _, s := range input.Suggestions {
		if s.TransferDate.IsZero() || s.FromStoreID == s.ToStoreID {
			continue
		}
		perf := planner.Day(s.PerformanceDate)
		events = append(events, model.TransferEvent{
			ID:              uuid.New().String(),
			OrganizationID:  input.OrganizationID,
			ScenarioID:      s.ScenarioID,
			KitNumber:       s.KitNumber,
			FromStoreID:     s.FromStoreID,
			ToStoreID:       s.ToStoreID,
			TransferDate:    planner.Day(s.TransferDate),
			PerformanceDate: &perf,
			Status:          model.TransferPending,
			Notes:           input.Notes,
			CreatedBy:       createdBy,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	if len(events) == 0 {
		return events, nil
	}

	if err := uc.repo.CreateMany(ctx, events); err != nil {
		uc.logger.Error("Failed to confirm transfer plan", zap.Int("events", len(events)), zap.Error(err))
		return nil, err
	}
	uc.notify(ctx, feed.Event{OrganizationID: input.OrganizationID, Kind: feed.KindTransferEvent})
	return events, nil
}

func (uc *eventUseCase) ListTransferEvents(ctx context.Context, organizationID string, start, end time.Time, status *model.TransferStatus) ([]model.TransferEvent, error) {
	return uc.repo.List(ctx, organizationID, planner.Day(start), planner.Day(end), status)
}

func (uc *eventUseCase) UpdateTransferStatus(ctx context.Context, organizationID, id string, status model.TransferStatus) (*model.TransferEvent, error) {
	ev, err := uc.repo.UpdateStatus(ctx, organizationID, id, status, uc.now())
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, transfer.ErrEventNotFound
	}
	uc.notify(ctx, feed.Event{OrganizationID: organizationID, Kind: feed.KindTransferEvent, ScenarioID: ev.ScenarioID, KitNumber: ev.KitNumber})
	return ev, nil
}

func (uc *eventUseCase) DeleteTransferEvent(ctx context.Context, organizationID, id string) error {
	ok, err := uc.repo.Delete(ctx, organizationID, id)
	if err != nil {
		return err
	}
	if !ok {
		return transfer.ErrEventNotFound
	}
	uc.notify(ctx, feed.Event{OrganizationID: organizationID, Kind: feed.KindTransferEvent})
	return nil
}

func (uc *eventUseCase) CancelPendingTransfers(ctx context.Context, organizationID string, start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, transfer.ErrInvalidWindow
	}
	n, err := uc.repo.CancelPending(ctx, organizationID, planner.Day(start), planner.Day(end), uc.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.notify(ctx, feed.Event{OrganizationID: organizationID, Kind: feed.KindTransferEvent})
	}
	return n, nil
}
