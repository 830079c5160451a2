package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/feed"
	kitdto "github.com/fekuna/mystery-kit-service/internal/kit/dto"
	"github.com/fekuna/mystery-kit-service/internal/metrics"
	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/planner"
	"github.com/fekuna/mystery-kit-service/internal/transfer"
	"github.com/fekuna/mystery-kit-service/internal/transfer/dto"
	"github.com/fekuna/mystery-kit-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocationSetter moves a kit copy. kit.UseCase implements it.
type LocationSetter interface {
	SetKitLocation(ctx context.Context, input *kitdto.SetKitLocationInput) (*model.KitLocation, error)
}

type completionUseCase struct {
	repo      transfer.CompletionRepository
	locations LocationSetter
	notifier
	now func() time.Time
}

func NewCompletionUseCase(repo transfer.CompletionRepository, locations LocationSetter, publisher feed.Publisher, m *metrics.Metrics, log logger.ZapLogger) transfer.CompletionUseCase {
	return &completionUseCase{
		repo:      repo,
		locations: locations,
		notifier:  notifier{publisher: publisher, metrics: m, logger: log},
		now:       time.Now,
	}
}

func (uc *completionUseCase) GetTransferCompletions(ctx context.Context, organizationID string, start, end time.Time) ([]model.TransferCompletion, error) {
	return uc.repo.ListByWindow(ctx, organizationID, planner.Day(start), planner.Day(end))
}

func (uc *completionUseCase) MarkPickedUp(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error) {
	const op = "mark_picked_up"
	existing, err := uc.load(ctx, input)
	if err != nil {
		uc.metrics.ObserveTransition(op, "error")
		return nil, err
	}

	switch existing.State() {
	case model.CompletionDelivered:
		uc.metrics.ObserveTransition(op, "rejected")
		return nil, fmt.Errorf("%w: kit already delivered, unmark delivery first", transfer.ErrInvalidTransition)
	case model.CompletionPickedUp:
		uc.metrics.ObserveTransition(op, "ok")
		return existing, nil
	}

	now := uc.now()
	rec := uc.recordFor(input, existing, now)
	rec.FromStoreID = input.FromStoreID
	rec.PickedUpAt = &now
	rec.PickedUpBy = stamp(input.Actor)
	rec.DeliveredAt = nil
	rec.DeliveredBy = nil

	return uc.save(ctx, op, rec)
}

func (uc *completionUseCase) UnmarkPickedUp(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error) {
	const op = "unmark_picked_up"
	existing, err := uc.load(ctx, input)
	if err != nil {
		uc.metrics.ObserveTransition(op, "error")
		return nil, err
	}
	if existing.State() == model.CompletionUnplanned {
		uc.metrics.ObserveTransition(op, "rejected")
		return nil, fmt.Errorf("%w: kit not picked up", transfer.ErrInvalidTransition)
	}

	// Undoing a pickup also undoes any delivery recorded after it.
	rec := uc.recordFor(input, existing, uc.now())
	rec.PickedUpAt = nil
	rec.PickedUpBy = nil
	rec.DeliveredAt = nil
	rec.DeliveredBy = nil

	return uc.save(ctx, op, rec)
}

func (uc *completionUseCase) MarkDelivered(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error) {
	const op = "mark_delivered"
	existing, err := uc.load(ctx, input)
	if err != nil {
		uc.metrics.ObserveTransition(op, "error")
		return nil, err
	}
	switch existing.State() {
	case model.CompletionUnplanned:
		uc.metrics.ObserveTransition(op, "rejected")
		return nil, fmt.Errorf("%w: kit must be picked up before delivery", transfer.ErrInvalidTransition)
	case model.CompletionDelivered:
		uc.metrics.ObserveTransition(op, "rejected")
		return nil, fmt.Errorf("%w: kit already delivered", transfer.ErrInvalidTransition)
	}

	now := uc.now()
	rec := uc.recordFor(input, existing, now)
	rec.DeliveredAt = &now
	rec.DeliveredBy = stamp(input.Actor)

	saved, err := uc.save(ctx, op, rec)
	if err != nil {
		return nil, err
	}

	toStore := input.ToStoreID
	_, err = uc.locations.SetKitLocation(ctx, &kitdto.SetKitLocationInput{
		OrganizationID: input.OrganizationID,
		ScenarioID:     input.ScenarioID,
		KitNumber:      input.KitNumber,
		StoreID:        &toStore,
	})
	if err != nil {
		uc.metrics.LocationSyncFailed()
		uc.logger.Error("Delivery saved but kit location not updated",
			zap.String("organization_id", input.OrganizationID),
			zap.String("scenario_id", input.ScenarioID),
			zap.Int("kit_number", input.KitNumber),
			zap.String("to_store_id", input.ToStoreID),
			zap.Error(err),
		)
		return saved, &transfer.LocationSyncError{
			ScenarioID: input.ScenarioID,
			KitNumber:  input.KitNumber,
			ToStoreID:  input.ToStoreID,
			Err:        err,
		}
	}
	uc.notify(ctx, feed.Event{
		OrganizationID: input.OrganizationID,
		Kind:           feed.KindKitLocation,
		ScenarioID:     input.ScenarioID,
		KitNumber:      input.KitNumber,
	})
	return saved, nil
}

// UnmarkDelivered leaves the kit location where delivery put it.
func (uc *completionUseCase) UnmarkDelivered(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error) {
	const op = "unmark_delivered"
	existing, err := uc.load(ctx, input)
	if err != nil {
		uc.metrics.ObserveTransition(op, "error")
		return nil, err
	}
	if existing.State() != model.CompletionDelivered {
		uc.metrics.ObserveTransition(op, "rejected")
		return nil, fmt.Errorf("%w: kit not delivered", transfer.ErrInvalidTransition)
	}

	rec := uc.recordFor(input, existing, uc.now())
	rec.DeliveredAt = nil
	rec.DeliveredBy = nil

	return uc.save(ctx, op, rec)
}

func (uc *completionUseCase) ClearCompletions(ctx context.Context, organizationID string, start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, transfer.ErrInvalidWindow
	}
	n, err := uc.repo.DeleteWindow(ctx, organizationID, planner.Day(start), planner.Day(end))
	if err != nil {
		return 0, err
	}
	uc.logger.Info("Cleared transfer completions",
		zap.String("organization_id", organizationID),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("count", n),
	)
	if n > 0 {
		uc.notify(ctx, feed.Event{OrganizationID: organizationID, Kind: feed.KindCompletion})
	}
	return n, nil
}

func (uc *completionUseCase) load(ctx context.Context, input *dto.CompletionInput) (*model.TransferCompletion, error) {
	return uc.repo.Get(ctx, input.OrganizationID, input.Key())
}

// recordFor copies the existing record, or starts a new one for the key.
func (uc *completionUseCase) recordFor(input *dto.CompletionInput, existing *model.TransferCompletion, now time.Time) *model.TransferCompletion {
	var rec model.TransferCompletion
	if existing != nil {
		rec = *existing
	} else {
		key := input.Key()
		rec = model.TransferCompletion{
			ID:              uuid.New().String(),
			OrganizationID:  input.OrganizationID,
			ScenarioID:      key.ScenarioID,
			KitNumber:       key.KitNumber,
			PerformanceDate: key.PerformanceDate,
			FromStoreID:     input.FromStoreID,
			ToStoreID:       key.ToStoreID,
			CreatedAt:       now,
		}
	}
	rec.UpdatedAt = now
	return &rec
}

func (uc *completionUseCase) save(ctx context.Context, op string, rec *model.TransferCompletion) (*model.TransferCompletion, error) {
	saved, err := uc.repo.Upsert(ctx, rec)
	if err != nil {
		uc.metrics.ObserveTransition(op, "error")
		uc.logger.Error("Failed to save transfer completion",
			zap.String("operation", op),
			zap.String("scenario_id", rec.ScenarioID),
			zap.Int("kit_number", rec.KitNumber),
			zap.Error(err),
		)
		return nil, err
	}
	uc.metrics.ObserveTransition(op, "ok")
	uc.notify(ctx, feed.Event{
		OrganizationID:  rec.OrganizationID,
		Kind:            feed.KindCompletion,
		ScenarioID:      rec.ScenarioID,
		KitNumber:       rec.KitNumber,
		PerformanceDate: rec.PerformanceDate,
	})
	return saved, nil
}

func stamp(actor model.Actor) *string {
	name := actor.DisplayName
	if name == "" {
		name = actor.ID
	}
	if name == "" {
		return nil
	}
	return &name
}
