package kit

import (
	"context"
	"errors"

	"github.com/fekuna/mystery-kit-service/internal/kit/dto"
	"github.com/fekuna/mystery-kit-service/internal/model"
)

var ErrKitNumberOutOfRange = errors.New("kit number outside 1..kit_count")

type UseCase interface {
	GetKitLocations(ctx context.Context, organizationID string, scenarioID *string) ([]model.KitLocation, error)
	GetKitLocation(ctx context.Context, organizationID, scenarioID string, kitNumber int) (*model.KitLocation, error)
	SetKitLocation(ctx context.Context, input *dto.SetKitLocationInput) (*model.KitLocation, error)
	SetAllKitLocations(ctx context.Context, input *dto.SetAllKitLocationsInput) ([]model.KitLocation, error)
	UpdateKitCondition(ctx context.Context, input *dto.UpdateKitConditionInput) (*model.KitLocation, error)
	SetKitCount(ctx context.Context, organizationID, scenarioID string, kitCount int) (*dto.ResizeResult, error)
	ReconcileKits(ctx context.Context, organizationID string) ([]dto.ResizeResult, error)
}
