package kit

import (
	"context"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

type Repository interface {
	// Locations
	List(ctx context.Context, organizationID string, scenarioID *string) ([]model.KitLocation, error)
	Get(ctx context.Context, organizationID, scenarioID string, kitNumber int) (*model.KitLocation, error)
	Upsert(ctx context.Context, loc *model.KitLocation) error
	UpsertMany(ctx context.Context, locs []model.KitLocation) error
	UpdateCondition(ctx context.Context, organizationID, scenarioID string, kitNumber int, condition model.KitCondition, notes *string, at time.Time) (*model.KitLocation, error)

	// Resize makes the rows of a scenario exactly 1..kitCount, inserting
	// defaults for missing numbers and removing anything above kitCount.
	Resize(ctx context.Context, organizationID, scenarioID string, kitCount int, at time.Time) (added, removed int, err error)
}
