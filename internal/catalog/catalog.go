package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

var ErrScenarioNotFound = errors.New("scenario not found")

// StoreCatalog lists the venues kits can be sent to.
type StoreCatalog interface {
	ListActiveStores(ctx context.Context, organizationID string) ([]model.Store, error)
}

type ScenarioCatalog interface {
	ListScenariosWithKits(ctx context.Context, organizationID string) ([]model.Scenario, error)
	GetScenario(ctx context.Context, organizationID, scenarioID string) (*model.Scenario, error)
	SetKitCount(ctx context.Context, organizationID, scenarioID string, kitCount int) error
}

// ScheduleSource reads performances in an inclusive date range.
type ScheduleSource interface {
	ListPerformances(ctx context.Context, organizationID string, start, end time.Time) ([]model.Performance, error)
}
