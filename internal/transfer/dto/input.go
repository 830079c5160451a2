package dto

import (
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/planner"
)

type CompletionInput struct {
	OrganizationID  string
	ScenarioID      string
	KitNumber       int
	PerformanceDate time.Time
	FromStoreID     *string
	ToStoreID       string
	Actor           model.Actor
}

// Key is the natural key of the record. The performance date is truncated to
// its day so a timestamped input finds the same record.
func (in *CompletionInput) Key() model.CompletionKey {
	return model.CompletionKey{
		ScenarioID:      in.ScenarioID,
		KitNumber:       in.KitNumber,
		PerformanceDate: planner.Day(in.PerformanceDate),
		ToStoreID:       in.ToStoreID,
	}
}

type ConfirmPlanInput struct {
	OrganizationID string
	Suggestions    []model.TransferSuggestion
	Notes          *string
	Actor          model.Actor
}
