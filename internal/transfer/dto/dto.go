package dto

import (
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

type CompletionRequest struct {
	ScenarioID      string  `json:"scenario_id" validate:"required"`
	KitNumber       int     `json:"kit_number" validate:"gte=1"`
	PerformanceDate string  `json:"performance_date" validate:"required,datetime=2006-01-02"`
	FromStoreID     *string `json:"from_store_id"`
	ToStoreID       string  `json:"to_store_id" validate:"required"`
}

type CompletionResponse struct {
	Completion        *model.TransferCompletion `json:"completion"`
	State             model.CompletionState     `json:"state"`
	LocationSyncError *string                   `json:"location_sync_error,omitempty"`
}

type SuggestionRequest struct {
	ScenarioID      string `json:"scenario_id" validate:"required"`
	KitNumber       int    `json:"kit_number" validate:"gte=1"`
	FromStoreID     string `json:"from_store_id" validate:"required"`
	ToStoreID       string `json:"to_store_id" validate:"required,nefield=FromStoreID"`
	PerformanceDate string `json:"performance_date" validate:"required,datetime=2006-01-02"`
	TransferDate    string `json:"transfer_date" validate:"required,datetime=2006-01-02"`
}

type ConfirmPlanRequest struct {
	Suggestions []SuggestionRequest `json:"suggestions" validate:"required,min=1,dive"`
	Notes       *string             `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

type CountResponse struct {
	Count int `json:"count"`
}

// CompletionSnapshot is the full completion state of a window, pushed to watchers.
type CompletionSnapshot struct {
	Start       string                     `json:"start"`
	End         string                     `json:"end"`
	Completions []model.TransferCompletion `json:"completions"`
	At          time.Time                  `json:"at"`
}
