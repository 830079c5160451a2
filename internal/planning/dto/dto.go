package dto

import (
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/planner"
)

type PlanInput struct {
	OrganizationID string
	TransferDates  []time.Time
	Start          time.Time
	End            time.Time
}

type PlanRequest struct {
	TransferDates []string `json:"transfer_dates" validate:"dive,datetime=2006-01-02"`
	Start         string   `json:"start" validate:"required,datetime=2006-01-02"`
	End           string   `json:"end" validate:"required,datetime=2006-01-02"`
}

// KitPlacement is one entry of the inventory after a plan.
type KitPlacement struct {
	ScenarioID string `json:"scenario_id"`
	KitNumber  int    `json:"kit_number"`
	StoreID    string `json:"store_id"`
}

type PlanResult struct {
	WindowStart    time.Time                  `json:"window_start"`
	WindowEnd      time.Time                  `json:"window_end"`
	ComputedAt     time.Time                  `json:"computed_at"`
	Suggestions    []model.TransferSuggestion `json:"suggestions"`
	Missed         []model.TransferSuggestion `json:"missed"`
	Unfulfilled    []model.Shortage           `json:"unfulfilled"`
	Routes         []planner.Route            `json:"routes"`
	Windows        []planner.CoverageWindow   `json:"windows"`
	FinalState     []KitPlacement             `json:"final_state"`
	NoTransferDays bool                       `json:"no_transfer_days"`
	// Remaining holds demands still short after simulating the suggestions.
	Remaining []model.Shortage `json:"remaining"`
}
