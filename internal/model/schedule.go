package model

import "time"

// Performance is one scheduled occurrence read from the schedule source.
type Performance struct {
	Date       time.Time `db:"date" json:"date"`
	StoreID    string    `db:"store_id" json:"store_id"`
	ScenarioID string    `db:"scenario_id" json:"scenario_id"` // Empty when no scenario is attached
}

// Demand says a store needs access to a scenario kit on a date.
type Demand struct {
	Date       time.Time `json:"date"`
	StoreID    string    `json:"store_id"`
	ScenarioID string    `json:"scenario_id"`
	Needed     int       `json:"needed"`
}

type Shortage struct {
	Demand
	Available int `json:"available"`
}

func (s Shortage) Missing() int {
	return s.Needed - s.Available
}

type ShortageReport struct {
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	ComputedAt  time.Time  `json:"computed_at"`
	Shortages   []Shortage `json:"shortages"`
}
