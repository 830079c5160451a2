package model

import (
	"fmt"
	"time"
)

// TransferSuggestion is a planner-proposed move. It is never persisted as-is.
type TransferSuggestion struct {
	ScenarioID      string    `json:"scenario_id"`
	KitNumber       int       `json:"kit_number"`
	FromStoreID     string    `json:"from_store_id"`
	ToStoreID       string    `json:"to_store_id"`
	PerformanceDate time.Time `json:"performance_date"`
	TransferDate    time.Time `json:"transfer_date"` // Zero for missed suggestions
}

type TransferEvent struct {
	ID              string         `db:"id" json:"id"`
	OrganizationID  string         `db:"organization_id" json:"organization_id"`
	ScenarioID      string         `db:"scenario_id" json:"scenario_id"`
	KitNumber       int            `db:"kit_number" json:"kit_number"`
	FromStoreID     string         `db:"from_store_id" json:"from_store_id"`
	ToStoreID       string         `db:"to_store_id" json:"to_store_id"`
	TransferDate    time.Time      `db:"transfer_date" json:"transfer_date"`
	PerformanceDate *time.Time     `db:"performance_date" json:"performance_date"`
	Status          TransferStatus `db:"status" json:"status"`
	Notes           *string        `db:"notes" json:"notes"`
	CreatedBy       *string        `db:"created_by" json:"created_by"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// CompletionKey is the natural key of a completion record within an organization.
type CompletionKey struct {
	ScenarioID      string
	KitNumber       int
	PerformanceDate time.Time
	ToStoreID       string
}

type TransferCompletion struct {
	ID              string     `db:"id" json:"id"`
	OrganizationID  string     `db:"organization_id" json:"organization_id"`
	ScenarioID      string     `db:"scenario_id" json:"scenario_id"`
	KitNumber       int        `db:"kit_number" json:"kit_number"`
	PerformanceDate time.Time  `db:"performance_date" json:"performance_date"`
	FromStoreID     *string    `db:"from_store_id" json:"from_store_id"`
	ToStoreID       string     `db:"to_store_id" json:"to_store_id"`
	PickedUpAt      *time.Time `db:"picked_up_at" json:"picked_up_at"`
	PickedUpBy      *string    `db:"picked_up_by" json:"picked_up_by"`
	DeliveredAt     *time.Time `db:"delivered_at" json:"delivered_at"`
	DeliveredBy     *string    `db:"delivered_by" json:"delivered_by"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

func (c TransferCompletion) Key() CompletionKey {
	return CompletionKey{
		ScenarioID:      c.ScenarioID,
		KitNumber:       c.KitNumber,
		PerformanceDate: c.PerformanceDate,
		ToStoreID:       c.ToStoreID,
	}
}

// CompletionState is derived from the pickup and delivery fields of a record.
type CompletionState int

const (
	CompletionUnplanned CompletionState = iota
	CompletionPickedUp
	CompletionDelivered
)

var completionStateNames = map[CompletionState]string{
	CompletionUnplanned: "unplanned",
	CompletionPickedUp:  "picked_up",
	CompletionDelivered: "delivered",
}

func (s CompletionState) String() string {
	if name, ok := completionStateNames[s]; ok {
		return name
	}
	return "unknown"
}

func ParseCompletionState(s string) (CompletionState, error) {
	for st, name := range completionStateNames {
		if name == s {
			return st, nil
		}
	}
	return CompletionUnplanned, fmt.Errorf("invalid completion state %q", s)
}

func (s CompletionState) MarshalText() ([]byte, error) {
	if _, ok := completionStateNames[s]; !ok {
		return nil, fmt.Errorf("invalid completion state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *CompletionState) UnmarshalText(b []byte) error {
	parsed, err := ParseCompletionState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// State is nil-safe: a missing record is Unplanned.
func (c *TransferCompletion) State() CompletionState {
	switch {
	case c == nil || c.PickedUpAt == nil:
		return CompletionUnplanned
	case c.DeliveredAt == nil:
		return CompletionPickedUp
	default:
		return CompletionDelivered
	}
}

// Actor is whoever performs a pickup or delivery.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
