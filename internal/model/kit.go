package model

import (
	"fmt"
	"time"
)

// KitKey identifies one physical copy of a scenario kit.
type KitKey struct {
	ScenarioID string
	KitNumber  int
}

func (k KitKey) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%s#%d", k.ScenarioID, k.KitNumber)), nil
}

type KitLocation struct {
	OrganizationID string       `db:"organization_id" json:"organization_id"`
	ScenarioID     string       `db:"scenario_id" json:"scenario_id"`
	KitNumber      int          `db:"kit_number" json:"kit_number"`
	StoreID        *string      `db:"store_id" json:"store_id"` // Nullable until first placed
	Condition      KitCondition `db:"condition" json:"condition"`
	ConditionNotes *string      `db:"condition_notes" json:"condition_notes"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

func (l KitLocation) Key() KitKey {
	return KitKey{ScenarioID: l.ScenarioID, KitNumber: l.KitNumber}
}

// Placed reports whether the copy has a known store.
func (l KitLocation) Placed() bool {
	return l.StoreID != nil && *l.StoreID != ""
}

// KitState maps each kit copy to the store currently holding it.
type KitState map[KitKey]string

// StateOf builds a KitState from location rows, skipping copies with no store.
func StateOf(locations []KitLocation) KitState {
	state := make(KitState, len(locations))
	for _, l := range locations {
		if l.Placed() {
			state[l.Key()] = *l.StoreID
		}
	}
	return state
}

func (s KitState) Clone() KitState {
	out := make(KitState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
