package planner

import (
	"testing"

	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectShortages(t *testing.T) {
	stores := []model.Store{store("store-a", 1), store("store-b", 2)}
	state := model.KitState{kit("fog-house", 1): "store-a"}
	demands := []model.Demand{
		demand("2024-06-04", "store-a", "fog-house"),
		demand("2024-06-04", "store-b", "fog-house"),
	}

	shortages := DetectShortages(demands, state, []model.Scenario{fogHouse}, NewGroups(stores))

	require.Len(t, shortages, 1)
	assert.Equal(t, "store-b", shortages[0].StoreID)
	assert.Equal(t, 0, shortages[0].Available)
	assert.Equal(t, 1, shortages[0].Missing())
}

func TestDetectShortages_GroupAware(t *testing.T) {
	stores := []model.Store{store("store-a", 1), groupedStore("store-b", "store-a", 2)}
	state := model.KitState{kit("fog-house", 1): "store-a"}

	shortages := DetectShortages(
		[]model.Demand{demand("2024-06-04", "store-b", "fog-house")},
		state, []model.Scenario{fogHouse}, NewGroups(stores),
	)

	assert.NotNil(t, shortages)
	assert.Empty(t, shortages)
}

func TestDetectShortages_SkipsUnmanagedAndIgnoresOrphans(t *testing.T) {
	unmanaged := model.Scenario{ID: "walk-in", KitCount: 0}
	stores := []model.Store{store("store-a", 1)}
	// Copy #2 is beyond kit_count and must not be counted.
	state := model.KitState{kit("fog-house", 2): "store-a"}

	shortages := DetectShortages(
		[]model.Demand{
			demand("2024-06-04", "store-a", "walk-in"),
			demand("2024-06-04", "store-a", "fog-house"),
			demand("2024-06-04", "store-a", "not-in-catalog"),
		},
		state, []model.Scenario{unmanaged, fogHouse}, NewGroups(stores),
	)

	require.Len(t, shortages, 1)
	assert.Equal(t, "fog-house", shortages[0].ScenarioID)
}

func TestDetectShortages_CapacityAfterKitCountRaised(t *testing.T) {
	twoKits := model.Scenario{ID: "fog-house", KitCount: 2}
	stores := []model.Store{store("store-a", 1)}
	need := model.Demand{Date: date("2024-06-04"), StoreID: "store-a", ScenarioID: "fog-house", Needed: 2}

	before := DetectShortages([]model.Demand{need}, model.KitState{kit("fog-house", 1): "store-a"}, []model.Scenario{twoKits}, NewGroups(stores))
	require.Len(t, before, 1)
	assert.Equal(t, 1, before[0].Available)

	after := DetectShortages([]model.Demand{need}, model.KitState{
		kit("fog-house", 1): "store-a",
		kit("fog-house", 2): "store-a",
	}, []model.Scenario{twoKits}, NewGroups(stores))
	assert.Empty(t, after)
}
