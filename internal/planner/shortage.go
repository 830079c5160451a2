package planner

import "github.com/fekuna/mystery-kit-service/internal/model"

type groupKey struct {
	scenarioID string
	groupID    string
}

// DetectShortages compares demands against the current inventory, counting a copy
// as available to a store when it sits anywhere in the store's group. Demands for
// unknown or non kit-managed scenarios are skipped. The result is never nil.
func DetectShortages(demands []model.Demand, state model.KitState, scenarios []model.Scenario, groups Groups) []model.Shortage {
	available := availableByGroup(state, scenarios, groups)
	catalog := scenarioIndex(scenarios)

	shortages := []model.Shortage{}
	for _, d := range demands {
		sc, ok := catalog[d.ScenarioID]
		if !ok || !sc.KitManaged() {
			continue
		}
		have := available[groupKey{scenarioID: d.ScenarioID, groupID: groups.GroupID(d.StoreID)}]
		if have < d.Needed {
			shortages = append(shortages, model.Shortage{Demand: d, Available: have})
		}
	}
	return shortages
}

// availableByGroup only counts copies 1..kit_count; rows beyond it are orphans.
func availableByGroup(state model.KitState, scenarios []model.Scenario, groups Groups) map[groupKey]int {
	counts := make(map[groupKey]int)
	for _, sc := range scenarios {
		for n := 1; n <= sc.KitCount; n++ {
			storeID, ok := state[model.KitKey{ScenarioID: sc.ID, KitNumber: n}]
			if !ok {
				continue
			}
			counts[groupKey{scenarioID: sc.ID, groupID: groups.GroupID(storeID)}]++
		}
	}
	return counts
}

func scenarioIndex(scenarios []model.Scenario) map[string]model.Scenario {
	idx := make(map[string]model.Scenario, len(scenarios))
	for _, sc := range scenarios {
		idx[sc.ID] = sc
	}
	return idx
}
