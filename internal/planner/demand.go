package planner

import (
	"sort"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

type demandKey struct {
	date       time.Time
	storeID    string
	scenarioID string
}

// ExtractDemands collapses performances into one demand per (date, store, scenario).
// Several performances of a scenario at one store on one day share a single kit,
// so Needed is always 1. Performances without a scenario are dropped.
func ExtractDemands(performances []model.Performance) []model.Demand {
	seen := make(map[demandKey]struct{}, len(performances))
	demands := make([]model.Demand, 0, len(performances))
	for _, p := range performances {
		if p.ScenarioID == "" {
			continue
		}
		key := demandKey{date: Day(p.Date), storeID: p.StoreID, scenarioID: p.ScenarioID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		demands = append(demands, model.Demand{
			Date:       key.date,
			StoreID:    key.storeID,
			ScenarioID: key.scenarioID,
			Needed:     1,
		})
	}

	sort.Slice(demands, func(i, j int) bool {
		a, b := demands[i], demands[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		return a.ScenarioID < b.ScenarioID
	})
	return demands
}

// FilterWindow keeps performances dated within [start, end].
func FilterWindow(performances []model.Performance, start, end time.Time) []model.Performance {
	from, to := Day(start), Day(end)
	out := make([]model.Performance, 0, len(performances))
	for _, p := range performances {
		d := Day(p.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}
