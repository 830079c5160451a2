package planner

import (
	"sort"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

// Route batches every kit moving between one pair of store groups on one transfer day.
type Route struct {
	TransferDate time.Time   `json:"transfer_date"`
	FromGroupID  string      `json:"from_group_id"`
	ToGroupID    string      `json:"to_group_id"`
	Items        []RouteItem `json:"items"`
}

type RouteItem struct {
	ScenarioID      string    `json:"scenario_id"`
	KitNumber       int       `json:"kit_number"`
	ToStoreID       string    `json:"to_store_id"`
	PerformanceDate time.Time `json:"performance_date"`
}

type routeKey struct {
	transferDate time.Time
	from         string
	to           string
}

// Routes merges suggestions by (transfer day, from group, to group). Moves whose
// ends resolve to the same group are not real movements and are dropped.
func Routes(suggestions []model.TransferSuggestion, groups Groups) []Route {
	byKey := make(map[routeKey]*Route)
	for _, s := range suggestions {
		from, to := groups.GroupID(s.FromStoreID), groups.GroupID(s.ToStoreID)
		if from == to {
			continue
		}
		key := routeKey{transferDate: Day(s.TransferDate), from: from, to: to}
		r, ok := byKey[key]
		if !ok {
			r = &Route{TransferDate: key.transferDate, FromGroupID: from, ToGroupID: to}
			byKey[key] = r
		}
		r.Items = append(r.Items, RouteItem{
			ScenarioID:      s.ScenarioID,
			KitNumber:       s.KitNumber,
			ToStoreID:       s.ToStoreID,
			PerformanceDate: s.PerformanceDate,
		})
	}

	routes := make([]Route, 0, len(byKey))
	for _, r := range byKey {
		sort.Slice(r.Items, func(i, j int) bool {
			a, b := r.Items[i], r.Items[j]
			if !a.PerformanceDate.Equal(b.PerformanceDate) {
				return a.PerformanceDate.Before(b.PerformanceDate)
			}
			if a.ScenarioID != b.ScenarioID {
				return a.ScenarioID < b.ScenarioID
			}
			return a.KitNumber < b.KitNumber
		})
		routes = append(routes, *r)
	}

	sort.Slice(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if !a.TransferDate.Equal(b.TransferDate) {
			return a.TransferDate.Before(b.TransferDate)
		}
		if oa, ob := groups.displayOrder(a.FromGroupID), groups.displayOrder(b.FromGroupID); oa != ob {
			return oa < ob
		}
		if a.FromGroupID != b.FromGroupID {
			return a.FromGroupID < b.FromGroupID
		}
		if oa, ob := groups.displayOrder(a.ToGroupID), groups.displayOrder(b.ToGroupID); oa != ob {
			return oa < ob
		}
		return a.ToGroupID < b.ToGroupID
	})
	return routes
}
