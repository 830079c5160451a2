package planner

import (
	"sort"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

// Verify replays suggestions on their transfer days against the starting state
// and returns every demand still short on its date. Suggestions without a
// transfer day (missed ones) are ignored. An empty result means the plan holds.
func Verify(state model.KitState, suggestions []model.TransferSuggestion, demands []model.Demand, scenarios []model.Scenario, groups Groups) []model.Shortage {
	sim := state.Clone()

	moves := make([]model.TransferSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if !s.TransferDate.IsZero() {
			moves = append(moves, s)
		}
	}
	sort.SliceStable(moves, func(i, j int) bool {
		return Day(moves[i].TransferDate).Before(Day(moves[j].TransferDate))
	})

	shortages := []model.Shortage{}
	next := 0
	for _, d := range sortDemands(demands, groups) {
		date := Day(d.Date)
		for next < len(moves) && Day(moves[next].TransferDate).Before(date) {
			m := moves[next]
			sim[model.KitKey{ScenarioID: m.ScenarioID, KitNumber: m.KitNumber}] = m.ToStoreID
			next++
		}
		shortages = append(shortages, DetectShortages([]model.Demand{d}, sim, scenarios, groups)...)
	}
	return shortages
}
