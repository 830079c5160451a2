// Package planner matches discrete kit copies to daily store demand.
//
// Everything here is a pure function of its arguments: callers fetch the
// inventory snapshot, schedule and catalogs, and the planner returns data.
// Given identical inputs the output is identical, which lets the service
// re-run a plan eagerly on every change instead of maintaining it.
package planner

import (
	"sort"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

// Input is one planning request. TransferDates are the calendar days on which
// kits can physically move; they need not be contiguous.
type Input struct {
	State         model.KitState
	Demands       []model.Demand
	Scenarios     []model.Scenario
	Stores        []model.Store
	TransferDates []time.Time
}

type Result struct {
	// Suggestions are moves that a selected transfer day can carry out in time.
	Suggestions []model.TransferSuggestion
	// Missed are moves needed for performances on or before the first transfer day.
	Missed []model.TransferSuggestion
	// Unfulfilled are demands no free copy could serve.
	Unfulfilled []model.Shortage
	Routes      []Route
	// FinalState is the inventory after every suggestion has been carried out.
	FinalState model.KitState
	// NoTransferDays distinguishes "nothing selected" from "nothing to move".
	NoTransferDays bool
}

// Plan walks demands in date order. A demand already covered inside the
// destination's group costs nothing. Otherwise it takes copies from other
// groups, lowest kit number first, skipping any copy promised to a demand
// between the responsible transfer day and this demand's date. A taken copy is
// treated as sitting at the destination from then on, so one move serves every
// later demand there until the next transfer day.
func Plan(in Input) Result {
	res := Result{
		Suggestions: []model.TransferSuggestion{},
		Missed:      []model.TransferSuggestion{},
		Unfulfilled: []model.Shortage{},
		Routes:      []Route{},
	}

	transferDates := NormalizeDates(in.TransferDates)
	if len(transferDates) == 0 {
		res.NoTransferDays = true
		res.FinalState = in.State.Clone()
		return res
	}

	groups := NewGroups(in.Stores)
	catalog := scenarioIndex(in.Scenarios)
	state := in.State.Clone()
	promises := make(map[model.KitKey][]time.Time)

	for _, d := range sortDemands(in.Demands, groups) {
		sc, ok := catalog[d.ScenarioID]
		if !ok || !sc.KitManaged() || d.Needed <= 0 {
			continue
		}

		date := Day(d.Date)
		dest := groups.GroupID(d.StoreID)
		transferDate, covered := ResponsibleTransferDate(transferDates, date)

		var local, remote []model.KitKey
		for n := 1; n <= sc.KitCount; n++ {
			key := model.KitKey{ScenarioID: sc.ID, KitNumber: n}
			storeID, placed := state[key]
			if !placed {
				continue
			}
			if groups.GroupID(storeID) == dest {
				local = append(local, key)
			} else {
				remote = append(remote, key)
			}
		}

		missing := d.Needed
		for _, key := range local {
			if missing == 0 {
				break
			}
			promises[key] = append(promises[key], date)
			missing--
		}

		// A missed move cannot happen before the performance anyway; only
		// copies busy on that very day are excluded from the report.
		busyFrom := date.AddDate(0, 0, -1)
		if covered {
			busyFrom = transferDate
		}

		for _, key := range remote {
			if missing == 0 {
				break
			}
			if promisedWithin(promises[key], busyFrom, date) {
				continue
			}

			s := model.TransferSuggestion{
				ScenarioID:      key.ScenarioID,
				KitNumber:       key.KitNumber,
				FromStoreID:     groups.GroupID(state[key]),
				ToStoreID:       d.StoreID,
				PerformanceDate: date,
			}
			if covered {
				s.TransferDate = transferDate
				state[key] = d.StoreID
				promises[key] = append(promises[key], date)
				res.Suggestions = append(res.Suggestions, s)
			} else {
				res.Missed = append(res.Missed, s)
			}
			missing--
		}

		if missing > 0 {
			res.Unfulfilled = append(res.Unfulfilled, model.Shortage{
				Demand:    model.Demand{Date: date, StoreID: d.StoreID, ScenarioID: d.ScenarioID, Needed: d.Needed},
				Available: d.Needed - missing,
			})
		}
	}

	res.Routes = Routes(res.Suggestions, groups)
	res.FinalState = state
	return res
}

// promisedWithin reports a promise dated in (after, upTo].
func promisedWithin(dates []time.Time, after, upTo time.Time) bool {
	for _, d := range dates {
		if d.After(after) && !d.After(upTo) {
			return true
		}
	}
	return false
}

func sortDemands(demands []model.Demand, groups Groups) []model.Demand {
	out := make([]model.Demand, len(demands))
	copy(out, demands)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		da, db := Day(a.Date), Day(b.Date)
		if !da.Equal(db) {
			return da.Before(db)
		}
		if oa, ob := groups.displayOrder(a.StoreID), groups.displayOrder(b.StoreID); oa != ob {
			return oa < ob
		}
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		return a.ScenarioID < b.ScenarioID
	})
	return out
}
