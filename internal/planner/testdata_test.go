package planner

import (
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func store(id string, order int) model.Store {
	return model.Store{ID: id, Name: id, IsActive: true, DisplayOrder: order}
}

func groupedStore(id, group string, order int) model.Store {
	s := store(id, order)
	s.KitGroupID = strPtr(group)
	return s
}

func kit(scenarioID string, n int) model.KitKey {
	return model.KitKey{ScenarioID: scenarioID, KitNumber: n}
}

func demand(d, storeID, scenarioID string) model.Demand {
	return model.Demand{Date: date(d), StoreID: storeID, ScenarioID: scenarioID, Needed: 1}
}

var fogHouse = model.Scenario{ID: "fog-house", Title: "Fog House", KitCount: 1}
