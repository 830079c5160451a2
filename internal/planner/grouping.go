package planner

import (
	"math"

	"github.com/fekuna/mystery-kit-service/internal/model"
)

// Groups resolves stores to the representative of their kit group.
type Groups struct {
	rep   map[string]string
	order map[string]int
}

// NewGroups indexes the store catalog. Membership is one level deep: a store's
// KitGroupID is taken as the representative without following it further.
func NewGroups(stores []model.Store) Groups {
	g := Groups{
		rep:   make(map[string]string, len(stores)),
		order: make(map[string]int, len(stores)),
	}
	for _, s := range stores {
		if s.KitGroupID != nil && *s.KitGroupID != "" {
			g.rep[s.ID] = *s.KitGroupID
		} else {
			g.rep[s.ID] = s.ID
		}
		g.order[s.ID] = s.DisplayOrder
	}
	return g
}

// GroupID returns the representative store id. Unknown stores resolve to themselves.
func (g Groups) GroupID(storeID string) string {
	if rep, ok := g.rep[storeID]; ok {
		return rep
	}
	return storeID
}

func (g Groups) SameGroup(a, b string) bool {
	return g.GroupID(a) == g.GroupID(b)
}

// displayOrder sorts unknown stores last.
func (g Groups) displayOrder(storeID string) int {
	if o, ok := g.order[storeID]; ok {
		return o
	}
	return math.MaxInt
}
