package planner

import (
	"testing"

	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestGroups_GroupID(t *testing.T) {
	g := NewGroups([]model.Store{
		store("shibuya", 1),
		groupedStore("shibuya-annex", "shibuya", 2),
		store("ikebukuro", 3),
	})

	assert.Equal(t, "shibuya", g.GroupID("shibuya"))
	assert.Equal(t, "shibuya", g.GroupID("shibuya-annex"))
	assert.Equal(t, "ikebukuro", g.GroupID("ikebukuro"))
	assert.Equal(t, "unknown", g.GroupID("unknown"), "unknown stores resolve to themselves")
}

func TestGroups_OneLevelDeep(t *testing.T) {
	// c points at b, b points at a: c resolves to b, not a.
	g := NewGroups([]model.Store{
		store("a", 1),
		groupedStore("b", "a", 2),
		groupedStore("c", "b", 3),
	})

	assert.Equal(t, "b", g.GroupID("c"))
	assert.False(t, g.SameGroup("a", "c"))
}

func TestGroups_SameGroupSymmetric(t *testing.T) {
	stores := []model.Store{
		store("a", 1),
		groupedStore("a2", "a", 2),
		store("b", 3),
		groupedStore("b2", "b", 4),
	}
	g := NewGroups(stores)
	ids := []string{"a", "a2", "b", "b2", "ghost"}

	for _, x := range ids {
		for _, y := range ids {
			assert.Equal(t, g.SameGroup(x, y), g.SameGroup(y, x), "%s/%s", x, y)
		}
	}
	assert.True(t, g.SameGroup("a", "a2"))
	assert.False(t, g.SameGroup("a2", "b2"))
}
