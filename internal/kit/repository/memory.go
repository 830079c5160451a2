package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/kit"
	"github.com/fekuna/mystery-kit-service/internal/model"
)

type memKey struct {
	organizationID string
	model.KitKey
}

// MemoryRepository keeps kit locations in process. Used by tests and kitctl dry runs.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[memKey]model.KitLocation
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[memKey]model.KitLocation)}
}

var _ kit.Repository = (*MemoryRepository)(nil)

func keyOf(l model.KitLocation) memKey {
	return memKey{organizationID: l.OrganizationID, KitKey: l.Key()}
}

func (r *MemoryRepository) List(ctx context.Context, organizationID string, scenarioID *string) ([]model.KitLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.KitLocation, 0)
	for k, l := range r.rows {
		if k.organizationID != organizationID {
			continue
		}
		if scenarioID != nil && k.ScenarioID != *scenarioID {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScenarioID != out[j].ScenarioID {
			return out[i].ScenarioID < out[j].ScenarioID
		}
		return out[i].KitNumber < out[j].KitNumber
	})
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, organizationID, scenarioID string, kitNumber int) (*model.KitLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.rows[memKey{organizationID, model.KitKey{ScenarioID: scenarioID, KitNumber: kitNumber}}]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, loc *model.KitLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[keyOf(*loc)] = *loc
	return nil
}

func (r *MemoryRepository) UpsertMany(ctx context.Context, locs []model.KitLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range locs {
		r.rows[keyOf(l)] = l
	}
	return nil
}

func (r *MemoryRepository) UpdateCondition(ctx context.Context, organizationID, scenarioID string, kitNumber int, condition model.KitCondition, notes *string, at time.Time) (*model.KitLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey{organizationID, model.KitKey{ScenarioID: scenarioID, KitNumber: kitNumber}}
	l, ok := r.rows[k]
	if !ok {
		l = model.KitLocation{OrganizationID: organizationID, ScenarioID: scenarioID, KitNumber: kitNumber}
	}
	l.Condition = condition
	l.ConditionNotes = notes
	l.UpdatedAt = at
	r.rows[k] = l
	return &l, nil
}

func (r *MemoryRepository) Resize(ctx context.Context, organizationID, scenarioID string, kitCount int, at time.Time) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for k := range r.rows {
		if k.organizationID == organizationID && k.ScenarioID == scenarioID && k.KitNumber > kitCount {
			delete(r.rows, k)
			removed++
		}
	}

	added := 0
	for n := 1; n <= kitCount; n++ {
		k := memKey{organizationID, model.KitKey{ScenarioID: scenarioID, KitNumber: n}}
		if _, ok := r.rows[k]; ok {
			continue
		}
		r.rows[k] = model.KitLocation{
			OrganizationID: organizationID,
			ScenarioID:     scenarioID,
			KitNumber:      n,
			Condition:      model.KitConditionGood,
			UpdatedAt:      at,
		}
		added++
	}
	return added, removed, nil
}
