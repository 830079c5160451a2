package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/catalog"
	"github.com/fekuna/mystery-kit-service/internal/model"
)

// MemoryRepository is an in-process catalog for tests and local tooling.
type MemoryRepository struct {
	mu           sync.RWMutex
	stores       []model.Store
	scenarios    map[string]model.Scenario
	performances []model.Performance
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{scenarios: make(map[string]model.Scenario)}
}

var (
	_ catalog.StoreCatalog    = (*MemoryRepository)(nil)
	_ catalog.ScenarioCatalog = (*MemoryRepository)(nil)
	_ catalog.ScheduleSource  = (*MemoryRepository)(nil)
)

func (r *MemoryRepository) AddStore(s model.Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores = append(r.stores, s)
}

func (r *MemoryRepository) AddScenario(sc model.Scenario) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[sc.ID] = sc
}

func (r *MemoryRepository) AddPerformance(p model.Performance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.performances = append(r.performances, p)
}

func (r *MemoryRepository) ListActiveStores(ctx context.Context, organizationID string) ([]model.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Store
	for _, s := range r.stores {
		if s.OrganizationID == organizationID && s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) ListScenariosWithKits(ctx context.Context, organizationID string) ([]model.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Scenario
	for _, sc := range r.scenarios {
		if sc.OrganizationID == organizationID && sc.KitCount > 0 {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) GetScenario(ctx context.Context, organizationID, scenarioID string) (*model.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.scenarios[scenarioID]
	if !ok || sc.OrganizationID != organizationID {
		return nil, nil
	}
	return &sc, nil
}

func (r *MemoryRepository) SetKitCount(ctx context.Context, organizationID, scenarioID string, kitCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.scenarios[scenarioID]
	if !ok || sc.OrganizationID != organizationID {
		return catalog.ErrScenarioNotFound
	}
	sc.KitCount = kitCount
	r.scenarios[scenarioID] = sc
	return nil
}

func (r *MemoryRepository) ListPerformances(ctx context.Context, organizationID string, start, end time.Time) ([]model.Performance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// schedule dates are whole days, so end covers its full day
	last := end.AddDate(0, 0, 1)
	var out []model.Performance
	for _, p := range r.performances {
		if p.Date.Before(start) || !p.Date.Before(last) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
