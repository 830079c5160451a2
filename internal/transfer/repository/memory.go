package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/model"
	"github.com/fekuna/mystery-kit-service/internal/transfer"
)

func inWindow(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// MemoryEventRepository keeps transfer events in process.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]model.TransferEvent
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string]model.TransferEvent)}
}

var _ transfer.EventRepository = (*MemoryEventRepository)(nil)

func (r *MemoryEventRepository) CreateMany(ctx context.Context, events []model.TransferEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		r.events[ev.ID] = ev
	}
	return nil
}

func (r *MemoryEventRepository) Get(ctx context.Context, organizationID, id string) (*model.TransferEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.events[id]
	if !ok || ev.OrganizationID != organizationID {
		return nil, nil
	}
	return &ev, nil
}

func (r *MemoryEventRepository) List(ctx context.Context, organizationID string, start, end time.Time, status *model.TransferStatus) ([]model.TransferEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.TransferEvent, 0)
	for _, ev := range r.events {
		if ev.OrganizationID != organizationID || !inWindow(ev.TransferDate, start, end) {
			continue
		}
		if status != nil && ev.Status != *status {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransferDate.Equal(out[j].TransferDate) {
			return out[i].TransferDate.Before(out[j].TransferDate)
		}
		if out[i].ScenarioID != out[j].ScenarioID {
			return out[i].ScenarioID < out[j].ScenarioID
		}
		if out[i].KitNumber != out[j].KitNumber {
			return out[i].KitNumber < out[j].KitNumber
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryEventRepository) UpdateStatus(ctx context.Context, organizationID, id string, status model.TransferStatus, at time.Time) (*model.TransferEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok || ev.OrganizationID != organizationID {
		return nil, nil
	}
	ev.Status = status
	ev.UpdatedAt = at
	r.events[id] = ev
	return &ev, nil
}

func (r *MemoryEventRepository) Delete(ctx context.Context, organizationID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok || ev.OrganizationID != organizationID {
		return false, nil
	}
	delete(r.events, id)
	return true, nil
}

func (r *MemoryEventRepository) CancelPending(ctx context.Context, organizationID string, start, end time.Time, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, ev := range r.events {
		if ev.OrganizationID != organizationID || ev.Status != model.TransferPending || !inWindow(ev.TransferDate, start, end) {
			continue
		}
		ev.Status = model.TransferCancelled
		ev.UpdatedAt = at
		r.events[id] = ev
		n++
	}
	return n, nil
}

type completionKey struct {
	organizationID string
	model.CompletionKey
}

// MemoryCompletionRepository keeps completion records in process.
type MemoryCompletionRepository struct {
	mu          sync.RWMutex
	completions map[completionKey]model.TransferCompletion
}

func NewMemoryCompletionRepository() *MemoryCompletionRepository {
	return &MemoryCompletionRepository{completions: make(map[completionKey]model.TransferCompletion)}
}

var _ transfer.CompletionRepository = (*MemoryCompletionRepository)(nil)

func (r *MemoryCompletionRepository) Get(ctx context.Context, organizationID string, key model.CompletionKey) (*model.TransferCompletion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.completions[completionKey{organizationID, key}]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryCompletionRepository) Upsert(ctx context.Context, c *model.TransferCompletion) (*model.TransferCompletion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := completionKey{c.OrganizationID, c.Key()}
	if existing, ok := r.completions[k]; ok {
		// Natural key wins; identity and creation time stay with the first row.
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	}
	r.completions[k] = *c
	saved := *c
	return &saved, nil
}

func (r *MemoryCompletionRepository) ListByWindow(ctx context.Context, organizationID string, start, end time.Time) ([]model.TransferCompletion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.TransferCompletion, 0)
	for k, c := range r.completions {
		if k.organizationID == organizationID && inWindow(c.PerformanceDate, start, end) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.PerformanceDate.Equal(b.PerformanceDate) {
			return a.PerformanceDate.Before(b.PerformanceDate)
		}
		if a.ScenarioID != b.ScenarioID {
			return a.ScenarioID < b.ScenarioID
		}
		if a.KitNumber != b.KitNumber {
			return a.KitNumber < b.KitNumber
		}
		return a.ToStoreID < b.ToStoreID
	})
	return out, nil
}

func (r *MemoryCompletionRepository) DeleteWindow(ctx context.Context, organizationID string, start, end time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, c := range r.completions {
		if k.organizationID == organizationID && inWindow(c.PerformanceDate, start, end) {
			delete(r.completions, k)
			n++
		}
	}
	return n, nil
}
