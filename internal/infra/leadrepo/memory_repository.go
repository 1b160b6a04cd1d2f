package leadrepo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/solarinfra/internal/domain/lead"
)

// MemoryRepository keeps leads in insertion order for tests/dev.
type MemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]lead.DesignLead
	order []string
}

// NewMemoryRepository constructs an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{leads: make(map[string]lead.DesignLead)}
}

// Create assigns an id and stores the lead.
func (r *MemoryRepository) Create(_ context.Context, l lead.DesignLead) (lead.DesignLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = uuid.NewString()
	r.leads[l.ID] = l
	r.order = append(r.order, l.ID)
	return l, nil
}

// Get fetches by id.
func (r *MemoryRepository) Get(_ context.Context, id string) (lead.DesignLead, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leads[id]
	return l, ok, nil
}

// Update replaces a stored lead.
func (r *MemoryRepository) Update(_ context.Context, l lead.DesignLead) (lead.DesignLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.leads[l.ID]
	if !ok {
		return lead.DesignLead{}, lead.ErrNotFound
	}
	l.CreatedAt = existing.CreatedAt
	r.leads[l.ID] = l
	return l, nil
}

// List returns leads newest first.
func (r *MemoryRepository) List(_ context.Context) ([]lead.DesignLead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]lead.DesignLead, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.leads[r.order[i]])
	}
	return out, nil
}

var _ lead.Repository = (*MemoryRepository)(nil)
