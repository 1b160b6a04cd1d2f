package productrepo

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/solarinfra/internal/domain/catalog"
)

// MemoryRepository keeps products in memory for tests/dev.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

// NewMemoryRepository constructs an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{products: make(map[string]catalog.Product)}
}

// Create assigns an id and stores the product.
func (r *MemoryRepository) Create(_ context.Context, p catalog.Product) (catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	p.Features = slices.Clone(p.Features)
	r.products[p.ID] = p
	return clone(p), nil
}

// Get fetches by id.
func (r *MemoryRepository) Get(_ context.Context, id string) (catalog.Product, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	return clone(p), ok, nil
}

// List returns a copy of every product.
func (r *MemoryRepository) List(_ context.Context) ([]catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, clone(p))
	}
	return out, nil
}

// Update replaces an existing product; creation time is preserved.
func (r *MemoryRepository) Update(_ context.Context, p catalog.Product) (catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.products[p.ID]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.Features = slices.Clone(p.Features)
	r.products[p.ID] = p
	return clone(p), nil
}

// Delete removes a product.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// Count returns the number of stored products.
func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products), nil
}

func clone(p catalog.Product) catalog.Product {
	p.Features = slices.Clone(p.Features)
	return p
}

var _ catalog.Repository = (*MemoryRepository)(nil)
