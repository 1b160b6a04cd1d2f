package quoterepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/solarinfra/internal/domain/quote"
)

type entry struct {
	quote quote.Quote
	seq   int64
}

// MemoryRepository keeps quotes in memory for tests/dev.
type MemoryRepository struct {
	mu     sync.RWMutex
	quotes map[string]entry
	seq    int64
}

// NewMemoryRepository constructs an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{quotes: make(map[string]entry)}
}

// Create assigns an id and stores the quote.
func (r *MemoryRepository) Create(_ context.Context, q quote.Quote) (quote.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	q.ID = uuid.NewString()
	r.quotes[q.ID] = entry{quote: q, seq: r.seq}
	return q, nil
}

// Get fetches by id.
func (r *MemoryRepository) Get(_ context.Context, id string) (quote.Quote, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.quotes[id]
	return e.quote, ok, nil
}

// Update replaces a stored quote, keeping its creation time.
func (r *MemoryRepository) Update(_ context.Context, q quote.Quote, from quote.Status) (quote.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.quotes[q.ID]
	if !ok {
		return quote.Quote{}, quote.ErrNotFound
	}
	if e.quote.Status != from {
		return quote.Quote{}, quote.ErrStatusChanged
	}
	q.CreatedAt = e.quote.CreatedAt
	e.quote = q
	r.quotes[q.ID] = e
	return q, nil
}

// ListByUser returns one customer's quotes, newest first.
func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]quote.Quote, error) {
	return r.list(func(q quote.Quote) bool { return q.UserID == userID }), nil
}

// ListAll returns every quote, newest first.
func (r *MemoryRepository) ListAll(_ context.Context) ([]quote.Quote, error) {
	return r.list(func(quote.Quote) bool { return true }), nil
}

func (r *MemoryRepository) list(keep func(quote.Quote) bool) []quote.Quote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]entry, 0, len(r.quotes))
	for _, e := range r.quotes {
		if keep(e.quote) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].quote.CreatedAt.Equal(entries[j].quote.CreatedAt) {
			return entries[i].quote.CreatedAt.After(entries[j].quote.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})
	out := make([]quote.Quote, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.quote)
	}
	return out
}

var _ quote.Repository = (*MemoryRepository)(nil)
