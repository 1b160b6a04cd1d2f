package quoterepo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/solarinfra/internal/domain/quote"
)

func TestMemoryRepository_UpdateRequiresExpectedStatus(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	q, err := repo.Create(ctx, quote.Quote{UserID: "u1", Status: quote.StatusApproved})
	require.NoError(t, err)

	const payers = 8
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < payers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			paid := q
			paid.Status = quote.StatusPaid
			_, err := repo.Update(ctx, paid, quote.StatusApproved)
			if err == nil {
				wins.Add(1)
				return
			}
			assert.ErrorIs(t, err, quote.ErrStatusChanged)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())

	stored, found, err := repo.Get(ctx, q.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, quote.StatusPaid, stored.Status)

	_, err = repo.Update(ctx, quote.Quote{ID: "missing"}, quote.StatusApproved)
	require.ErrorIs(t, err, quote.ErrNotFound)
}
