package quote

import "context"

// Repository abstracts quote persistence. Lists are newest first.
type Repository interface {
	Create(ctx context.Context, q Quote) (Quote, error)
	Get(ctx context.Context, id string) (Quote, bool, error)
	// Update stores q only while the stored status still equals from,
	// returning ErrStatusChanged otherwise.
	Update(ctx context.Context, q Quote, from Status) (Quote, error)
	ListByUser(ctx context.Context, userID string) ([]Quote, error)
	ListAll(ctx context.Context) ([]Quote, error)
}
