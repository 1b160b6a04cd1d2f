package catalog

import "context"

// Repository abstracts product persistence.
type Repository interface {
	Create(ctx context.Context, product Product) (Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)
	// List returns every product; ordering is applied by the service.
	List(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}
