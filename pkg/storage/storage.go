package storage

import "context"

// Storage is an ordered key-value store. List and All return the most
// recently created entries first.
type Storage interface {
	Create(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) (any, error)
	Update(ctx context.Context, key string, value any) error
	List(ctx context.Context, offset, limit uint64) ([]any, uint64, error)
	All(ctx context.Context) ([]any, error)
	Delete(ctx context.Context, key string) error
}
