package dao

import (
	"context"
)

// Service is a keyed entity store.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	// Load returns nil, nil when the entity does not exist.
	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Creator is implemented by stores offering an atomic insert-if-absent.
type Creator[K comparable, T any] interface {
	// Create stores t unless its key is taken, in which case ErrAlreadyExists is returned.
	Create(ctx context.Context, t *T) error
}
