package series

import "context"

// Store persists series and instances. Implementations return ErrNotFound
// for unknown ids. Transaction runs fn against a Store bound to a single
// transaction and commits only when fn returns nil.
type Store interface {
	GetInstance(ctx context.Context, id string) (*Instance, error)
	// ListInstances returns the instances of a series ordered by date.
	ListInstances(ctx context.Context, seriesID string) ([]Instance, error)
	// ListOwnerInstances returns every instance of an owner, standalone or not, ordered by date.
	ListOwnerInstances(ctx context.Context, ownerID string) ([]Instance, error)
	UpsertInstances(ctx context.Context, instances []Instance) error
	DeleteInstances(ctx context.Context, ids []string) error

	GetSeries(ctx context.Context, id string) (*Series, error)
	ListSeries(ctx context.Context) ([]Series, error)
	SaveSeries(ctx context.Context, s *Series) error

	Transaction(ctx context.Context, fn func(tx Store) error) error
}
