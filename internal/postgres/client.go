package postgres

import "context"

// IClient is the subset of DB that services depend on. Tests substitute a
// client whose WithTx simply invokes the function.
type IClient interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ IClient = (*DB)(nil)
