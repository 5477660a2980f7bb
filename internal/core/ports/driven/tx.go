package driven

import "context"

// Transactor runs a function inside a storage transaction.
//
// The transaction is carried in the context passed to fn; store methods
// called with that context join the transaction. fn returning an error
// rolls the transaction back, otherwise it commits.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
