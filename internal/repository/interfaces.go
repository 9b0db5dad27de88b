// Package repository holds the storage-agnostic persistence contracts shared
// by the domain services. Aggregate-specific repository interfaces live next
// to the aggregate that consumes them.
package repository

import "context"

// TxManager runs fn inside a single storage transaction. The transaction
// travels in the context handed to fn; repositories called with that context
// take part in it. Calls nested inside fn join the outer transaction instead
// of opening a new one.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
