// Package db holds the storage-agnostic transaction contract shared by the
// Mongo and SQL backends.
package db

import "context"

// TransactionFunc runs inside a transaction. Repository calls made with the
// ctx it receives participate in that transaction.
type TransactionFunc func(ctx context.Context) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}
