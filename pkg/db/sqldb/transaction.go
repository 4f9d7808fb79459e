package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"smartrentals/pkg/db"
	apperrors "smartrentals/pkg/errors"
)

type sqlTransactionManager struct {
	db *DB
}

func NewTransactionManager(d *DB) db.TransactionManager {
	return &sqlTransactionManager{db: d}
}

// ExecuteTransaction commits when fn returns nil and rolls back otherwise.
// A call nested inside an open transaction joins it.
func (m *sqlTransactionManager) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
