package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	reservationserrors "smartrentals/internal/reservations/errors"
	"smartrentals/pkg/db"
	"smartrentals/pkg/db/sqldb"
	"smartrentals/pkg/model"
	"time"
)

const reservationColumns = `id, order_id, inventory_item_id, product_id, start_ms, end_ms, voided, created_at`

type sqlLedger struct {
	db *sqldb.DB
	tx db.TransactionManager
}

func NewSQLLedger(d *sqldb.DB) Ledger {
	return &sqlLedger{
		db: d,
		tx: sqldb.NewTransactionManager(d),
	}
}

func (l *sqlLedger) Overlapping(ctx context.Context, unitID string, start, end time.Time) ([]*model.Reservation, error) {
	query := l.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations
		WHERE inventory_item_id = ? AND voided = ? AND start_ms < ? AND end_ms > ?
		ORDER BY start_ms, id`)
	return l.query(ctx, query, unitID, false, sqldb.Millis(end), sqldb.Millis(start))
}

// Insert locks the unit row before the overlap check. On Postgres the row
// lock serializes writers per unit and the exclusion constraint backs it up;
// SQLite transactions already hold the database write lock.
func (l *sqlLedger) Insert(ctx context.Context, r *model.Reservation) error {
	if !r.Start.Before(r.End) {
		return reservationserrors.ErrInvalidRange
	}

	return l.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		conn := l.db.Conn(ctx)

		var active bool
		err := conn.QueryRowContext(ctx,
			l.db.Rebind(`SELECT active FROM inventory_units WHERE id = ?`+l.db.ForUpdate()), r.UnitID,
		).Scan(&active)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return reservationserrors.ErrUnitNotFound
			}
			return fmt.Errorf("failed to lock inventory unit: %w", err)
		}
		if !active {
			return reservationserrors.ErrUnitInactive
		}

		var overlapping int
		err = conn.QueryRowContext(ctx, l.db.Rebind(`SELECT COUNT(*) FROM reservations
			WHERE inventory_item_id = ? AND voided = ? AND start_ms < ? AND end_ms > ?`),
			r.UnitID, false, sqldb.Millis(r.End), sqldb.Millis(r.Start),
		).Scan(&overlapping)
		if err != nil {
			return fmt.Errorf("failed to check overlapping reservations: %w", err)
		}
		if overlapping > 0 {
			return reservationserrors.ErrConflict
		}

		_, err = conn.ExecContext(ctx,
			l.db.Rebind(`INSERT INTO reservations (`+reservationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			r.ID, r.OrderID, r.UnitID, r.ProductID, sqldb.Millis(r.Start), sqldb.Millis(r.End), r.Voided, sqldb.Millis(r.CreatedAt),
		)
		if err != nil {
			if sqldb.IsOverlapViolation(err) || sqldb.IsUniqueViolation(err) {
				return reservationserrors.ErrConflict
			}
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	})
}

func (l *sqlLedger) FindByOrder(ctx context.Context, orderID string) ([]*model.Reservation, error) {
	query := l.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations WHERE order_id = ? ORDER BY start_ms, id`)
	return l.query(ctx, query, orderID)
}

func (l *sqlLedger) VoidByOrder(ctx context.Context, orderID string) (int64, error) {
	res, err := l.db.Conn(ctx).ExecContext(ctx,
		l.db.Rebind(`UPDATE reservations SET voided = ? WHERE order_id = ? AND voided = ?`), true, orderID, false)
	if err != nil {
		return 0, fmt.Errorf("failed to void reservations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count voided reservations: %w", err)
	}
	return n, nil
}

func (l *sqlLedger) Usage(ctx context.Context, unitID string, now time.Time) (*model.UnitUsage, error) {
	usage := &model.UnitUsage{UnitID: unitID}
	err := l.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		conn := l.db.Conn(ctx)

		var id string
		err := conn.QueryRowContext(ctx,
			l.db.Rebind(`SELECT id FROM inventory_units WHERE id = ?`+l.db.ForUpdate()), unitID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return reservationserrors.ErrUnitNotFound
			}
			return fmt.Errorf("failed to lock inventory unit: %w", err)
		}

		err = conn.QueryRowContext(ctx, l.db.Rebind(`SELECT
			COALESCE(SUM(CASE WHEN voided = ? AND end_ms > ? THEN 1 ELSE 0 END), 0), COUNT(*)
			FROM reservations WHERE inventory_item_id = ?`),
			false, sqldb.Millis(now), unitID,
		).Scan(&usage.Live, &usage.Total)
		if err != nil {
			return fmt.Errorf("failed to count reservations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (l *sqlLedger) FindInWindow(ctx context.Context, start, end time.Time) ([]*model.Reservation, error) {
	query := l.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations
		WHERE voided = ? AND start_ms < ? AND end_ms > ?
		ORDER BY start_ms, id`)
	return l.query(ctx, query, false, sqldb.Millis(end), sqldb.Millis(start))
}

func (l *sqlLedger) query(ctx context.Context, query string, args ...any) ([]*model.Reservation, error) {
	rows, err := l.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer rows.Close()

	reservations := []*model.Reservation{}
	for rows.Next() {
		var (
			r                         model.Reservation
			startMs, endMs, createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.OrderID, &r.UnitID, &r.ProductID, &startMs, &endMs, &r.Voided, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to decode reservation: %w", err)
		}
		r.Start = sqldb.FromMillis(startMs)
		r.End = sqldb.FromMillis(endMs)
		r.CreatedAt = sqldb.FromMillis(createdAt)
		reservations = append(reservations, &r)
	}
	return reservations, rows.Err()
}
