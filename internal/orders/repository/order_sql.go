package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	orderserrors "smartrentals/internal/orders/errors"
	"smartrentals/pkg/db"
	"smartrentals/pkg/db/sqldb"
	"smartrentals/pkg/model"
	"strings"
	"time"
)

const orderColumns = `id, customer_ref, contact_phone, status, currency, subtotal, total, created_at, updated_at`

type sqlOrderRepository struct {
	db *sqldb.DB
	tx db.TransactionManager
}

func NewSQLOrderRepository(d *sqldb.DB) OrderRepository {
	return &sqlOrderRepository{
		db: d,
		tx: sqldb.NewTransactionManager(d),
	}
}

func (r *sqlOrderRepository) Create(ctx context.Context, o *model.Order) error {
	return r.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		_, err := conn.ExecContext(ctx,
			r.db.Rebind(`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			o.ID, o.CustomerRef, o.ContactPhone, string(o.Status), o.Currency, o.Subtotal, o.Total,
			sqldb.Millis(o.CreatedAt), sqldb.Millis(o.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		lineQuery := r.db.Rebind(`INSERT INTO order_lines (order_id, position, reservation_id, product_id, inventory_item_id,
			start_ms, end_ms, duration_hours, duration_days, rate_basis, rate, total) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		for i, l := range o.Lines {
			_, err := conn.ExecContext(ctx, lineQuery,
				o.ID, i, l.ReservationID, l.ProductID, l.UnitID, sqldb.Millis(l.Start), sqldb.Millis(l.End),
				l.Quote.DurationHours, l.Quote.DurationDays, string(l.Quote.RateBasis), l.Quote.Rate, l.Quote.Total,
			)
			if err != nil {
				return fmt.Errorf("failed to create order line %d: %w", i, err)
			}
		}

		for i, change := range o.StatusHistory {
			if err := r.insertHistory(ctx, o.ID, i+1, change); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sqlOrderRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	row := r.db.Conn(ctx).QueryRowContext(ctx, r.db.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, orderserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if err := r.loadChildren(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *sqlOrderRepository) FindAll(ctx context.Context, filter model.OrderFilter) ([]*model.Order, error) {
	where, args := orderWhere(filter)
	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}
	return r.findOrders(ctx, query, args...)
}

func orderWhere(filter model.OrderFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, string(filter.Status))
	}
	if filter.CustomerRef != "" {
		conds = append(conds, `customer_ref = ?`)
		args = append(args, filter.CustomerRef)
	}
	if len(conds) == 0 {
		return "", args
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

func (r *sqlOrderRepository) Count(ctx context.Context, filter model.OrderFilter) (int64, error) {
	where, args := orderWhere(filter)
	query := `SELECT COUNT(*) FROM orders` + where

	var n int64
	if err := r.db.Conn(ctx).QueryRowContext(ctx, r.db.Rebind(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (r *sqlOrderRepository) UpdateStatus(ctx context.Context, id string, change model.StatusChange) error {
	return r.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		res, err := r.db.Conn(ctx).ExecContext(ctx,
			r.db.Rebind(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`),
			string(change.To), sqldb.Millis(change.At), id, string(change.From),
		)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if n == 0 {
			if _, err := r.FindByID(ctx, id); err != nil {
				return err
			}
			return orderserrors.ErrStatusChanged
		}

		var seq int
		err = r.db.Conn(ctx).QueryRowContext(ctx,
			r.db.Rebind(`SELECT COALESCE(MAX(seq), 0) + 1 FROM order_status_history WHERE order_id = ?`), id,
		).Scan(&seq)
		if err != nil {
			return fmt.Errorf("failed to read order history: %w", err)
		}
		return r.insertHistory(ctx, id, seq, change)
	})
}

func (r *sqlOrderRepository) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = ? AND created_at < ? ORDER BY created_at, id`
	return r.findOrders(ctx, query, string(model.OrderPending), sqldb.Millis(cutoff))
}

func (r *sqlOrderRepository) SavePayment(ctx context.Context, p *model.Payment) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx,
		r.db.Rebind(`INSERT INTO payments (id, order_id, method, amount, reference, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		p.ID, p.OrderID, p.Method, p.Amount, p.Reference, sqldb.Millis(p.CreatedAt),
	)
	if err != nil {
		if sqldb.IsUniqueViolation(err) {
			return orderserrors.ErrPaymentExists
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (r *sqlOrderRepository) findOrders(ctx context.Context, query string, args ...any) ([]*model.Order, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}

	orders := []*model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	rows.Close()

	// Children are loaded after the cursor closes so a single transaction
	// connection is never asked to serve two result sets.
	for _, o := range orders {
		if err := r.loadChildren(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *sqlOrderRepository) loadChildren(ctx context.Context, o *model.Order) error {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, r.db.Rebind(`SELECT reservation_id, product_id, inventory_item_id,
		start_ms, end_ms, duration_hours, duration_days, rate_basis, rate, total
		FROM order_lines WHERE order_id = ? ORDER BY position`), o.ID)
	if err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	o.Lines = []model.OrderLine{}
	for rows.Next() {
		var (
			l              model.OrderLine
			startMs, endMs int64
			basis          string
		)
		err := rows.Scan(&l.ReservationID, &l.ProductID, &l.UnitID, &startMs, &endMs,
			&l.Quote.DurationHours, &l.Quote.DurationDays, &basis, &l.Quote.Rate, &l.Quote.Total)
		if err != nil {
			return fmt.Errorf("failed to decode order line: %w", err)
		}
		l.Start = sqldb.FromMillis(startMs)
		l.End = sqldb.FromMillis(endMs)
		l.Quote.RateBasis = model.RateKind(basis)
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	rows.Close()

	hist, err := r.db.Conn(ctx).QueryContext(ctx, r.db.Rebind(`SELECT from_status, to_status, at, note
		FROM order_status_history WHERE order_id = ? ORDER BY seq`), o.ID)
	if err != nil {
		return fmt.Errorf("failed to load order history: %w", err)
	}
	defer hist.Close()

	o.StatusHistory = []model.StatusChange{}
	for hist.Next() {
		var (
			c        model.StatusChange
			from, to string
			at       int64
		)
		if err := hist.Scan(&from, &to, &at, &c.Note); err != nil {
			return fmt.Errorf("failed to decode order history: %w", err)
		}
		c.From = model.OrderStatus(from)
		c.To = model.OrderStatus(to)
		c.At = sqldb.FromMillis(at)
		o.StatusHistory = append(o.StatusHistory, c)
	}
	return hist.Err()
}

func (r *sqlOrderRepository) insertHistory(ctx context.Context, orderID string, seq int, c model.StatusChange) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx,
		r.db.Rebind(`INSERT INTO order_status_history (order_id, seq, from_status, to_status, at, note) VALUES (?, ?, ?, ?, ?, ?)`),
		orderID, seq, string(c.From), string(c.To), sqldb.Millis(c.At), c.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to record order history: %w", err)
	}
	return nil
}

func scanOrder(s interface{ Scan(...any) error }) (*model.Order, error) {
	var (
		o                    model.Order
		status               string
		createdAt, updatedAt int64
	)
	err := s.Scan(&o.ID, &o.CustomerRef, &o.ContactPhone, &status, &o.Currency, &o.Subtotal, &o.Total, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	o.CreatedAt = sqldb.FromMillis(createdAt)
	o.UpdatedAt = sqldb.FromMillis(updatedAt)
	return &o, nil
}
