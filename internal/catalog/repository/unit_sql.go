package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	catalogerrors "smartrentals/internal/catalog/errors"
	"smartrentals/pkg/db/sqldb"
	"smartrentals/pkg/model"
	"strings"
)

const unitColumns = `id, product_id, label, location, active, created_at`

type sqlUnitRepository struct {
	db *sqldb.DB
}

func NewSQLUnitRepository(db *sqldb.DB) UnitRepository {
	return &sqlUnitRepository{db: db}
}

func (r *sqlUnitRepository) Create(ctx context.Context, u *model.InventoryUnit) error {
	query := r.db.Rebind(`INSERT INTO inventory_units (` + unitColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		u.ID, u.ProductID, u.Label, u.Location, u.Active, sqldb.Millis(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create inventory unit: %w", err)
	}
	return nil
}

func (r *sqlUnitRepository) FindByID(ctx context.Context, id string) (*model.InventoryUnit, error) {
	row := r.db.Conn(ctx).QueryRowContext(ctx, r.db.Rebind(`SELECT `+unitColumns+` FROM inventory_units WHERE id = ?`), id)
	u, err := scanUnit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to find inventory unit: %w", err)
	}
	return u, nil
}

func (r *sqlUnitRepository) Update(ctx context.Context, id string, update *model.InventoryUnitUpdate) (*model.InventoryUnit, error) {
	var (
		set  []string
		args []any
	)
	if update.Label != nil {
		set = append(set, "label = ?")
		args = append(args, *update.Label)
	}
	if update.Location != nil {
		set = append(set, "location = ?")
		args = append(args, *update.Location)
	}
	if update.Active != nil {
		set = append(set, "active = ?")
		args = append(args, *update.Active)
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := r.db.Rebind(`UPDATE inventory_units SET ` + strings.Join(set, ", ") + ` WHERE id = ?`)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update inventory unit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, catalogerrors.ErrUnitNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *sqlUnitRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, r.db.Rebind(`DELETE FROM inventory_units WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory unit: %w", err)
	}
	return notFoundIfNone(res, catalogerrors.ErrUnitNotFound)
}

func (r *sqlUnitRepository) FindByProduct(ctx context.Context, productID string, activeOnly bool) ([]*model.InventoryUnit, error) {
	query := `SELECT ` + unitColumns + ` FROM inventory_units WHERE product_id = ?`
	args := []any{productID}
	if activeOnly {
		query += " AND active = ?"
		args = append(args, true)
	}
	query += " ORDER BY id"

	rows, err := r.db.Conn(ctx).QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory units: %w", err)
	}
	defer rows.Close()

	units := []*model.InventoryUnit{}
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode inventory unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *sqlUnitRepository) Counts(ctx context.Context) ([]*model.InventoryCount, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, r.db.Rebind(
		`SELECT product_id, COUNT(*), SUM(CASE WHEN active = ? THEN 1 ELSE 0 END)
		 FROM inventory_units GROUP BY product_id ORDER BY product_id`), true)
	if err != nil {
		return nil, fmt.Errorf("failed to count inventory units: %w", err)
	}
	defer rows.Close()

	counts := []*model.InventoryCount{}
	for rows.Next() {
		var c model.InventoryCount
		if err := rows.Scan(&c.ProductID, &c.Total, &c.Active); err != nil {
			return nil, fmt.Errorf("failed to decode inventory count: %w", err)
		}
		counts = append(counts, &c)
	}
	return counts, rows.Err()
}

func scanUnit(s scanner) (*model.InventoryUnit, error) {
	var (
		u         model.InventoryUnit
		createdAt int64
	)
	if err := s.Scan(&u.ID, &u.ProductID, &u.Label, &u.Location, &u.Active, &createdAt); err != nil {
		return nil, err
	}
	u.CreatedAt = sqldb.FromMillis(createdAt)
	return &u, nil
}
