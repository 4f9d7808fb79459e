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

const productColumns = `id, name, description, sku, image_url, category, rate_kind, rate, min_hours, max_hours, published, created_at`

type sqlProductRepository struct {
	db *sqldb.DB
}

func NewSQLProductRepository(db *sqldb.DB) ProductRepository {
	return &sqlProductRepository{db: db}
}

func (r *sqlProductRepository) Create(ctx context.Context, p *model.Product) error {
	query := r.db.Rebind(`INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		p.ID, p.Name, p.Description, sqldb.NullString(p.SKU), p.ImageURL, p.Category,
		string(p.Rate.Kind), p.Rate.Rate, sqldb.NullInt64(p.MinHours), sqldb.NullInt64(p.MaxHours),
		p.Published, sqldb.Millis(p.CreatedAt),
	)
	if err != nil {
		if sqldb.IsUniqueViolation(err) {
			return catalogerrors.ErrDuplicateSKU
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *sqlProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	row := r.db.Conn(ctx).QueryRowContext(ctx, r.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogerrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

func (r *sqlProductRepository) Update(ctx context.Context, p *model.Product) error {
	query := r.db.Rebind(`UPDATE products SET name = ?, description = ?, sku = ?, image_url = ?, category = ?,
		rate_kind = ?, rate = ?, min_hours = ?, max_hours = ?, published = ? WHERE id = ?`)
	res, err := r.db.Conn(ctx).ExecContext(ctx, query,
		p.Name, p.Description, sqldb.NullString(p.SKU), p.ImageURL, p.Category,
		string(p.Rate.Kind), p.Rate.Rate, sqldb.NullInt64(p.MinHours), sqldb.NullInt64(p.MaxHours),
		p.Published, p.ID,
	)
	if err != nil {
		if sqldb.IsUniqueViolation(err) {
			return catalogerrors.ErrDuplicateSKU
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return notFoundIfNone(res, catalogerrors.ErrProductNotFound)
}

func (r *sqlProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return notFoundIfNone(res, catalogerrors.ErrProductNotFound)
}

func (r *sqlProductRepository) FindAll(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.PublishedOnly {
		where = append(where, "published = ?")
		args = append(args, true)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.InStockOnly {
		where = append(where, "EXISTS (SELECT 1 FROM inventory_units u WHERE u.product_id = products.id AND u.active = ?)")
		args = append(args, true)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := r.db.Conn(ctx).QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *sqlProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx, `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to decode category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func notFoundIfNone(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*model.Product, error) {
	var (
		p         model.Product
		sku       sql.NullString
		kind      string
		minHours  sql.NullInt64
		maxHours  sql.NullInt64
		createdAt int64
	)
	err := s.Scan(&p.ID, &p.Name, &p.Description, &sku, &p.ImageURL, &p.Category,
		&kind, &p.Rate.Rate, &minHours, &maxHours, &p.Published, &createdAt)
	if err != nil {
		return nil, err
	}
	p.SKU = sku.String
	p.Rate.Kind = model.RateKind(kind)
	p.MinHours = sqldb.Int64Ptr(minHours)
	p.MaxHours = sqldb.Int64Ptr(maxHours)
	p.CreatedAt = sqldb.FromMillis(createdAt)
	return &p, nil
}
