package postgres

import (
	"context"
	"database/sql"
	"strings"

	"vetclinic-api/internal/domain/products"
)

type ProductsRepo struct {
	db *sql.DB
}

func NewProductsRepo(db *sql.DB) *ProductsRepo {
	return &ProductsRepo{db: db}
}

func (r *ProductsRepo) Create(ctx context.Context, p products.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, description, price, stock,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *ProductsRepo) Update(ctx context.Context, p products.Product) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET
			name = $2,
			description = $3,
			price = $4,
			stock = $5,
			updated_at = $6
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Stock,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (products.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return products.Product{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id)

	var p products.Product
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return products.Product{}, ErrNotFound
		}
		return products.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) List(ctx context.Context) ([]products.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, stock, created_at, updated_at
		FROM products
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]products.Product, 0)
	for rows.Next() {
		var p products.Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Stock,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
