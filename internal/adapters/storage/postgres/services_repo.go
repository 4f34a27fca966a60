package postgres

import (
	"context"
	"database/sql"
	"strings"

	"vetclinic-api/internal/domain/services"
)

type ServicesRepo struct {
	db *sql.DB
}

func NewServicesRepo(db *sql.DB) *ServicesRepo {
	return &ServicesRepo{db: db}
}

const serviceColumns = `
	id, title, description, price, duration_minutes, is_active,
	created_at, updated_at
`

func (r *ServicesRepo) Create(ctx context.Context, s services.Service) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO services (
			id, title, description, price, duration_minutes, is_active,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		s.ID,
		s.Title,
		s.Description,
		s.Price,
		s.DurationMinutes,
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *ServicesRepo) Update(ctx context.Context, s services.Service) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE services
		SET
			title = $2,
			description = $3,
			price = $4,
			duration_minutes = $5,
			is_active = $6,
			updated_at = $7
		WHERE id = $1
	`,
		s.ID,
		s.Title,
		s.Description,
		s.Price,
		s.DurationMinutes,
		s.IsActive,
		s.UpdatedAt,
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

func (r *ServicesRepo) GetByID(ctx context.Context, id string) (services.Service, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return services.Service{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, id)

	var s services.Service
	if err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Price,
		&s.DurationMinutes,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return services.Service{}, ErrNotFound
		}
		return services.Service{}, err
	}
	return s, nil
}

func (r *ServicesRepo) List(ctx context.Context, onlyActive bool) ([]services.Service, error) {
	query := `
		SELECT ` + serviceColumns + `
		FROM services
		ORDER BY title ASC
	`
	if onlyActive {
		query = `
			SELECT ` + serviceColumns + `
			FROM services
			WHERE is_active
			ORDER BY title ASC
		`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]services.Service, 0)
	for rows.Next() {
		var s services.Service
		if err := rows.Scan(
			&s.ID,
			&s.Title,
			&s.Description,
			&s.Price,
			&s.DurationMinutes,
			&s.IsActive,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ServicesRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
