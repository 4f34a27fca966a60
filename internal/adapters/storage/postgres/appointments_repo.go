package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"vetclinic-api/internal/domain/appointments"

	"github.com/jackc/pgx/v5/pgconn"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

const appointmentColumns = `
	id, user_id, pet_id, service_id, vet_user_id,
	date, status,
	created_at, updated_at
`

// Create depende del índice único parcial que cierra la carrera del slot:
//
//	CREATE UNIQUE INDEX appointments_slot_uq
//	  ON appointments (date) WHERE status <> 'Cancelled';
//
// La violación (23505) se traduce a ErrSlotTaken.
func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (
			id, user_id, pet_id, service_id, vet_user_id,
			date, status,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		a.ID,
		a.UserID,
		a.PetID,
		a.ServiceID,
		a.VetUserID,
		a.Date,
		string(a.Status),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return appointments.ErrSlotTaken
		}
		return err
	}
	return nil
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET
			vet_user_id = $2,
			date = $3,
			status = $4,
			updated_at = $5
		WHERE id = $1
	`,
		a.ID,
		a.VetUserID,
		a.Date,
		string(a.Status),
		a.UpdatedAt,
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

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return appointments.Appointment{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)

	return scanAppointment(row)
}

func (r *AppointmentsRepo) List(ctx context.Context) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointments(rows)
}

func (r *AppointmentsRepo) ListByUser(ctx context.Context, userID string) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE user_id = $1
		ORDER BY date ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointments(rows)
}

func (r *AppointmentsRepo) ListByVet(ctx context.Context, vetUserID string) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE vet_user_id = $1
		ORDER BY date ASC
	`, vetUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointments(rows)
}

func (r *AppointmentsRepo) ListBetween(ctx context.Context, from, to time.Time) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointments(rows)
}

func (r *AppointmentsRepo) ListPendingBetween(ctx context.Context, from, to time.Time) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'Pending' AND date >= $1 AND date <= $2
		ORDER BY date ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointments(rows)
}

func (r *AppointmentsRepo) CompletePendingBefore(ctx context.Context, cutoff, updatedAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET status = 'Completed', updated_at = $2
		WHERE status = 'Pending' AND date < $1
	`, cutoff, updatedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *AppointmentsRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE pet_id = $1`, petID)
	return err
}

func scanAppointment(row rowScanner) (appointments.Appointment, error) {
	var a appointments.Appointment
	var status string
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.PetID,
		&a.ServiceID,
		&a.VetUserID,
		&a.Date,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return appointments.Appointment{}, ErrNotFound
		}
		return appointments.Appointment{}, err
	}
	a.Status = appointments.Status(status)
	return a, nil
}

func scanAppointments(rows *sql.Rows) ([]appointments.Appointment, error) {
	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
