package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"vetclinic-api/internal/domain/medicalrecords"
)

type MedicalRecordsRepo struct {
	db *sql.DB
}

func NewMedicalRecordsRepo(db *sql.DB) *MedicalRecordsRepo {
	return &MedicalRecordsRepo{db: db}
}

const recordColumns = `
	id, pet_id, vet_user_id,
	procedure_type, description, date,
	created_at, updated_at
`

func (r *MedicalRecordsRepo) Create(ctx context.Context, rec medicalrecords.MedicalRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medical_records (
			id, pet_id, vet_user_id,
			procedure_type, description, date,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		rec.ID,
		rec.PetID,
		rec.VetUserID,
		rec.ProcedureType,
		rec.Description,
		rec.Date,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (r *MedicalRecordsRepo) Update(ctx context.Context, rec medicalrecords.MedicalRecord) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medical_records
		SET
			procedure_type = $2,
			description = $3,
			date = $4,
			updated_at = $5
		WHERE id = $1
	`,
		rec.ID,
		rec.ProcedureType,
		rec.Description,
		rec.Date,
		rec.UpdatedAt,
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

func (r *MedicalRecordsRepo) GetByID(ctx context.Context, id string) (medicalrecords.MedicalRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medicalrecords.MedicalRecord{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM medical_records
		WHERE id = $1
	`, id)

	return scanRecord(row)
}

func (r *MedicalRecordsRepo) ListByPet(ctx context.Context, petID string) ([]medicalrecords.MedicalRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM medical_records
		WHERE pet_id = $1
		ORDER BY date DESC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *MedicalRecordsRepo) ListByProcedureBefore(ctx context.Context, procedureType string, cutoff time.Time) ([]medicalrecords.MedicalRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM medical_records
		WHERE procedure_type = $1 AND date < $2
		ORDER BY date DESC
	`, procedureType, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *MedicalRecordsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MedicalRecordsRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE pet_id = $1`, petID)
	return err
}

func scanRecord(row rowScanner) (medicalrecords.MedicalRecord, error) {
	var rec medicalrecords.MedicalRecord
	if err := row.Scan(
		&rec.ID,
		&rec.PetID,
		&rec.VetUserID,
		&rec.ProcedureType,
		&rec.Description,
		&rec.Date,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return medicalrecords.MedicalRecord{}, ErrNotFound
		}
		return medicalrecords.MedicalRecord{}, err
	}
	return rec, nil
}

func scanRecords(rows *sql.Rows) ([]medicalrecords.MedicalRecord, error) {
	out := make([]medicalrecords.MedicalRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
