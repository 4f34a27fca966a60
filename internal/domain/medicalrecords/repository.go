package medicalrecords

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, rec MedicalRecord) error
	Update(ctx context.Context, rec MedicalRecord) error
	GetByID(ctx context.Context, id string) (MedicalRecord, error)
	ListByPet(ctx context.Context, petID string) ([]MedicalRecord, error)

	// ListByProcedureBefore devuelve registros con ese procedureType exacto
	// y date estrictamente anterior a cutoff. Lo usa el motor de notificaciones.
	ListByProcedureBefore(ctx context.Context, procedureType string, cutoff time.Time) ([]MedicalRecord, error)

	Delete(ctx context.Context, id string) error
	DeleteByPet(ctx context.Context, petID string) error
}
