package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"vetclinic-api/internal/domain/medicalrecords"
)

type medicalRecordRepo struct {
	mu   sync.RWMutex
	byID map[string]medicalrecords.MedicalRecord
}

func NewMedicalRecordRepo() medicalrecords.Repository {
	return &medicalRecordRepo{
		byID: make(map[string]medicalrecords.MedicalRecord),
	}
}

func (r *medicalRecordRepo) Create(ctx context.Context, rec medicalrecords.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("record already exists")
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *medicalRecordRepo) Update(ctx context.Context, rec medicalrecords.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[rec.ID]; !exists {
		return ErrNotFound
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *medicalRecordRepo) GetByID(ctx context.Context, id string) (medicalrecords.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return medicalrecords.MedicalRecord{}, ErrNotFound
	}
	return rec, nil
}

func (r *medicalRecordRepo) ListByPet(ctx context.Context, petID string) ([]medicalrecords.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medicalrecords.MedicalRecord, 0)
	for _, rec := range r.byID {
		if rec.PetID == petID {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (r *medicalRecordRepo) ListByProcedureBefore(ctx context.Context, procedureType string, cutoff time.Time) ([]medicalrecords.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medicalrecords.MedicalRecord, 0)
	for _, rec := range r.byID {
		if rec.ProcedureType == procedureType && rec.Date.Before(cutoff) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (r *medicalRecordRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *medicalRecordRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.byID {
		if rec.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}

// Más reciente primero, como muestra la ficha de la mascota.
func sortRecords(items []medicalrecords.MedicalRecord) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Date.Equal(items[j].Date) {
			return items[i].ID < items[j].ID
		}
		return items[i].Date.After(items[j].Date)
	})
}
