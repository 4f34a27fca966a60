package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"vetclinic-api/internal/adapters/mail/memorymail"
	"vetclinic-api/internal/domain/appointments"
	"vetclinic-api/internal/domain/medicalrecords"
	"vetclinic-api/internal/domain/pets"
	"vetclinic-api/internal/domain/users"
	"vetclinic-api/internal/platform/logger"
)

var engineNow = time.Date(2026, 4, 14, 10, 0, 0, 0, time.Local)

// testNotifRepo es un fake en memoria con la misma semántica de dedup
// que los adapters reales.
type testNotifRepo struct {
	rows []Notification
}

func (r *testNotifRepo) Create(_ context.Context, n Notification) error {
	r.rows = append(r.rows, n)
	return nil
}

func (r *testNotifRepo) GetByID(_ context.Context, id string) (Notification, error) {
	for _, n := range r.rows {
		if n.ID == id {
			return n, nil
		}
	}
	return Notification{}, ErrNotFound
}

func (r *testNotifRepo) ListByUser(_ context.Context, userID string) ([]Notification, error) {
	var out []Notification
	for _, n := range r.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *testNotifRepo) ExistsRecent(_ context.Context, userID, petID, notifType string, since time.Time) (bool, error) {
	for _, n := range r.rows {
		if n.UserID == userID && n.PetID == petID && n.Type == notifType && !n.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *testNotifRepo) ExistsExact(_ context.Context, userID, petID, notifType, message string) (bool, error) {
	for _, n := range r.rows {
		if n.UserID == userID && n.PetID == petID && n.Type == notifType && n.Message == message {
			return true, nil
		}
	}
	return false, nil
}

func (r *testNotifRepo) MarkRead(_ context.Context, id string, read bool) error {
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].IsRead = read
			return nil
		}
	}
	return ErrNotFound
}

func (r *testNotifRepo) MarkAllRead(_ context.Context, userID string) error {
	for i := range r.rows {
		if r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *testNotifRepo) DeleteByPet(_ context.Context, petID string) error {
	kept := r.rows[:0]
	for _, n := range r.rows {
		if n.PetID != petID {
			kept = append(kept, n)
		}
	}
	r.rows = kept
	return nil
}

func (r *testNotifRepo) countByType(t string) int {
	c := 0
	for _, n := range r.rows {
		if n.Type == t {
			c++
		}
	}
	return c
}

type fakeAppts struct {
	items []appointments.Appointment
}

func (f *fakeAppts) ListPendingWindow(_ context.Context, from, to time.Time) ([]appointments.Appointment, error) {
	var out []appointments.Appointment
	for _, a := range f.items {
		if a.Status != appointments.StatusPending {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type fakeRecords struct {
	items []medicalrecords.MedicalRecord
}

func (f *fakeRecords) ListStale(_ context.Context, procedureType string, cutoff time.Time) ([]medicalrecords.MedicalRecord, error) {
	var out []medicalrecords.MedicalRecord
	for _, rec := range f.items {
		if rec.ProcedureType == procedureType && rec.Date.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakePetDir struct {
	byID map[string]pets.Pet
}

func (f *fakePetDir) GetByID(_ context.Context, id string) (pets.Pet, error) {
	p, ok := f.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

type fakeUserDir struct {
	byID map[string]users.User
}

func (f *fakeUserDir) GetByID(_ context.Context, id string) (users.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

type engineFixture struct {
	repo   *testNotifRepo
	appts  *fakeAppts
	recs   *fakeRecords
	pets   *fakePetDir
	users  *fakeUserDir
	mailer *memorymail.Sender
	engine *Engine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		repo:   &testNotifRepo{},
		appts:  &fakeAppts{},
		recs:   &fakeRecords{},
		pets:   &fakePetDir{byID: map[string]pets.Pet{}},
		users:  &fakeUserDir{byID: map[string]users.User{}},
		mailer: memorymail.New(),
	}

	log := logger.New(logger.Options{Level: logger.Error})
	f.engine = NewEngine(f.repo, f.appts, f.recs, f.pets, f.users, f.mailer, log)
	f.engine.now = func() time.Time { return engineNow }

	f.users.byID["u1"] = users.User{ID: "u1", Name: "Laura", Email: "laura@example.com", Role: users.RoleClient}
	f.pets.byID["p1"] = pets.Pet{ID: "p1", OwnerUserID: "u1", Name: "Firulais"}

	return f
}

func TestEngineAppointmentReminder(t *testing.T) {
	f := newEngineFixture()
	f.appts.items = []appointments.Appointment{{
		ID: "a1", UserID: "u1", PetID: "p1",
		Date: engineNow.Add(5 * time.Hour), Status: appointments.StatusPending,
	}}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := f.repo.countByType(TypeAppointmentReminder); got != 1 {
		t.Fatalf("recordatorios = %d, quiero 1", got)
	}
	if !strings.Contains(f.repo.rows[0].Message, "5 horas") {
		t.Errorf("mensaje sin horas redondeadas: %q", f.repo.rows[0].Message)
	}
	if !strings.Contains(f.repo.rows[0].Message, "Firulais") {
		t.Errorf("mensaje sin nombre de mascota: %q", f.repo.rows[0].Message)
	}

	sent := f.mailer.Sent()
	if len(sent) != 1 || sent[0].To != "laura@example.com" {
		t.Fatalf("correos = %+v, quiero uno a laura@example.com", sent)
	}

	// Segunda corrida inmediata: dedup por recencia (12h), cero filas nuevas.
	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run segunda vez: %v", err)
	}
	if got := f.repo.countByType(TypeAppointmentReminder); got != 1 {
		t.Fatalf("recordatorios tras segunda corrida = %d, quiero 1", got)
	}
}

func TestEngineReminderOutsideWindow(t *testing.T) {
	f := newEngineFixture()
	f.appts.items = []appointments.Appointment{{
		ID: "a1", UserID: "u1", PetID: "p1",
		Date: engineNow.Add(30 * time.Hour), Status: appointments.StatusPending,
	}}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(f.repo.rows); got != 0 {
		t.Fatalf("filas = %d, una cita a 30h no genera recordatorio", got)
	}
}

func TestEngineReminderItemFailureDoesNotAbort(t *testing.T) {
	f := newEngineFixture()
	// La primera cita apunta a una mascota inexistente; la segunda es válida.
	f.appts.items = []appointments.Appointment{
		{ID: "a1", UserID: "u1", PetID: "fantasma", Date: engineNow.Add(2 * time.Hour), Status: appointments.StatusPending},
		{ID: "a2", UserID: "u1", PetID: "p1", Date: engineNow.Add(3 * time.Hour), Status: appointments.StatusPending},
	}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := f.repo.countByType(TypeAppointmentReminder); got != 1 {
		t.Fatalf("recordatorios = %d, la cita válida debe procesarse igual", got)
	}
}

func TestEngineVaccineStale(t *testing.T) {
	f := newEngineFixture()
	f.recs.items = []medicalrecords.MedicalRecord{{
		ID: "r1", PetID: "p1", VetUserID: "vet1",
		ProcedureType: medicalrecords.ProcedureVaccine,
		Date:          engineNow.AddDate(0, -13, 0),
	}}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := f.repo.countByType(TypeVaccine); got != 1 {
		t.Fatalf("notificaciones Vacuna = %d, quiero 1", got)
	}
	if got := len(f.mailer.Sent()); got != 1 {
		t.Fatalf("correos enviados = %d, quiero 1", got)
	}

	// Re-ejecución: dedup por contenido exacto, cero filas y correos nuevos.
	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run segunda vez: %v", err)
	}
	if got := f.repo.countByType(TypeVaccine); got != 1 {
		t.Fatalf("Vacuna tras re-ejecución = %d, quiero 1", got)
	}
	if got := len(f.mailer.Sent()); got != 1 {
		t.Fatalf("correos tras re-ejecución = %d, quiero 1", got)
	}
}

func TestEngineVaccineFreshRecordIgnored(t *testing.T) {
	f := newEngineFixture()
	f.recs.items = []medicalrecords.MedicalRecord{{
		ID: "r1", PetID: "p1", VetUserID: "vet1",
		ProcedureType: medicalrecords.ProcedureVaccine,
		Date:          engineNow.AddDate(0, -6, 0),
	}}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(f.repo.rows); got != 0 {
		t.Fatalf("filas = %d, una vacuna de 6 meses no está vencida", got)
	}
}

func TestEngineBathStale(t *testing.T) {
	f := newEngineFixture()
	f.recs.items = []medicalrecords.MedicalRecord{
		{ID: "r1", PetID: "p1", VetUserID: "vet1", ProcedureType: medicalrecords.ProcedureBath, Date: engineNow.AddDate(0, -4, 0)},
	}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := f.repo.countByType(TypeBath); got != 1 {
		t.Fatalf("notificaciones Baño = %d, quiero 1", got)
	}
}

func TestEngineStaleSkipsMissingOwner(t *testing.T) {
	f := newEngineFixture()
	f.pets.byID["huerfana"] = pets.Pet{ID: "huerfana", OwnerUserID: "nadie", Name: "Michi"}
	f.recs.items = []medicalrecords.MedicalRecord{{
		ID: "r1", PetID: "huerfana", VetUserID: "vet1",
		ProcedureType: medicalrecords.ProcedureVaccine,
		Date:          engineNow.AddDate(0, -13, 0),
	}}

	if err := f.engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := len(f.repo.rows); got != 0 {
		t.Fatalf("filas = %d, sin dueño resoluble se salta en silencio", got)
	}
}

func TestEngineStaleEmailFailureAborts(t *testing.T) {
	f := newEngineFixture()
	f.users.byID["u2"] = users.User{ID: "u2", Name: "Pedro", Email: "pedro@example.com", Role: users.RoleClient}
	f.pets.byID["p2"] = pets.Pet{ID: "p2", OwnerUserID: "u2", Name: "Rocky"}

	f.recs.items = []medicalrecords.MedicalRecord{
		{ID: "r1", PetID: "p1", VetUserID: "vet1", ProcedureType: medicalrecords.ProcedureVaccine, Date: engineNow.AddDate(0, -13, 0)},
		{ID: "r2", PetID: "p2", VetUserID: "vet1", ProcedureType: medicalrecords.ProcedureVaccine, Date: engineNow.AddDate(0, -14, 0)},
	}
	f.mailer.FailWith = errors.New("smtp caído")

	err := f.engine.Run(context.Background())
	if err == nil {
		t.Fatal("Run debe fallar cuando el correo falla en el pase de vacunas")
	}

	// El insert ocurre antes del correo: queda exactamente la fila del
	// primer registro y el resto del pase se aborta.
	if got := f.repo.countByType(TypeVaccine); got != 1 {
		t.Fatalf("filas Vacuna tras abortar = %d, quiero 1", got)
	}
}

func TestServiceMarkReadOwnership(t *testing.T) {
	repo := &testNotifRepo{rows: []Notification{
		{ID: "n1", UserID: "u1", PetID: "p1", Type: TypeVaccine, Message: "m", SentAt: engineNow},
	}}
	svc := NewService(repo)

	if err := svc.MarkRead(context.Background(), "n1", "otro"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("marcar notificación ajena: err = %v, quiero ErrNotFound", err)
	}
	if err := svc.MarkRead(context.Background(), "n1", "u1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if !repo.rows[0].IsRead {
		t.Fatal("la notificación debió quedar leída")
	}
}
