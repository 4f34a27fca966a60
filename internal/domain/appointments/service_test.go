package appointments

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]Appointment
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Appointment{}}
}

func (r *testRepo) Create(ctx context.Context, a Appointment) error {
	for _, other := range r.byID {
		if other.Status != StatusCancelled && other.Date.Equal(a.Date) {
			return ErrSlotTaken
		}
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) Update(ctx context.Context, a Appointment) error {
	if _, ok := r.byID[a.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, errRepoNotFound
	}
	return a, nil
}

func (r *testRepo) List(ctx context.Context) ([]Appointment, error) {
	out := make([]Appointment, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out, nil
}

func (r *testRepo) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testRepo) ListByVet(ctx context.Context, vetUserID string) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if a.VetUserID == vetUserID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testRepo) ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testRepo) ListPendingBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if a.Status == StatusPending && !a.Date.Before(from) && !a.Date.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testRepo) CompletePendingBefore(ctx context.Context, cutoff, updatedAt time.Time) (int64, error) {
	var n int64
	for id, a := range r.byID {
		if a.Status == StatusPending && a.Date.Before(cutoff) {
			a.Status = StatusCompleted
			a.UpdatedAt = updatedAt
			r.byID[id] = a
			n++
		}
	}
	return n, nil
}

func (r *testRepo) DeleteByPet(ctx context.Context, petID string) error {
	for id, a := range r.byID {
		if a.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}

// -------------------------
// Fakes de pets/services
// -------------------------

type fakePetOwners map[string]string // petID -> ownerUserID

func (f fakePetOwners) OwnerOf(ctx context.Context, petID string) (string, error) {
	owner, ok := f[petID]
	if !ok {
		return "", errRepoNotFound
	}
	return owner, nil
}

type fakeCatalog map[string]bool // serviceID -> active

func (f fakeCatalog) ServiceStatus(ctx context.Context, serviceID string) (bool, bool, error) {
	active, ok := f[serviceID]
	return ok, active, nil
}

func newTestService(repo *testRepo, now time.Time) *Service {
	svc := NewService(repo,
		fakePetOwners{"pet-1": "owner-1", "pet-2": "owner-2"},
		fakeCatalog{"svc-1": true, "svc-off": false},
	)
	svc.now = func() time.Time { return now }
	return svc
}

// nowRef es un "reloj" fijo para todos los tests: martes 10:00 hora local.
var nowRef = time.Date(2026, 4, 14, 10, 0, 0, 0, time.Local)

// -------------------------
// Create
// -------------------------

func TestService_Create_PendingAndOwnedByCaller(t *testing.T) {
	svc := newTestService(newTestRepo(), nowRef)

	a, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID:     "pet-1",
		ServiceID: "svc-1",
		Date:      nowRef.AddDate(0, 0, 1).Truncate(time.Hour), // mañana 10:00
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Status != StatusPending {
		t.Fatalf("expected status Pending, got %s", a.Status)
	}
	if a.UserID != "owner-1" {
		t.Fatalf("expected owner to be caller, got %s", a.UserID)
	}
	if a.VetUserID != "" {
		t.Fatalf("expected no vet assigned on create")
	}
}

func TestService_Create_RejectsForeignPetWithSameError(t *testing.T) {
	svc := newTestService(newTestRepo(), nowRef)
	date := nowRef.AddDate(0, 0, 1)

	// Mascota de otro usuario y mascota inexistente: mismo error.
	if _, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID: "pet-2", ServiceID: "svc-1", Date: date,
	}); err != ErrPetNotFound {
		t.Fatalf("foreign pet: expected ErrPetNotFound, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID: "pet-404", ServiceID: "svc-1", Date: date,
	}); err != ErrPetNotFound {
		t.Fatalf("missing pet: expected ErrPetNotFound, got %v", err)
	}
}

func TestService_Create_RejectsMissingOrInactiveService(t *testing.T) {
	svc := newTestService(newTestRepo(), nowRef)
	date := nowRef.AddDate(0, 0, 1)

	if _, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID: "pet-1", ServiceID: "svc-404", Date: date,
	}); err != ErrServiceNotFound {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID: "pet-1", ServiceID: "svc-off", Date: date,
	}); err != ErrServiceInactive {
		t.Fatalf("expected ErrServiceInactive, got %v", err)
	}
}

func TestService_Create_RejectsPastDate(t *testing.T) {
	svc := newTestService(newTestRepo(), nowRef)

	_, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID: "pet-1", ServiceID: "svc-1", Date: nowRef.Add(-time.Hour),
	})
	if err != ErrPastDate {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}

func TestService_Create_HourWindow(t *testing.T) {
	cases := []struct {
		hour, minute int
		wantOK       bool
		wantHoursErr bool
	}{
		{9, 0, true, false},
		{8, 0, true, false},
		{16, 0, true, false},
		{7, 0, false, true},
		{17, 0, false, true},
		{9, 30, false, false}, // minutos != 0
	}

	for _, tc := range cases {
		svc := newTestService(newTestRepo(), nowRef)
		day := nowRef.AddDate(0, 0, 1)
		date := time.Date(day.Year(), day.Month(), day.Day(), tc.hour, tc.minute, 0, 0, time.Local)

		_, err := svc.Create(context.Background(), "owner-1", CreateInput{
			PetID: "pet-1", ServiceID: "svc-1", Date: date,
		})

		switch {
		case tc.wantOK && err != nil:
			t.Fatalf("%02d:%02d: expected ok, got %v", tc.hour, tc.minute, err)
		case tc.wantHoursErr:
			var hoursErr *OutOfHoursError
			if !errors.As(err, &hoursErr) {
				t.Fatalf("%02d:%02d: expected OutOfHoursError, got %v", tc.hour, tc.minute, err)
			}
			if hoursErr.Hour != tc.hour {
				t.Fatalf("expected echoed hour %d, got %d", tc.hour, hoursErr.Hour)
			}
		case !tc.wantOK && !tc.wantHoursErr && err != ErrNotOnTheHour:
			t.Fatalf("%02d:%02d: expected ErrNotOnTheHour, got %v", tc.hour, tc.minute, err)
		}
	}
}

func TestService_Create_RejectsTakenSlot(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	day := nowRef.AddDate(0, 0, 1)
	date := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.Local)

	if _, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID: "pet-1", ServiceID: "svc-1", Date: date,
	}); err != nil {
		t.Fatalf("Create #1: %v", err)
	}

	_, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID: "pet-1", ServiceID: "svc-1", Date: date,
	})
	if err != ErrSlotTaken {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestService_Create_CancelledSlotIsReusable(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	day := nowRef.AddDate(0, 0, 7)
	date := time.Date(day.Year(), day.Month(), day.Day(), 10, 0, 0, 0, time.Local)

	a, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID: "pet-1", ServiceID: "svc-1", Date: date,
	})
	if err != nil {
		t.Fatalf("Create #1: %v", err)
	}
	if _, err := svc.Cancel(context.Background(), a.ID, "owner-1", false); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := svc.Create(context.Background(), "owner-1", CreateInput{
		PetID: "pet-1", ServiceID: "svc-1", Date: date,
	}); err != nil {
		t.Fatalf("expected cancelled slot to be bookable again, got %v", err)
	}
}

// -------------------------
// Cancel
// -------------------------

func TestService_Cancel_WindowUsesCeil(t *testing.T) {
	// 2 días y 1 hora => ceil = 3 => cancelable.
	// 1 día y 23 horas => ceil = 2 => no cancelable.
	cases := []struct {
		until  time.Duration
		wantOK bool
		days   int
	}{
		{49 * time.Hour, true, 3},
		{47 * time.Hour, false, 2},
	}

	for _, tc := range cases {
		repo := newTestRepo()
		svc := newTestService(repo, nowRef)

		a := Appointment{
			ID: "appt-1", UserID: "owner-1", PetID: "pet-1", ServiceID: "svc-1",
			Date: nowRef.Add(tc.until), Status: StatusPending,
		}
		repo.byID[a.ID] = a

		got, err := svc.Cancel(context.Background(), a.ID, "owner-1", false)
		if tc.wantOK {
			if err != nil {
				t.Fatalf("until=%v: expected ok, got %v", tc.until, err)
			}
			if got.Status != StatusCancelled {
				t.Fatalf("expected Cancelled, got %s", got.Status)
			}
			continue
		}

		var windowErr *CancellationWindowError
		if !errors.As(err, &windowErr) {
			t.Fatalf("until=%v: expected CancellationWindowError, got %v", tc.until, err)
		}
		if windowErr.DaysUntil != tc.days {
			t.Fatalf("until=%v: expected %d days, got %d", tc.until, tc.days, windowErr.DaysUntil)
		}
	}
}

func TestService_Cancel_RejectsTerminalStates(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	repo.byID["c"] = Appointment{ID: "c", UserID: "owner-1", Date: nowRef.AddDate(0, 0, 7), Status: StatusCancelled}
	repo.byID["d"] = Appointment{ID: "d", UserID: "owner-1", Date: nowRef.AddDate(0, 0, 7), Status: StatusCompleted}

	if _, err := svc.Cancel(context.Background(), "c", "owner-1", false); err != ErrAlreadyCancelled {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), "d", "owner-1", false); err != ErrAlreadyCompleted {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestService_Cancel_ForeignAppointmentLooksMissing(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	repo.byID["a"] = Appointment{ID: "a", UserID: "owner-2", Date: nowRef.AddDate(0, 0, 7), Status: StatusPending}

	if _, err := svc.Cancel(context.Background(), "a", "owner-1", false); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for foreign appointment, got %v", err)
	}
}

func TestService_Cancel_StaffSkipsWindow(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	// Mañana: dentro de la ventana de 2 días, pero staff puede.
	repo.byID["a"] = Appointment{ID: "a", UserID: "owner-1", Date: nowRef.AddDate(0, 0, 1), Status: StatusPending}

	got, err := svc.Cancel(context.Background(), "a", "secretary-1", true)
	if err != nil {
		t.Fatalf("staff cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected Cancelled, got %s", got.Status)
	}
}

// -------------------------
// UpdateStatus / AssignVet
// -------------------------

func TestService_UpdateStatus_OnlyAssignedVet(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	repo.byID["a"] = Appointment{ID: "a", UserID: "owner-1", VetUserID: "vet-1", Date: nowRef.AddDate(0, 0, 1), Status: StatusConfirmed}

	if _, err := svc.UpdateStatus(context.Background(), "a", "vet-2", StatusCompleted); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden for another vet, got %v", err)
	}

	got, err := svc.UpdateStatus(context.Background(), "a", "vet-1", StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected Completed, got %s", got.Status)
	}
}

func TestService_UpdateStatus_RejectsPendingAndConfirmedTargets(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	repo.byID["a"] = Appointment{ID: "a", UserID: "owner-1", VetUserID: "vet-1", Date: nowRef.AddDate(0, 0, 1), Status: StatusConfirmed}

	for _, st := range []Status{StatusPending, StatusConfirmed, Status("Weird")} {
		if _, err := svc.UpdateStatus(context.Background(), "a", "vet-1", st); err != ErrInvalidStatus {
			t.Fatalf("status %s: expected ErrInvalidStatus, got %v", st, err)
		}
	}
}

func TestService_UpdateStatus_NoResurrectingCancelled(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	repo.byID["a"] = Appointment{ID: "a", UserID: "owner-1", VetUserID: "vet-1", Date: nowRef.AddDate(0, 0, 1), Status: StatusCancelled}

	if _, err := svc.UpdateStatus(context.Background(), "a", "vet-1", StatusCompleted); err != ErrAlreadyCancelled {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestService_AssignVet_ConfirmsAppointment(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	repo.byID["a"] = Appointment{ID: "a", UserID: "owner-1", Date: nowRef.AddDate(0, 0, 1), Status: StatusPending}

	got, err := svc.AssignVet(context.Background(), "a", "vet-1")
	if err != nil {
		t.Fatalf("AssignVet: %v", err)
	}
	if got.VetUserID != "vet-1" || got.Status != StatusConfirmed {
		t.Fatalf("expected vet-1/Confirmed, got %s/%s", got.VetUserID, got.Status)
	}
}

// -------------------------
// Sweep
// -------------------------

func TestService_CompleteOverdue_MonotonicSweep(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef)

	repo.byID["past-pending"] = Appointment{ID: "past-pending", Date: nowRef.Add(-time.Hour), Status: StatusPending}
	repo.byID["past-cancelled"] = Appointment{ID: "past-cancelled", Date: nowRef.Add(-time.Hour), Status: StatusCancelled}
	repo.byID["future-pending"] = Appointment{ID: "future-pending", Date: nowRef.Add(time.Hour), Status: StatusPending}

	n, err := svc.CompleteOverdue(context.Background())
	if err != nil {
		t.Fatalf("CompleteOverdue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 swept appointment, got %d", n)
	}
	if repo.byID["past-pending"].Status != StatusCompleted {
		t.Fatalf("expected past pending to be Completed")
	}
	if repo.byID["past-cancelled"].Status != StatusCancelled {
		t.Fatalf("sweep must never touch Cancelled")
	}
	if repo.byID["future-pending"].Status != StatusPending {
		t.Fatalf("sweep must not touch future appointments")
	}

	// Re-ejecutar no cambia nada: una vez terminal, nadie vuelve a Pending.
	n, err = svc.CompleteOverdue(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected idempotent sweep, got n=%d err=%v", n, err)
	}
}

// -------------------------
// AvailableSlots
// -------------------------

func TestService_AvailableSlots_ExcludesTakenAndPast(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, nowRef) // hoy 10:00

	today := nowRef
	taken := time.Date(today.Year(), today.Month(), today.Day(), 11, 0, 0, 0, time.Local)
	repo.byID["a"] = Appointment{ID: "a", Date: taken, Status: StatusPending}

	cancelled := time.Date(today.Year(), today.Month(), today.Day(), 12, 0, 0, 0, time.Local)
	repo.byID["b"] = Appointment{ID: "b", Date: cancelled, Status: StatusCancelled}

	slots, err := svc.AvailableSlots(context.Background(), today)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}

	want := map[int]bool{}
	for _, s := range slots {
		want[s.Hour()] = true
	}

	// 8 y 9 ya pasaron (now = 10:00); 11 está tomada; 12 cancelada => libre.
	for _, h := range []int{8, 9, 11} {
		if want[h] {
			t.Fatalf("hour %d should not be offered", h)
		}
	}
	for _, h := range []int{10, 12, 13, 14, 15, 16} {
		if !want[h] {
			t.Fatalf("hour %d should be offered", h)
		}
	}
	if want[17] {
		t.Fatalf("hour 17 is outside business hours")
	}
}
