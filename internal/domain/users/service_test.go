package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID map[string]User
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	if u.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[u.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, errRepoNotFound
	}
	return u, nil
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, errRepoNotFound
}

func (r *testRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func (r *testRepo) ListByRole(ctx context.Context, role Role) ([]User, error) {
	out := make([]User, 0)
	for _, u := range r.byID {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return errRepoNotFound
	}
	delete(r.byID, id)
	return nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Register_DefaultsClientAndHashesPassword(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	u, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ana",
		LastName: "Pérez",
		Email:    "Ana@Example.com",
		Password: "secreta1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != RoleClient {
		t.Fatalf("expected default role Client, got %s", u.Role)
	}
	if u.Status != StatusActive {
		t.Fatalf("expected status Active, got %s", u.Status)
	}
	if u.Email != "ana@example.com" {
		t.Fatalf("expected normalized email, got %s", u.Email)
	}
	if u.PasswordHash == "secreta1" || u.PasswordHash == "" {
		t.Fatalf("expected bcrypt hash, got %q", u.PasswordHash)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secreta1")); err != nil {
		t.Fatalf("hash does not match password: %v", err)
	}
	if u.CreatedAt != now || u.UpdatedAt != now {
		t.Fatalf("expected CreatedAt/UpdatedAt to be now")
	}
}

func TestService_Register_RejectsDuplicateEmail(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	in := RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secreta1"}
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("Register #1: %v", err)
	}

	_, err := svc.Register(context.Background(), in)
	if err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ana", Email: "ana@example.com", Password: "secreta1",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "ana@example.com", "otra"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Login(context.Background(), "ana@example.com", "secreta1"); err != nil {
		t.Fatalf("expected login ok, got %v", err)
	}
}

func TestService_Login_InactiveAccount(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	u, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ana", Email: "ana@example.com", Password: "secreta1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	u.Status = StatusInactive
	if err := repo.Update(context.Background(), u); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := svc.Login(context.Background(), "ana@example.com", "secreta1"); err != ErrInactiveAccount {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

func TestService_UpdateRole_RejectsUnknownRole(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)

	u, err := svc.Register(context.Background(), RegisterInput{
		Name: "Ana", Email: "ana@example.com", Password: "secreta1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.UpdateRole(context.Background(), u.ID, Role("Superuser")); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	got, err := svc.UpdateRole(context.Background(), u.ID, RoleVet)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if got.Role != RoleVet {
		t.Fatalf("expected role Veterinario, got %s", got.Role)
	}
}
