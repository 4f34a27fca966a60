package jwtauth

import (
	"context"
	"testing"
	"time"

	"vetclinic-api/internal/ports/auth"
)

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	a, err := New("test-secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tok, err := a.Issue(auth.Claims{UserID: "user-1", Role: "Cliente"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, err := a.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.UserID != "user-1" || got.Role != "Cliente" {
		t.Fatalf("claims mismatch: %#v", got)
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	a, err := New("test-secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issued }

	tok, err := a.Issue(auth.Claims{UserID: "user-1", Role: "Admin"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// 31 minutos después: pasado el TTL de 30m.
	a.now = func() time.Time { return issued.Add(31 * time.Minute) }

	if _, err := a.Verify(context.Background(), tok); err == nil {
		t.Fatalf("expected error verifying expired token")
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	a1, _ := New("secret-a")
	a2, _ := New("secret-b")

	tok, err := a1.Issue(auth.Claims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := a2.Verify(context.Background(), tok); err == nil {
		t.Fatalf("expected error verifying token signed with another secret")
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	if _, err := New("   "); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
