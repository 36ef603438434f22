package companies

import (
	"context"
	"errors"
	"testing"
)

func TestCreateForUser_ReturnsUsableCompany(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	created, err := svc.CreateForUser(ctx, "user-1", "  Acme Corp  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Name != "Acme Corp" {
		t.Fatalf("unexpected company: %+v", created)
	}

	// The created record is immediately resolvable; no settling delay.
	got, err := svc.ForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("resolved wrong company: %s vs %s", got.ID, created.ID)
	}
}

func TestCreateForUser_Validation(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	if _, err := svc.CreateForUser(context.Background(), "user-1", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.CreateForUser(context.Background(), "", "Acme"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestForUser_NoCompany(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	if _, err := svc.ForUser(context.Background(), "stranger"); !errors.Is(err, ErrNoCompany) {
		t.Fatalf("expected ErrNoCompany, got %v", err)
	}
}

func TestRename(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	if _, err := svc.CreateForUser(ctx, "user-1", "Acme"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Rename(ctx, "user-1", "Acme Industries"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := svc.ForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("for user: %v", err)
	}
	if got.Name != "Acme Industries" {
		t.Fatalf("rename not applied: %s", got.Name)
	}
}
