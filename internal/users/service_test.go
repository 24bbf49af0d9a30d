package users

import (
	"context"
	"errors"
	"testing"
)

func TestSignupAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepo(), "INR")
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupRequest{Name: "Asha", Email: " Asha@Example.com ", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.Email != "asha@example.com" || u.Plan != PlanFree || u.Balance != 0 {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "correct-horse" {
		t.Fatalf("expected hashed password")
	}

	if _, err := svc.Authenticate(ctx, "asha@example.com", "correct-horse"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "asha@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestSignupRejectsDuplicatesAndBadInput(t *testing.T) {
	svc := NewService(NewMemoryRepo(), "INR")
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupRequest{Name: "A", Email: "a@example.com", Password: "short"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for short password, got %v", err)
	}
	if _, err := svc.Signup(ctx, SignupRequest{Name: "A", Email: "a@example.com", Password: "long-enough", Plan: "gold"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown plan, got %v", err)
	}
	if _, err := svc.Signup(ctx, SignupRequest{Name: "A", Email: "a@example.com", Password: "long-enough"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Signup(ctx, SignupRequest{Name: "B", Email: "a@example.com", Password: "long-enough"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

type failingRepo struct{ MemoryRepo }

func (f *failingRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	return User{}, errors.New("connection refused")
}

func TestAuthenticateSurfacesStorageErrors(t *testing.T) {
	svc := NewService(&failingRepo{}, "INR")
	_, err := svc.Authenticate(context.Background(), "admin@example.com", "admin123")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestVoiceSettingsAndOwnerLookup(t *testing.T) {
	svc := NewService(NewMemoryRepo(), "INR")
	ctx := context.Background()
	u, err := svc.Signup(ctx, SignupRequest{Name: "A", Email: "a@example.com", Password: "long-enough"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	_, err = svc.UpdateVoiceSettings(ctx, u.ID.Hex(), VoiceSettings{
		PhoneNumbers:   []string{"+15550001111"},
		ForwardNumbers: []ForwardNumber{{Number: "+919876543210", Weight: 1}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	owner, err := svc.OwnerOfNumber(ctx, "+15550001111")
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner.ID != u.ID || len(owner.ForwardNumbers) != 1 {
		t.Fatalf("unexpected owner: %+v", owner)
	}

	if _, err := svc.UpdateVoiceSettings(ctx, u.ID.Hex(), VoiceSettings{ForwardNumbers: []ForwardNumber{{Number: "", Weight: 1}}}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
