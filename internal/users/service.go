package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"brandbuzz/internal/rbac"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const minPasswordLen = 8

// Service owns account creation and credential checks. There is no
// credential path other than the stored bcrypt hash.
type Service struct {
	repo     Repository
	currency string
	clock    func() time.Time
}

func NewService(repo Repository, currency string) *Service {
	return &Service{repo: repo, currency: currency, clock: time.Now}
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Plan     Plan   `json:"plan"`
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || len(req.Password) < minPasswordLen {
		return User{}, ErrInvalidArgument
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, ErrInvalidArgument
	}
	plan := req.Plan
	if plan == "" {
		plan = PlanFree
	}
	if !plan.Valid() {
		return User{}, ErrInvalidArgument
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := s.clock().UTC()
	u := User{
		Name:           name,
		Email:          email,
		PasswordHash:   string(hash),
		Plan:           plan,
		Role:           rbac.RoleUser,
		Currency:       s.currency,
		PhoneNumbers:   []string{},
		ForwardNumbers: []ForwardNumber{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate returns the user when the password matches. Unknown emails
// and wrong passwords yield the same error. Storage failures are returned
// as-is so callers report them as server errors.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrInvalidArgument
	}
	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrInvalidArgument
	}
	return s.repo.FindByID(ctx, id)
}

// OwnerOfNumber resolves which user owns a dialled provider number.
func (s *Service) OwnerOfNumber(ctx context.Context, number string) (User, error) {
	if number == "" {
		return User{}, ErrInvalidArgument
	}
	return s.repo.FindByPhoneNumber(ctx, number)
}

type VoiceSettings struct {
	PhoneNumbers   []string        `json:"phoneNumbers"`
	ForwardNumbers []ForwardNumber `json:"forwardNumbers"`
}

func (s *Service) UpdateVoiceSettings(ctx context.Context, id string, vs VoiceSettings) (User, error) {
	if id == "" {
		return User{}, ErrInvalidArgument
	}
	numbers := make([]string, 0, len(vs.PhoneNumbers))
	for _, n := range vs.PhoneNumbers {
		n = strings.TrimSpace(n)
		if n == "" {
			return User{}, ErrInvalidArgument
		}
		numbers = append(numbers, n)
	}
	forward := make([]ForwardNumber, 0, len(vs.ForwardNumbers))
	for _, f := range vs.ForwardNumbers {
		f.Number = strings.TrimSpace(f.Number)
		if f.Number == "" || f.Weight < 0 {
			return User{}, ErrInvalidArgument
		}
		forward = append(forward, f)
	}
	return s.repo.UpdateVoiceSettings(ctx, id, numbers, forward)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
