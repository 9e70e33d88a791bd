package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/workpulse/workpulse/internal/auth"
	"github.com/workpulse/workpulse/internal/shared"
	_ "github.com/workpulse/workpulse/testing"
)

type stubRepo struct {
	identity    *auth.Identity
	signupErr   error
	lastEmail   string
	nextID      int64
	signupCalls int
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	s.lastEmail = email
	if s.identity == nil || s.identity.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.identity, nil
}

func (s *stubRepo) CreateSignup(ctx context.Context, email, passwordHash, userName, companyName string) (*auth.Identity, error) {
	s.signupCalls++
	if s.signupErr != nil {
		return nil, s.signupErr
	}
	s.nextID++
	orgID := s.nextID
	return &auth.Identity{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		EmployeeID:   strings.ToLower(userName) + "_1",
		Name:         userName,
		Role:         shared.RoleAdmin,
		OrgID:        &orgID,
	}, nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestAuthenticate(t *testing.T) {
	repo := &stubRepo{identity: &auth.Identity{
		ID:           1,
		Email:        "jane@acme.test",
		PasswordHash: hashOf(t, "correct horse"),
		EmployeeID:   "jane_1",
		Role:         shared.RoleAdmin,
	}}
	service := auth.NewService(repo)

	ident, err := service.Authenticate(context.Background(), "jane@acme.test", "correct horse")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if ident.EmployeeID != "jane_1" {
		t.Fatalf("expected employee jane_1, got %q", ident.EmployeeID)
	}
}

func TestAuthenticateNormalizesEmail(t *testing.T) {
	repo := &stubRepo{identity: &auth.Identity{
		ID:           1,
		Email:        "jane@acme.test",
		PasswordHash: hashOf(t, "correct horse"),
	}}
	service := auth.NewService(repo)

	if _, err := service.Authenticate(context.Background(), "  Jane@ACME.test ", "correct horse"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if repo.lastEmail != "jane@acme.test" {
		t.Fatalf("expected normalized lookup, got %q", repo.lastEmail)
	}
}

func TestAuthenticateFailuresAreUniform(t *testing.T) {
	repo := &stubRepo{identity: &auth.Identity{
		ID:           1,
		Email:        "jane@acme.test",
		PasswordHash: hashOf(t, "correct horse"),
	}}
	service := auth.NewService(repo)

	_, unknownErr := service.Authenticate(context.Background(), "nobody@acme.test", "correct horse")
	_, wrongErr := service.Authenticate(context.Background(), "jane@acme.test", "wrong")

	if !errors.Is(unknownErr, shared.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, shared.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("expected indistinguishable failures, got %q vs %q", unknownErr, wrongErr)
	}
}

func TestSignUpHashesPassword(t *testing.T) {
	repo := &stubRepo{}
	service := auth.NewService(repo)

	ident, err := service.SignUp(context.Background(), auth.SignUpInput{
		Email:       "Jane@ACME.test",
		Password:    "correct horse",
		UserName:    "Jane",
		CompanyName: "Acme",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if ident.Email != "jane@acme.test" {
		t.Fatalf("expected normalized email, got %q", ident.Email)
	}
	if ident.PasswordHash == "correct horse" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte("correct horse")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
	if ident.Role != shared.RoleAdmin {
		t.Fatalf("expected first account to be ADMIN, got %q", ident.Role)
	}
}

func TestSignUpDuplicate(t *testing.T) {
	repo := &stubRepo{signupErr: shared.ErrDuplicate}
	service := auth.NewService(repo)

	_, err := service.SignUp(context.Background(), auth.SignUpInput{
		Email:       "jane@acme.test",
		Password:    "correct horse",
		UserName:    "Jane",
		CompanyName: "Acme",
	})
	if !errors.Is(err, shared.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if repo.signupCalls != 1 {
		t.Fatalf("expected a single signup attempt, got %d", repo.signupCalls)
	}
}
