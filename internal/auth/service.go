package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/workpulse/workpulse/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. An unknown email and a
// wrong password produce the same error: verification fails closed and
// leaks nothing about which part was wrong.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	ident, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return ident, nil
}

// SignUpInput carries the registration form.
type SignUpInput struct {
	Email       string
	Password    string
	UserName    string
	CompanyName string
}

// SignUp registers a new organization with the caller as its first ADMIN.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	return s.repo.CreateSignup(ctx, email, string(hash), strings.TrimSpace(input.UserName), strings.TrimSpace(input.CompanyName))
}
