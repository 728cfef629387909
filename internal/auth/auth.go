// Package auth signs users in against the hosted GoTrue service, or against
// local bcrypt hashes when no auth service is configured.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials   = errors.New("E-mail ou senha inválidos.")
	ErrEmailTaken           = errors.New("Já existe um usuário com esse e-mail.")
	ErrWeakPassword         = errors.New("A senha deve ter pelo menos 6 caracteres.")
	ErrConfirmationRequired = errors.New("Cadastro realizado. Confirme seu e-mail para entrar.")
	ErrInvalidToken         = errors.New("sessão expirada")
)

type User struct {
	ID       uuid.UUID
	Email    string
	FullName string
}

type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Provider is the sign-in backend used by the login and signup pages.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	User(ctx context.Context, accessToken string) (*User, error)
	// Refresh exchanges a refresh token for a new session once the access
	// token has expired.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if normalizeEmail(email) == "" || password == "" {
		return ErrInvalidCredentials
	}
	return nil
}
