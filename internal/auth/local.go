package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"lead-crm/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	localTokenPrefix = "local."
	localSessionTTL  = 7 * 24 * time.Hour
)

// LocalStore is the part of models.Store the local provider needs.
type LocalStore interface {
	GetLocalUserByEmail(ctx context.Context, email string) (*models.LocalUser, error)
	CreateLocalUser(ctx context.Context, email, passwordHash, fullName, role string) (*models.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Local keeps bcrypt hashes in the local_users table. Used for development
// when no auth service is configured.
type Local struct {
	store  LocalStore
	logger *slog.Logger
	cost   int
}

func NewLocal(store LocalStore, logger *slog.Logger) *Local {
	return &Local{store: store, logger: logger, cost: bcrypt.DefaultCost}
}

func localToken(id uuid.UUID) string {
	return localTokenPrefix + id.String()
}

func (l *Local) session(p *models.Profile) *Session {
	token := localToken(p.ID)
	return &Session{
		AccessToken:  token,
		RefreshToken: token,
		ExpiresAt:    time.Now().Add(localSessionTTL),
		User:         User{ID: p.ID, Email: p.Email, FullName: p.FullName},
	}
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	u, err := l.store.GetLocalUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	p, err := l.store.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return l.session(p), nil
}

// SignUp creates a Comercial account, the role every new user starts with.
func (l *Local) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	p, err := l.create(ctx, email, password, fullName, models.RoleSales)
	if err != nil {
		return nil, err
	}
	return l.session(p), nil
}

func (l *Local) create(ctx context.Context, email, password, fullName, role string) (*models.Profile, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	p, err := l.store.CreateLocalUser(ctx, email, string(hash), fullName, role)
	if err != nil {
		var dup *models.AlreadyExistsError
		if errors.As(err, &dup) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return p, nil
}

func (l *Local) SignOut(context.Context, string) error {
	return nil
}

func (l *Local) User(ctx context.Context, accessToken string) (*User, error) {
	id, err := uuid.Parse(strings.TrimPrefix(accessToken, localTokenPrefix))
	if err != nil || !strings.HasPrefix(accessToken, localTokenPrefix) {
		return nil, ErrInvalidToken
	}
	p, err := l.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &User{ID: p.ID, Email: p.Email, FullName: p.FullName}, nil
}

// Refresh reissues the session as long as the profile still exists.
func (l *Local) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	u, err := l.User(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	p, err := l.store.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return l.session(p), nil
}

// SeedAdmin creates the administrator account if it does not exist yet.
func (l *Local) SeedAdmin(ctx context.Context, email, password, fullName string) error {
	_, err := l.store.GetLocalUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	if _, err := l.create(ctx, email, password, fullName, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	l.logger.Info("created default admin user", "email", email)
	return nil
}
