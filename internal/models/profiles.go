package models

import (
	"context"
	"fmt"
	"strings"

	"lead-crm/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const profileColumns = `id, email, full_name, role, created_at`

func (s *Store) ListProfiles(ctx context.Context) ([]*Profile, error) {
	var rows []*Profile
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+profileColumns+` FROM profiles ORDER BY full_name, email`); err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	return rows, nil
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p := &Profile{}
	if err := s.db.GetContext(ctx, p, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// EnsureProfile creates the profile on first sign-in and keeps the e-mail in
// sync afterwards. Existing roles and names are never overwritten.
func (s *Store) EnsureProfile(ctx context.Context, id uuid.UUID, email, fullName string) (*Profile, error) {
	p := &Profile{}
	err := s.db.GetContext(ctx, p, `
		INSERT INTO profiles (id, email, full_name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email
		RETURNING `+profileColumns,
		id, strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(fullName), RoleSales)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", mapError(err))
	}
	return p, nil
}

func (s *Store) UpdateProfileRole(ctx context.Context, id uuid.UUID, role string) error {
	if !IsValidRole(role) {
		return &ValidationError{Fields: map[string]string{"role": "Cargo inválido"}}
	}
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE profiles SET role = $1 WHERE id = $2`, role, id)
		if err != nil {
			return fmt.Errorf("failed to update role: %w", mapError(err))
		}
		return expectOne(res)
	})
}

func (s *Store) UpdateProfileName(ctx context.Context, id uuid.UUID, fullName string) error {
	if err := validateName(fullName); err != nil {
		return err
	}
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE profiles SET full_name = $1 WHERE id = $2`, strings.TrimSpace(fullName), id)
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", mapError(err))
		}
		return expectOne(res)
	})
}

// CreateLocalUser inserts the profile and its password hash together.
func (s *Store) CreateLocalUser(ctx context.Context, email, passwordHash, fullName, role string) (*Profile, error) {
	if !IsValidRole(role) {
		return nil, &ValidationError{Fields: map[string]string{"role": "Cargo inválido"}}
	}
	email = strings.ToLower(strings.TrimSpace(email))
	p := &Profile{}
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, p, `
			INSERT INTO profiles (id, email, full_name, role)
			VALUES ($1, $2, $3, $4)
			RETURNING `+profileColumns,
			uuid.New(), email, strings.TrimSpace(fullName), role); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO local_users (id, email, password_hash) VALUES ($1, $2, $3)`,
			p.ID, email, passwordHash)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return p, nil
}

func (s *Store) GetLocalUserByEmail(ctx context.Context, email string) (*LocalUser, error) {
	u := &LocalUser{}
	err := s.db.GetContext(ctx, u,
		`SELECT id, email, password_hash, created_at FROM local_users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}
