package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Claims identifies the caller to the database's row-level security policies.
type Claims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Role    string `json:"app_role"`
}

type claimsKey struct{}

// ContextWithClaims attaches the authenticated caller to ctx.
func ContextWithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the caller attached by ContextWithClaims.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok && c.Subject != ""
}

// WithTx runs fn inside a transaction. When ctx carries claims they are
// published as request.jwt.claims for the lifetime of the transaction.
func WithTx(ctx context.Context, conn *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if claims, ok := ClaimsFromContext(ctx); ok {
		payload, err := json.Marshal(claims)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to encode claims: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "SELECT set_config('request.jwt.claims', $1, true)", string(payload)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set request claims: %w", err)
		}
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
