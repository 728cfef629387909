package models

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("registro não encontrado")
	// ErrInUse means a foreign key still references the row being deleted.
	ErrInUse = errors.New("Não foi possível excluir. Verifique se o item não está em uso.")
)

// AlreadyExistsError represents a uniqueness violation
type AlreadyExistsError struct {
	Constraint string
}

func (e *AlreadyExistsError) Error() string {
	switch {
	case strings.Contains(e.Constraint, "origins"):
		return "Já existe uma origem com esse nome."
	case strings.Contains(e.Constraint, "local_users"), strings.Contains(e.Constraint, "email"):
		return "Já existe um usuário com esse e-mail."
	}
	return "Registro duplicado."
}

// ValidationError carries per-field messages shown next to form inputs.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range sortedKeys(e.Fields) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "dados inválidos: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// mapError converts driver errors into the package's sentinel errors.
// SQLSTATE 23503 = foreign_key_violation, 23505 = unique_violation.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return fmt.Errorf("%w (%s)", ErrInUse, pgErr.ConstraintName)
		case "23505":
			return &AlreadyExistsError{Constraint: strings.ToLower(pgErr.ConstraintName)}
		}
	}
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
