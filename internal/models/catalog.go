package models

import (
	"context"
	"fmt"
	"strings"

	"lead-crm/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (s *Store) ListCourseTypes(ctx context.Context) ([]*CourseType, error) {
	var rows []*CourseType
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name FROM course_types ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to query course types: %w", err)
	}
	return rows, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]*Course, error) {
	var rows []*Course
	err := s.db.SelectContext(ctx, &rows, `
		SELECT c.id, c.name, c.course_type_id, t.name AS type_name
		FROM courses c
		JOIN course_types t ON t.id = c.course_type_id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	return rows, nil
}

func (s *Store) ListOrigins(ctx context.Context) ([]*Origin, error) {
	var rows []*Origin
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name FROM origins ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to query origins: %w", err)
	}
	return rows, nil
}

func (s *Store) ListStages(ctx context.Context) ([]*Stage, error) {
	var rows []*Stage
	if err := s.db.SelectContext(ctx, &rows, `SELECT code, name, position FROM lead_stages ORDER BY position`); err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	return rows, nil
}

// ValidateCourse mirrors the course form: name of at least 3 characters and a known type.
func ValidateCourse(name, courseType string) error {
	v := &ValidationError{}
	if len([]rune(strings.TrimSpace(name))) < 3 {
		v.add("name", "O nome do curso é obrigatório.")
	}
	if !IsValidCourseType(courseType) {
		v.add("type", "Tipo de curso inválido")
	}
	return v.orNil()
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Fields: map[string]string{"name": "Nome é obrigatório"}}
	}
	return nil
}

// CreateCourse resolves the course type by name. An empty type defaults to Presencial.
func (s *Store) CreateCourse(ctx context.Context, name, courseType string) (uuid.UUID, error) {
	if courseType == "" {
		courseType = DefaultCourseType
	}
	if err := ValidateCourse(name, courseType); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &id, `
			INSERT INTO courses (name, course_type_id)
			SELECT $1, id FROM course_types WHERE name = $2
			RETURNING id
		`, strings.TrimSpace(name), courseType)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create course: %w", mapError(err))
	}
	return id, nil
}

func (s *Store) UpdateCourse(ctx context.Context, id uuid.UUID, name, courseType string) error {
	if courseType == "" {
		courseType = DefaultCourseType
	}
	if err := ValidateCourse(name, courseType); err != nil {
		return err
	}

	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE courses
			SET name = $1, course_type_id = (SELECT id FROM course_types WHERE name = $2)
			WHERE id = $3
		`, strings.TrimSpace(name), courseType, id)
		if err != nil {
			return fmt.Errorf("failed to update course: %w", mapError(err))
		}
		return expectOne(res)
	})
}

func (s *Store) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "courses", id)
}

func (s *Store) CreateOrigin(ctx context.Context, name string) (uuid.UUID, error) {
	if err := validateName(name); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &id, `INSERT INTO origins (name) VALUES ($1) RETURNING id`, strings.TrimSpace(name))
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create origin: %w", mapError(err))
	}
	return id, nil
}

func (s *Store) UpdateOrigin(ctx context.Context, id uuid.UUID, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE origins SET name = $1 WHERE id = $2`, strings.TrimSpace(name), id)
		if err != nil {
			return fmt.Errorf("failed to update origin: %w", mapError(err))
		}
		return expectOne(res)
	})
}

func (s *Store) DeleteOrigin(ctx context.Context, id uuid.UUID) error {
	return s.deleteByID(ctx, "origins", id)
}

// deleteByID only accepts the catalog tables; callers never pass user input as table.
func (s *Store) deleteByID(ctx context.Context, table string, id uuid.UUID) error {
	switch table {
	case "courses", "origins":
	default:
		return fmt.Errorf("delete not supported for table %q", table)
	}

	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
		if err != nil {
			return mapError(err)
		}
		return expectOne(res)
	})
}
