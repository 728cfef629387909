package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DashboardLeads returns every lead created inside the range, flattened with
// the names the dashboard groups by.
func (s *Store) DashboardLeads(ctx context.Context, r DateRange) ([]*DashboardRow, error) {
	query := `
		SELECT l.id, l.status, l.stage, l.created_at, l.converted_at,
			o.name AS origin_name, t.name AS course_type_name,
			l.owner_id, p.full_name AS owner_name
		FROM leads l
		LEFT JOIN origins o ON o.id = l.origin_id
		LEFT JOIN courses c ON c.id = l.course_id
		LEFT JOIN course_types t ON t.id = c.course_type_id
		LEFT JOIN profiles p ON p.id = l.owner_id
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1
	if !r.From.IsZero() {
		query += fmt.Sprintf(" AND l.created_at >= $%d", argIndex)
		args = append(args, r.From)
		argIndex++
	}
	if !r.To.IsZero() {
		query += fmt.Sprintf(" AND l.created_at <= $%d", argIndex)
		args = append(args, r.To)
	}
	query += " ORDER BY l.created_at"

	var rows []*DashboardRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query dashboard leads: %w", err)
	}
	return rows, nil
}

// ConversionRows returns enrolled leads owned by salespeople, converted since
// q.Since, optionally restricted to a course type and a course.
func (s *Store) ConversionRows(ctx context.Context, q ConversionQuery) ([]*ConversionRow, error) {
	query := `
		SELECT COALESCE(l.converted_at, l.created_at) AS converted_at, p.full_name AS owner_name
		FROM leads l
		JOIN profiles p ON p.id = l.owner_id
		JOIN courses c ON c.id = l.course_id
		JOIN course_types t ON t.id = c.course_type_id
		WHERE l.status = 'matriculado'
			AND p.role = ANY($1)
			AND COALESCE(l.converted_at, l.created_at) >= $2
	`
	args := []interface{}{stringArray(SalesRoles), q.Since}
	argIndex := 3

	if !isAll(q.CourseType) {
		query += fmt.Sprintf(" AND t.name = $%d", argIndex)
		args = append(args, q.CourseType)
		argIndex++
	}
	if !isAll(q.CourseID) {
		courseID, err := uuid.Parse(q.CourseID)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"course_id": "Curso inválido"}}
		}
		query += fmt.Sprintf(" AND l.course_id = $%d", argIndex)
		args = append(args, courseID)
	}
	query += " ORDER BY 1"

	var rows []*ConversionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	return rows, nil
}
