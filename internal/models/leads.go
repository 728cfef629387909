package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lead-crm/internal/db"
	"lead-crm/internal/temperature"
	"lead-crm/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const leadColumns = `l.id, l.name, l.phone, l.email, l.course_id, l.origin_id, l.status, l.stage,
		l.owner_id, l.created_at, l.last_contact_at, l.converted_at`

func isAll(v string) bool {
	return v == "" || v == "todos"
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// ListLeads returns leads newest first. Status and course are filtered in SQL;
// the free-text search is accent- and case-insensitive over name, phone and e-mail.
func (s *Store) ListLeads(ctx context.Context, filter LeadFilter) ([]*LeadListItem, error) {
	query := `
		SELECT ` + leadColumns + `,
			c.name AS course_name, o.name AS origin_name, p.full_name AS owner_name
		FROM leads l
		LEFT JOIN courses c ON c.id = l.course_id
		LEFT JOIN origins o ON o.id = l.origin_id
		LEFT JOIN profiles p ON p.id = l.owner_id
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if !isAll(filter.Status) {
		query += fmt.Sprintf(" AND l.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if !isAll(filter.CourseID) {
		courseID, err := uuid.Parse(filter.CourseID)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"course_id": "Curso inválido"}}
		}
		query += fmt.Sprintf(" AND l.course_id = $%d", argIndex)
		args = append(args, courseID)
	}
	query += " ORDER BY l.created_at DESC"

	var rows []*LeadListItem
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}

	if strings.TrimSpace(filter.Search) == "" {
		return rows, nil
	}
	out := rows[:0]
	for _, item := range rows {
		if util.MatchesSearch(filter.Search, item.Name, item.Phone.String, item.Email.String) {
			out = append(out, item)
		}
	}
	return out, nil
}

// GetLead returns the bare lead row.
func (s *Store) GetLead(ctx context.Context, id uuid.UUID) (*Lead, error) {
	lead := &Lead{}
	err := s.db.GetContext(ctx, lead, `SELECT `+leadColumns+` FROM leads l WHERE l.id = $1`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return lead, nil
}

// GetLeadDetail loads the lead with its related names, owner profile and
// interactions (newest first).
func (s *Store) GetLeadDetail(ctx context.Context, id uuid.UUID) (*LeadDetail, error) {
	var row struct {
		Lead
		CourseName sql.NullString `db:"course_name"`
		OriginName sql.NullString `db:"origin_name"`
		StageName  sql.NullString `db:"stage_name"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT `+leadColumns+`, c.name AS course_name, o.name AS origin_name, st.name AS stage_name
		FROM leads l
		LEFT JOIN courses c ON c.id = l.course_id
		LEFT JOIN origins o ON o.id = l.origin_id
		LEFT JOIN lead_stages st ON st.code = l.stage
		WHERE l.id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", mapError(err))
	}

	lead := row.Lead
	detail := &LeadDetail{
		Lead:       &lead,
		CourseName: row.CourseName,
		OriginName: row.OriginName,
		StageName:  row.StageName,
	}

	if lead.OwnerID.Valid {
		owner, err := s.GetProfile(ctx, lead.OwnerID.UUID)
		if err == nil {
			detail.Owner = owner
		} else if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("failed to get lead owner: %w", err)
		}
	}

	interactions, err := s.ListInteractions(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Interactions = interactions
	return detail, nil
}

// Validate checks the same required fields as the lead form.
func (n *NewLead) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(n.Name) == "" {
		v.add("name", "Nome é obrigatório")
	}
	if n.CourseID == uuid.Nil {
		v.add("course_id", "Curso é obrigatório")
	}
	if n.OriginID == uuid.Nil {
		v.add("origin_id", "Origem é obrigatória")
	}
	if n.Status == "" {
		n.Status = StatusWarm
	}
	if n.Stage == "" {
		n.Stage = StageContact
	}
	if !IsValidStatus(n.Status) {
		v.add("status", "Status inválido")
	}
	if !IsValidStage(n.Stage) {
		v.add("stage", "Etapa inválida")
	}
	if e := strings.TrimSpace(n.Email); e != "" && !strings.Contains(e, "@") {
		v.add("email", "E-mail inválido")
	}
	return v.orNil()
}

// CreateLeadWithInteraction inserts the lead and its "cadastro" interaction
// atomically through the create_lead_with_interaction procedure.
func (s *Store) CreateLeadWithInteraction(ctx context.Context, n NewLead) (uuid.UUID, error) {
	if err := n.Validate(); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &id,
			`SELECT create_lead_with_interaction($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			strings.TrimSpace(n.Name), nullString(n.Phone), nullString(n.Email),
			n.CourseID, n.OriginID, n.Status, n.Stage, n.OwnerID, nullString(n.Description),
		)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create lead: %w", mapError(err))
	}
	return id, nil
}

func (u *LeadUpdate) Validate() error {
	n := NewLead{
		Name: u.Name, Email: u.Email, CourseID: u.CourseID, OriginID: u.OriginID,
		Status: u.Status, Stage: u.Stage,
	}
	err := n.Validate()
	u.Status, u.Stage = n.Status, n.Stage
	return err
}

// UpdateLead overwrites the editable fields. converted_at is stamped the first
// time the lead becomes "matriculado" and cleared when it leaves that status.
func (s *Store) UpdateLead(ctx context.Context, id uuid.UUID, u LeadUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}

	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE leads
			SET name = $1, phone = $2, email = $3, course_id = $4, origin_id = $5,
				status = $6, stage = $7,
				converted_at = CASE WHEN $6 = 'matriculado' THEN COALESCE(converted_at, now()) ELSE NULL END
			WHERE id = $8
		`, strings.TrimSpace(u.Name), nullString(u.Phone), nullString(u.Email),
			u.CourseID, u.OriginID, u.Status, u.Stage, id)
		if err != nil {
			return fmt.Errorf("failed to update lead: %w", mapError(err))
		}
		return expectOne(res)
	})
}

func (s *Store) DeleteLead(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete lead: %w", mapError(err))
		}
		return expectOne(res)
	})
}

// ListOpenLeads returns leads whose temperature may still change.
func (s *Store) ListOpenLeads(ctx context.Context) ([]*OpenLead, error) {
	var rows []*OpenLead
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, status, created_at, last_contact_at
		FROM leads
		WHERE status NOT IN ('perdido', 'matriculado')
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query open leads: %w", err)
	}
	return rows, nil
}

// TemperatureLead adapts the row for temperature.Recompute. Leads never
// contacted are measured from their creation.
func (o *OpenLead) TemperatureLead() temperature.Lead {
	last := o.CreatedAt
	if o.LastContactAt.Valid {
		last = o.LastContactAt.Time
	}
	return temperature.Lead{ID: o.ID, Status: o.Status, LastContact: last}
}

// UpdateStatuses applies status changes in one transaction and returns how many rows changed.
func (s *Store) UpdateStatuses(ctx context.Context, changes map[uuid.UUID]string) (int, error) {
	if len(changes) == 0 {
		return 0, nil
	}
	updated := 0
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for id, status := range changes {
			res, err := tx.ExecContext(ctx,
				`UPDATE leads SET status = $1 WHERE id = $2 AND status NOT IN ('perdido', 'matriculado')`,
				status, id)
			if err != nil {
				return fmt.Errorf("failed to update status of %s: %w", id, err)
			}
			n, _ := res.RowsAffected()
			updated += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// BackdateLead rewrites a lead's timestamps. Used by the demo data seeder so
// charts have history to show.
func (s *Store) BackdateLead(ctx context.Context, id uuid.UUID, createdAt time.Time, lastContact, convertedAt sql.NullTime) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE leads SET created_at = $1, last_contact_at = $2, converted_at = $3 WHERE id = $4
		`, createdAt, lastContact, convertedAt, id)
		if err != nil {
			return fmt.Errorf("failed to backdate lead: %w", err)
		}
		if err := expectOne(res); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE interactions SET created_at = $1 WHERE lead_id = $2`, createdAt, id)
		return err
	})
}
