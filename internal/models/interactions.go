package models

import (
	"context"
	"fmt"
	"strings"

	"lead-crm/internal/db"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (n *NewInteraction) Validate() error {
	v := &ValidationError{}
	if n.LeadID == uuid.Nil {
		v.add("lead_id", "Lead inválido")
	}
	if !IsValidInteractionType(n.Type) {
		v.add("type", "Tipo de interação inválido")
	}
	if strings.TrimSpace(n.Description) == "" {
		v.add("description", "Descreva o que foi conversado")
	}
	return v.orNil()
}

// AddInteraction records the interaction and bumps the lead's last contact.
func (s *Store) AddInteraction(ctx context.Context, n NewInteraction) (uuid.UUID, error) {
	if err := n.Validate(); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &id, `
			INSERT INTO interactions (lead_id, user_id, type, description)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, n.LeadID, n.UserID, n.Type, strings.TrimSpace(n.Description))
		if err != nil {
			return fmt.Errorf("failed to insert interaction: %w", mapError(err))
		}

		res, err := tx.ExecContext(ctx, `UPDATE leads SET last_contact_at = now() WHERE id = $1`, n.LeadID)
		if err != nil {
			return fmt.Errorf("failed to update last contact: %w", err)
		}
		return expectOne(res)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ListInteractions returns a lead's interactions, newest first.
func (s *Store) ListInteractions(ctx context.Context, leadID uuid.UUID) ([]*Interaction, error) {
	var rows []*Interaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT i.id, i.lead_id, i.user_id, i.type, i.description, i.created_at,
			p.full_name AS author_name, NULL::text AS lead_name
		FROM interactions i
		LEFT JOIN profiles p ON p.id = i.user_id
		WHERE i.lead_id = $1
		ORDER BY i.created_at DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	return rows, nil
}

// ListRecentInteractions feeds the dashboard activity card.
func (s *Store) ListRecentInteractions(ctx context.Context, limit int) ([]*Interaction, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []*Interaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT i.id, i.lead_id, i.user_id, i.type, i.description, i.created_at,
			p.full_name AS author_name, l.name AS lead_name
		FROM interactions i
		JOIN leads l ON l.id = i.lead_id
		LEFT JOIN profiles p ON p.id = i.user_id
		ORDER BY i.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent interactions: %w", err)
	}
	return rows, nil
}
