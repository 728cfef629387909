package models

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lead-crm/internal/db"
	"lead-crm/internal/temperature"

	"github.com/jmoiron/sqlx"
)

const temperatureCriteriaKey = "temperature_criteria"

// GetTemperatureCriteria falls back to the defaults when nothing was saved.
func (s *Store) GetTemperatureCriteria(ctx context.Context) (temperature.Criteria, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM app_settings WHERE key = $1`, temperatureCriteriaKey)
	if err != nil {
		if mapError(err) == ErrNotFound {
			return temperature.DefaultCriteria, nil
		}
		return temperature.Criteria{}, fmt.Errorf("failed to load temperature criteria: %w", err)
	}

	var c temperature.Criteria
	if err := json.Unmarshal(raw, &c); err != nil {
		return temperature.Criteria{}, fmt.Errorf("failed to decode temperature criteria: %w", err)
	}
	return c, nil
}

func (s *Store) SaveTemperatureCriteria(ctx context.Context, c temperature.Criteria) error {
	if err := c.Validate(); err != nil {
		return &ValidationError{Fields: map[string]string{"criteria": err.Error()}}
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, temperatureCriteriaKey, string(payload))
		if err != nil {
			return fmt.Errorf("failed to save temperature criteria: %w", err)
		}
		return nil
	})
}

// RecomputeTemperatures reclassifies every open lead with the saved criteria
// and returns how many statuses changed.
func (s *Store) RecomputeTemperatures(ctx context.Context, now time.Time) (int, error) {
	criteria, err := s.GetTemperatureCriteria(ctx)
	if err != nil {
		return 0, err
	}
	open, err := s.ListOpenLeads(ctx)
	if err != nil {
		return 0, err
	}
	leads := make([]temperature.Lead, 0, len(open))
	for _, o := range open {
		leads = append(leads, o.TemperatureLead())
	}
	return s.UpdateStatuses(ctx, criteria.Recompute(leads, now))
}
