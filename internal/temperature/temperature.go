// Package temperature classifies leads as quente, morno or frio by how long
// ago they were last contacted.
package temperature

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	Hot  = "quente"
	Warm = "morno"
	Cold = "frio"

	// final outcomes, never reclassified
	Lost     = "perdido"
	Enrolled = "matriculado"
)

// Criteria holds the thresholds in whole days. A lead contacted less than
// HotMaxDays ago is hot; more than ColdMinDays ago is cold; anything between is warm.
type Criteria struct {
	HotMaxDays  int `json:"hot_max_days"`
	ColdMinDays int `json:"cold_min_days"`
}

var DefaultCriteria = Criteria{HotMaxDays: 3, ColdMinDays: 7}

var (
	ErrNonPositive = errors.New("os limites devem ser maiores que zero")
	ErrOrder       = errors.New("o limite de lead quente deve ser menor que o de lead frio")
)

func (c Criteria) Validate() error {
	if c.HotMaxDays <= 0 || c.ColdMinDays <= 0 {
		return ErrNonPositive
	}
	if c.HotMaxDays >= c.ColdMinDays {
		return ErrOrder
	}
	return nil
}

// Classify returns the temperature for a lead whose last contact was at lastContact.
func (c Criteria) Classify(lastContact, now time.Time) string {
	days := int(now.Sub(lastContact).Hours() / 24)
	switch {
	case days < c.HotMaxDays:
		return Hot
	case days > c.ColdMinDays:
		return Cold
	default:
		return Warm
	}
}

// Lead is the input to Recompute.
type Lead struct {
	ID          uuid.UUID
	Status      string
	LastContact time.Time
}

// IsTerminal reports whether status is a final outcome that must never be
// reclassified.
func IsTerminal(status string) bool {
	return status == Lost || status == Enrolled
}

// Recompute returns the new status of every open lead whose temperature changed.
func (c Criteria) Recompute(leads []Lead, now time.Time) map[uuid.UUID]string {
	changes := make(map[uuid.UUID]string)
	for _, l := range leads {
		if IsTerminal(l.Status) {
			continue
		}
		next := c.Classify(l.LastContact, now)
		if next != l.Status {
			changes[l.ID] = next
		}
	}
	return changes
}
