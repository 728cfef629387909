package temperature

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCriteriaValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Criteria
		wantErr error
	}{
		{"defaults", DefaultCriteria, nil},
		{"zero hot", Criteria{HotMaxDays: 0, ColdMinDays: 7}, ErrNonPositive},
		{"negative cold", Criteria{HotMaxDays: 2, ColdMinDays: -1}, ErrNonPositive},
		{"equal thresholds", Criteria{HotMaxDays: 5, ColdMinDays: 5}, ErrOrder},
		{"inverted thresholds", Criteria{HotMaxDays: 10, ColdMinDays: 5}, ErrOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, tt.c.Validate())
		})
	}
}

func TestClassify(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	c := DefaultCriteria

	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"just now", time.Hour, Hot},
		{"two days", 2*day + time.Hour, Hot},
		{"three days", 3 * day, Warm},
		{"seven days", 7*day + time.Hour, Warm},
		{"eight days", 8 * day, Cold},
		{"a month", 30 * day, Cold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(now.Add(-tt.ago), now))
		})
	}
}

func TestRecompute(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	stale := uuid.New()
	fresh := uuid.New()
	unchanged := uuid.New()
	enrolled := uuid.New()
	lost := uuid.New()

	leads := []Lead{
		{ID: stale, Status: Hot, LastContact: now.Add(-10 * day)},
		{ID: fresh, Status: Cold, LastContact: now.Add(-time.Hour)},
		{ID: unchanged, Status: Warm, LastContact: now.Add(-5 * day)},
		{ID: enrolled, Status: "matriculado", LastContact: now.Add(-60 * day)},
		{ID: lost, Status: "perdido", LastContact: now},
	}

	changes := DefaultCriteria.Recompute(leads, now)
	assert.Equal(t, map[uuid.UUID]string{stale: Cold, fresh: Hot}, changes)
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []string{Lost, Enrolled} {
		assert.True(t, IsTerminal(s), s)
	}
	for _, s := range []string{Hot, Warm, Cold, ""} {
		assert.False(t, IsTerminal(s), s)
	}
}
