package dashboard

import (
	"database/sql"
	"testing"
	"time"

	"lead-crm/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func row(status, stage string) *models.DashboardRow {
	return &models.DashboardRow{ID: uuid.New(), Status: status, Stage: stage, CreatedAt: created}
}

func owned(r *models.DashboardRow, owner uuid.UUID, name string) *models.DashboardRow {
	r.OwnerID = uuid.NullUUID{UUID: owner, Valid: true}
	r.OwnerName = sql.NullString{String: name, Valid: name != ""}
	return r
}

func converted(r *models.DashboardRow, after time.Duration) *models.DashboardRow {
	r.ConvertedAt = sql.NullTime{Time: r.CreatedAt.Add(after), Valid: true}
	return r
}

func stages() []*models.Stage {
	// deliberately out of order
	return []*models.Stage{
		{Code: "prova", Name: "Prova", Position: 3},
		{Code: "contato", Name: "Contato", Position: 1},
		{Code: "matricula", Name: "Matrícula", Position: 4},
		{Code: "interesse", Name: "Interesse", Position: 2},
	}
}

func TestComputeStats(t *testing.T) {
	day := 24 * time.Hour

	tests := []struct {
		name string
		rows []*models.DashboardRow
		want Stats
	}{
		{
			name: "empty",
			rows: nil,
			want: Stats{ConversionRate: "0%", AvgTimeToConversion: "0 dias"},
		},
		{
			name: "one decimal rate and rounded average",
			rows: []*models.DashboardRow{
				converted(row("matriculado", "matricula"), 4*day),
				converted(row("matriculado", "matricula"), 7*day),
				row("quente", "contato"), row("quente", "prova"),
				row("morno", "contato"), row("frio", "contato"),
				row("perdido", "interesse"), row("morno", "contato"),
			},
			want: Stats{TotalLeads: 8, HotLeads: 2, ConversionRate: "25%", AvgTimeToConversion: "6 dias"},
		},
		{
			name: "fractional rate",
			rows: []*models.DashboardRow{
				converted(row("matriculado", "matricula"), day),
				row("morno", "contato"), row("morno", "contato"),
				row("morno", "contato"), row("morno", "contato"),
				row("morno", "contato"), row("morno", "contato"),
				row("morno", "contato"),
			},
			want: Stats{TotalLeads: 8, ConversionRate: "12.5%", AvgTimeToConversion: "1 dia"},
		},
		{
			name: "enrolled without timestamp is not averaged",
			rows: []*models.DashboardRow{row("matriculado", "matricula"), row("morno", "contato"), row("frio", "contato")},
			want: Stats{TotalLeads: 3, ConversionRate: "33.3%", AvgTimeToConversion: "0 dias"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStats(tt.rows))
		})
	}
}

func TestFunnel(t *testing.T) {
	rows := []*models.DashboardRow{
		row("morno", "contato"), row("morno", "contato"),
		row("quente", "interesse"),
		row("quente", "prova"),
		row("matriculado", "matricula"),
		row("morno", "desconhecida"),
	}

	got := Funnel(rows, stages())
	require.Len(t, got, 4)
	assert.Equal(t, []FunnelStep{
		{Stage: "contato", Name: "Contato", Value: 5, Percentage: 100},
		{Stage: "interesse", Name: "Interesse", Value: 3, Percentage: 60},
		{Stage: "prova", Name: "Prova", Value: 2, Percentage: 40},
		{Stage: "matricula", Name: "Matrícula", Value: 1, Percentage: 20},
	}, got)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i].Value, got[i-1].Value, "funnel must not widen")
	}
}

func TestFunnelEmpty(t *testing.T) {
	got := Funnel(nil, stages())
	require.Len(t, got, 4)
	for _, s := range got {
		assert.Zero(t, s.Value)
		assert.Zero(t, s.Percentage)
	}
}

func TestTemperature(t *testing.T) {
	rows := []*models.DashboardRow{
		row("frio", "contato"), row("quente", "contato"), row("frio", "contato"),
		row("matriculado", "matricula"),
	}
	got := Temperature(rows)
	require.Len(t, got, 3)
	assert.Equal(t, "Quente", got[0].Name)
	assert.Equal(t, 1, got[0].Value)
	assert.Equal(t, "🔥", got[0].Emoji)
	assert.Equal(t, "Morno", got[1].Name)
	assert.Equal(t, 0, got[1].Value)
	assert.Equal(t, "Frio", got[2].Name)
	assert.Equal(t, 2, got[2].Value)
}

func TestByOriginAndCourseType(t *testing.T) {
	withOrigin := func(name string) *models.DashboardRow {
		r := row("morno", "contato")
		r.OriginName = sql.NullString{String: name, Valid: name != ""}
		r.CourseTypeName = sql.NullString{String: "EAD", Valid: true}
		return r
	}
	rows := []*models.DashboardRow{
		withOrigin("Instagram"), withOrigin("Google"), withOrigin("Instagram"),
		withOrigin(""), withOrigin("Google"), withOrigin("Indicação"),
	}

	assert.Equal(t, []NamedTotal{
		{Name: "Google", Total: 2},
		{Name: "Instagram", Total: 2},
		{Name: "Indicação", Total: 1},
		{Name: "Não definido", Total: 1},
	}, ByOrigin(rows))

	rows = append(rows, row("morno", "contato"))
	assert.Equal(t, []NamedTotal{
		{Name: "EAD", Total: 6},
		{Name: "Não definido", Total: 1},
	}, ByCourseType(rows))
}

func TestRanking(t *testing.T) {
	ana, bruno, carla := uuid.New(), uuid.New(), uuid.New()
	rows := []*models.DashboardRow{
		owned(row("matriculado", "matricula"), ana, "Ana"),
		owned(row("morno", "contato"), ana, "Ana"),
		owned(row("matriculado", "matricula"), bruno, "Bruno"),
		owned(row("matriculado", "matricula"), bruno, "Bruno"),
		owned(row("frio", "contato"), bruno, "Bruno"),
		owned(row("frio", "contato"), bruno, "Bruno"),
		owned(row("quente", "contato"), carla, "Carla"),
		owned(row("matriculado", "matricula"), carla, "Carla"),
		owned(row("morno", "contato"), carla, "Carla"),
		row("morno", "contato"),
	}

	got := Ranking(rows)
	require.Len(t, got, 3)
	// equal rates: more conversions first
	assert.Equal(t, RankingEntry{Position: 1, Name: "Bruno", TotalLeads: 4, Conversions: 2, ConversionRate: 50}, got[0])
	assert.Equal(t, RankingEntry{Position: 2, Name: "Ana", TotalLeads: 2, Conversions: 1, ConversionRate: 50}, got[1])
	assert.Equal(t, RankingEntry{Position: 3, Name: "Carla", TotalLeads: 3, Conversions: 1, ConversionRate: 33.3}, got[2])
}

func TestRankingTieBreaks(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	rows := []*models.DashboardRow{
		owned(row("matriculado", "matricula"), b, "Bruno"),
		owned(row("matriculado", "matricula"), a, "Ana"),
	}
	got := Ranking(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "Ana", got[0].Name)
	assert.Equal(t, "Bruno", got[1].Name)
}
