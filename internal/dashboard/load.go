package dashboard

import (
	"context"
	"time"

	"lead-crm/internal/models"

	"golang.org/x/sync/errgroup"
)

const recentActivityLimit = 10

// Source is the slice of the store the dashboard reads.
type Source interface {
	DashboardLeads(ctx context.Context, r models.DateRange) ([]*models.DashboardRow, error)
	ListStages(ctx context.Context) ([]*models.Stage, error)
	ListRecentInteractions(ctx context.Context, limit int) ([]*models.Interaction, error)
}

// ConversionSource is the slice of the store the conversions panel reads.
type ConversionSource interface {
	ListCourses(ctx context.Context) ([]*models.Course, error)
	ConversionRows(ctx context.Context, q models.ConversionQuery) ([]*models.ConversionRow, error)
}

// Query holds the dashboard filters. CourseType "" or "todos" means all types.
type Query struct {
	Range      models.DateRange
	CourseType string
}

type Result struct {
	Stats       Stats              `json:"stats"`
	Funnel      []FunnelStep       `json:"funnelData"`
	Temperature []TemperatureSlice `json:"temperatureData"`
	Origins     []NamedTotal       `json:"originData"`
	CourseTypes []NamedTotal       `json:"leadsByCourseType"`
	Ranking     []RankingEntry     `json:"rankingData"`
	Activity    []ActivityEntry    `json:"activityData"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// Load fetches the independent sources concurrently and reduces them. The
// course type breakdown ignores the course type filter so every type stays visible.
func Load(ctx context.Context, src Source, q Query, now time.Time) (*Result, error) {
	var (
		rows         []*models.DashboardRow
		stages       []*models.Stage
		interactions []*models.Interaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = src.DashboardLeads(gctx, q.Range)
		return err
	})
	g.Go(func() error {
		var err error
		stages, err = src.ListStages(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		interactions, err = src.ListRecentInteractions(gctx, recentActivityLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	filtered := FilterByCourseType(rows, q.CourseType)
	return &Result{
		Stats:       ComputeStats(filtered),
		Funnel:      Funnel(filtered, stages),
		Temperature: Temperature(filtered),
		Origins:     ByOrigin(filtered),
		CourseTypes: ByCourseType(rows),
		Ranking:     Ranking(filtered),
		Activity:    Activity(interactions, now),
		GeneratedAt: now,
	}, nil
}

// FilterByCourseType keeps rows of the given course type.
func FilterByCourseType(rows []*models.DashboardRow, courseType string) []*models.DashboardRow {
	if courseType == "" || courseType == AllOption {
		return rows
	}
	out := make([]*models.DashboardRow, 0, len(rows))
	for _, r := range rows {
		if r.CourseTypeName.String == courseType {
			out = append(out, r)
		}
	}
	return out
}

// ConversionPanel is everything the conversions panel renders.
type ConversionPanel struct {
	Filter  ConversionFilter `json:"filter"`
	Courses []*models.Course `json:"courses"`
	Series  ConversionSeries `json:"series"`
}

// LoadConversions normalizes the filter against the course list before
// querying, so a stale course selection never narrows the chart.
func LoadConversions(ctx context.Context, src ConversionSource, f ConversionFilter, now time.Time, loc *time.Location) (*ConversionPanel, error) {
	courses, err := src.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	f = f.Normalize(courses)

	rows, err := src.ConversionRows(ctx, models.ConversionQuery{
		Since:      PeriodStart(f.Period, now, loc),
		CourseType: f.CourseType,
		CourseID:   f.CourseID,
	})
	if err != nil {
		return nil, err
	}

	return &ConversionPanel{
		Filter:  f,
		Courses: FilterCoursesByType(courses, f.CourseType),
		Series:  Conversions(rows, f.Period, loc),
	}, nil
}
