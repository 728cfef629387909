package dashboard

import (
	"sort"
	"time"

	"lead-crm/internal/models"
	"lead-crm/internal/util"
)

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodTotal = "total"

	AllOption     = "todos"
	unknownSeller = "Desconhecido"
)

var Periods = []string{PeriodDay, PeriodWeek, PeriodMonth, PeriodTotal}

// PeriodLabel is the option text of the period selector.
func PeriodLabel(p string) string {
	switch p {
	case PeriodDay:
		return "Hoje"
	case PeriodWeek:
		return "Esta Semana"
	case PeriodMonth:
		return "Este Mês"
	case PeriodTotal:
		return "Período Total"
	}
	return p
}

// PeriodStart returns the lower bound for conversions in period p. Unknown
// periods and "total" have no bound (zero Unix time).
func PeriodStart(p string, now time.Time, loc *time.Location) time.Time {
	switch p {
	case PeriodDay:
		return util.StartOfDay(now, loc)
	case PeriodWeek:
		return util.StartOfWeek(now, loc)
	case PeriodMonth:
		return util.StartOfMonth(now, loc)
	}
	return time.Unix(0, 0).UTC()
}

// ConversionFilter is the state of the three cascading dropdowns.
type ConversionFilter struct {
	Period     string `json:"period"`
	CourseType string `json:"courseType"`
	CourseID   string `json:"courseId"`
}

// Normalize fills defaults and resets a course that does not belong to the
// selected type, the same way changing the type select resets the course select.
func (f ConversionFilter) Normalize(courses []*models.Course) ConversionFilter {
	switch f.Period {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodTotal:
	default:
		f.Period = PeriodMonth
	}
	if f.CourseType == "" || !models.IsValidCourseType(f.CourseType) {
		f.CourseType = AllOption
	}
	if f.CourseID == "" {
		f.CourseID = AllOption
	}
	if f.CourseID != AllOption {
		found := false
		for _, c := range FilterCoursesByType(courses, f.CourseType) {
			if c.ID.String() == f.CourseID {
				found = true
				break
			}
		}
		if !found {
			f.CourseID = AllOption
		}
	}
	return f
}

// FilterCoursesByType lists the options of the course dropdown.
func FilterCoursesByType(courses []*models.Course, courseType string) []*models.Course {
	if courseType == "" || courseType == AllOption {
		return courses
	}
	out := make([]*models.Course, 0, len(courses))
	for _, c := range courses {
		if c.Type == courseType {
			out = append(out, c)
		}
	}
	return out
}

// Bucket is one x-axis point of the conversions chart. Counts are keyed by
// seller name and kept apart from the label, so no name can shadow it.
type Bucket struct {
	Label  string         `json:"periodo"`
	Start  time.Time      `json:"inicio"`
	Counts map[string]int `json:"vendas"`
}

type ConversionSeries struct {
	Buckets []Bucket `json:"chartData"`
	Sellers []string `json:"vendedores"`
}

// Conversions buckets conversions per salesperson. "day" buckets by hour,
// "week" and "month" by day, "total" by ISO week. Buckets are chronological;
// sellers keep first-seen order.
func Conversions(rows []*models.ConversionRow, period string, loc *time.Location) ConversionSeries {
	if loc == nil {
		loc = time.Local
	}
	series := ConversionSeries{Buckets: []Bucket{}, Sellers: []string{}}
	byStart := map[int64]*Bucket{}
	seen := map[string]bool{}

	for _, r := range rows {
		start, label := bucketFor(r.ConvertedAt, period, loc)
		seller := r.OwnerName.String
		if seller == "" {
			seller = unknownSeller
		}
		if !seen[seller] {
			seen[seller] = true
			series.Sellers = append(series.Sellers, seller)
		}

		b, ok := byStart[start.Unix()]
		if !ok {
			b = &Bucket{Label: label, Start: start, Counts: map[string]int{}}
			byStart[start.Unix()] = b
		}
		b.Counts[seller]++
	}

	for _, b := range byStart {
		series.Buckets = append(series.Buckets, *b)
	}
	sort.Slice(series.Buckets, func(i, j int) bool {
		return series.Buckets[i].Start.Before(series.Buckets[j].Start)
	})
	return series
}

func bucketFor(t time.Time, period string, loc *time.Location) (time.Time, string) {
	lt := t.In(loc)
	switch period {
	case PeriodDay:
		start := time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), 0, 0, 0, loc)
		return start, start.Format("15:00")
	case PeriodTotal:
		start := util.StartOfWeek(lt, loc)
		return start, "Sem " + start.Format("02/01/06")
	default:
		start := util.StartOfDay(lt, loc)
		return start, start.Format("02/01")
	}
}

// Count returns the conversions of seller in the bucket; templates use it
// because missing map keys should render as 0.
func (b Bucket) Count(seller string) int {
	return b.Counts[seller]
}

// Total sums the bucket across sellers.
func (b Bucket) Total() int {
	n := 0
	for _, c := range b.Counts {
		n += c
	}
	return n
}
