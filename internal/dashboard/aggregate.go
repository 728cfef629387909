// Package dashboard reduces lead rows into the chart-ready aggregates shown
// on the dashboard and the conversions panel.
package dashboard

import (
	"math"
	"sort"
	"strconv"

	"lead-crm/internal/models"
)

const undefinedLabel = "Não definido"

type Stats struct {
	TotalLeads          int    `json:"totalLeads"`
	HotLeads            int    `json:"hotLeads"`
	ConversionRate      string `json:"conversionRate"`
	AvgTimeToConversion string `json:"avgTimeToConversion"`
}

// ComputeStats summarises the headline cards. The rate is enrolled/total with
// at most one decimal ("12.5%", "0%"). The average only considers enrolled
// leads with a conversion timestamp.
func ComputeStats(rows []*models.DashboardRow) Stats {
	s := Stats{TotalLeads: len(rows)}
	enrolled := 0
	var totalDays float64
	timed := 0

	for _, r := range rows {
		switch r.Status {
		case models.StatusHot:
			s.HotLeads++
		case models.StatusEnrolled:
			enrolled++
			if r.ConvertedAt.Valid && !r.ConvertedAt.Time.Before(r.CreatedAt) {
				totalDays += r.ConvertedAt.Time.Sub(r.CreatedAt).Hours() / 24
				timed++
			}
		}
	}

	rate := 0.0
	if s.TotalLeads > 0 {
		rate = roundTo(float64(enrolled)*100/float64(s.TotalLeads), 1)
	}
	s.ConversionRate = strconv.FormatFloat(rate, 'f', -1, 64) + "%"

	days := 0
	if timed > 0 {
		days = int(math.Round(totalDays / float64(timed)))
	}
	s.AvgTimeToConversion = formatDays(days)
	return s
}

func formatDays(n int) string {
	if n == 1 {
		return "1 dia"
	}
	return strconv.Itoa(n) + " dias"
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

type FunnelStep struct {
	Stage      string `json:"stage"`
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Percentage int    `json:"percentage"`
}

// Funnel returns one step per stage in position order. A lead counts in its
// own stage and every earlier one, so values never grow down the funnel.
// Percentages are relative to the first step.
func Funnel(rows []*models.DashboardRow, stages []*models.Stage) []FunnelStep {
	ordered := make([]*models.Stage, len(stages))
	copy(ordered, stages)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	index := make(map[string]int, len(ordered))
	for i, st := range ordered {
		index[st.Code] = i
	}

	counts := make([]int, len(ordered))
	for _, r := range rows {
		i, ok := index[r.Stage]
		if !ok {
			continue
		}
		for j := 0; j <= i; j++ {
			counts[j]++
		}
	}

	steps := make([]FunnelStep, len(ordered))
	for i, st := range ordered {
		name := st.Name
		if name == "" {
			name = models.StageDisplayName(st.Code)
		}
		pct := 0
		if len(counts) > 0 && counts[0] > 0 {
			pct = int(math.Round(float64(counts[i]) * 100 / float64(counts[0])))
		}
		steps[i] = FunnelStep{Stage: st.Code, Name: name, Value: counts[i], Percentage: pct}
	}
	return steps
}

type TemperatureSlice struct {
	Status string `json:"status"`
	Name   string `json:"name"`
	Emoji  string `json:"emoji"`
	Value  int    `json:"value"`
}

// Temperature counts open leads as Quente, Morno and Frio, always in that order.
func Temperature(rows []*models.DashboardRow) []TemperatureSlice {
	order := []string{models.StatusHot, models.StatusWarm, models.StatusCold}
	counts := make(map[string]int, len(order))
	for _, r := range rows {
		counts[r.Status]++
	}

	out := make([]TemperatureSlice, 0, len(order))
	for _, status := range order {
		info := models.GetStatusDisplayInfo(status)
		out = append(out, TemperatureSlice{
			Status: status,
			Name:   info.DisplayName,
			Emoji:  info.Emoji,
			Value:  counts[status],
		})
	}
	return out
}

type NamedTotal struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

func ByOrigin(rows []*models.DashboardRow) []NamedTotal {
	return groupCount(rows, func(r *models.DashboardRow) string { return r.OriginName.String })
}

func ByCourseType(rows []*models.DashboardRow) []NamedTotal {
	return groupCount(rows, func(r *models.DashboardRow) string { return r.CourseTypeName.String })
}

// groupCount sorts by total desc, then name.
func groupCount(rows []*models.DashboardRow, key func(*models.DashboardRow) string) []NamedTotal {
	counts := map[string]int{}
	for _, r := range rows {
		k := key(r)
		if k == "" {
			k = undefinedLabel
		}
		counts[k]++
	}

	out := make([]NamedTotal, 0, len(counts))
	for name, total := range counts {
		out = append(out, NamedTotal{Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type RankingEntry struct {
	Position       int     `json:"position"`
	Name           string  `json:"name"`
	TotalLeads     int     `json:"totalLeads"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversionRate"`
}

// Ranking groups leads by owner. Unowned leads are ignored.
func Ranking(rows []*models.DashboardRow) []RankingEntry {
	type acc struct {
		name        string
		total       int
		conversions int
	}
	byOwner := map[string]*acc{}
	for _, r := range rows {
		if !r.OwnerID.Valid {
			continue
		}
		id := r.OwnerID.UUID.String()
		a, ok := byOwner[id]
		if !ok {
			name := r.OwnerName.String
			if name == "" {
				name = unknownSeller
			}
			a = &acc{name: name}
			byOwner[id] = a
		}
		a.total++
		if r.Status == models.StatusEnrolled {
			a.conversions++
		}
	}

	out := make([]RankingEntry, 0, len(byOwner))
	for _, a := range byOwner {
		out = append(out, RankingEntry{
			Name:           a.name,
			TotalLeads:     a.total,
			Conversions:    a.conversions,
			ConversionRate: roundTo(float64(a.conversions)*100/float64(a.total), 1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConversionRate != out[j].ConversionRate {
			return out[i].ConversionRate > out[j].ConversionRate
		}
		if out[i].Conversions != out[j].Conversions {
			return out[i].Conversions > out[j].Conversions
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}
