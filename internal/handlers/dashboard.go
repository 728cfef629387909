package handlers

import (
	"net/http"

	"lead-crm/internal/dashboard"
	"lead-crm/internal/models"
	"lead-crm/internal/util"
)

type DashboardHandler struct {
	*Deps
}

func NewDashboardHandler(d *Deps) *DashboardHandler {
	return &DashboardHandler{Deps: d}
}

// dashboardFilter is the state of the date range and course type selects.
type dashboardFilter struct {
	From       string
	To         string
	CourseType string
}

func readDashboardFilter(r *http.Request) dashboardFilter {
	q := r.URL.Query()
	f := dashboardFilter{From: q.Get("from"), To: q.Get("to"), CourseType: q.Get("course_type")}
	if f.CourseType == "" || !models.IsValidCourseType(f.CourseType) {
		f.CourseType = dashboardAll
	}
	return f
}

const dashboardAll = dashboard.AllOption

func (h *DashboardHandler) load(r *http.Request, f dashboardFilter) (*dashboard.Result, error) {
	from, to, err := util.ParseDateRange(f.From, f.To, h.location())
	if err != nil {
		return nil, &models.ValidationError{Fields: map[string]string{"range": "Período inválido"}}
	}
	return dashboard.Load(r.Context(), cachedSource{d: h.Deps}, dashboard.Query{
		Range:      models.DateRange{From: from, To: to},
		CourseType: f.CourseType,
	}, h.now())
}

// Page renders the management dashboard.
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	f := readDashboardFilter(r)
	result, err := h.load(r, f)
	if err != nil {
		if fields := fieldErrors(err); fields != nil {
			h.failure(w, r, "Filtro inválido", err)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.serverError(w, "failed to load dashboard", err)
		return
	}

	h.Config.Debugf("dashboard: %d leads, filter %+v", result.Stats.TotalLeads, f)
	h.render(w, r, http.StatusOK, "dashboard.html", map[string]interface{}{
		"Title":       "Dashboard Gerencial - CRM",
		"Result":      result,
		"Filter":      f,
		"CourseTypes": models.CourseTypes,
		"OriginMax":   maxTotal(result.Origins),
		"TypeMax":     maxTotal(result.CourseTypes),
	})
}

// API returns the same aggregates as JSON for the chart scripts.
func (h *DashboardHandler) API(w http.ResponseWriter, r *http.Request) {
	result, err := h.load(r, readDashboardFilter(r))
	if err != nil {
		if fields := fieldErrors(err); fields != nil {
			jsonError(w, http.StatusBadRequest, "período inválido")
			return
		}
		h.Logger.Error("failed to load dashboard", "error", err)
		jsonError(w, http.StatusInternalServerError, "falha ao carregar o dashboard")
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

func maxTotal(items []dashboard.NamedTotal) int {
	m := 0
	for _, it := range items {
		if it.Total > m {
			m = it.Total
		}
	}
	return m
}
