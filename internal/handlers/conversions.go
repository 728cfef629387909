package handlers

import (
	"net/http"

	"lead-crm/internal/dashboard"
	"lead-crm/internal/models"
)

type ConversionsHandler struct {
	*Deps
}

func NewConversionsHandler(d *Deps) *ConversionsHandler {
	return &ConversionsHandler{Deps: d}
}

func readConversionFilter(r *http.Request) dashboard.ConversionFilter {
	q := r.URL.Query()
	return dashboard.ConversionFilter{
		Period:     q.Get("period"),
		CourseType: q.Get("course_type"),
		CourseID:   q.Get("course_id"),
	}
}

func (h *ConversionsHandler) load(r *http.Request) (*dashboard.ConversionPanel, error) {
	return dashboard.LoadConversions(r.Context(), cachedSource{d: h.Deps}, readConversionFilter(r), h.now(), h.location())
}

// Page renders the conversions-per-salesperson panel with its cascading filters.
func (h *ConversionsHandler) Page(w http.ResponseWriter, r *http.Request) {
	panel, err := h.load(r)
	if err != nil {
		h.serverError(w, "failed to load conversions", err)
		return
	}

	type periodOption struct{ Value, Label string }
	periods := make([]periodOption, 0, len(dashboard.Periods))
	for _, p := range dashboard.Periods {
		periods = append(periods, periodOption{Value: p, Label: dashboard.PeriodLabel(p)})
	}

	h.render(w, r, http.StatusOK, "conversions.html", map[string]interface{}{
		"Title":       "Conversões por Vendedor - CRM",
		"Panel":       panel,
		"Periods":     periods,
		"CourseTypes": models.CourseTypes,
		"All":         dashboard.AllOption,
	})
}

func (h *ConversionsHandler) API(w http.ResponseWriter, r *http.Request) {
	panel, err := h.load(r)
	if err != nil {
		h.Logger.Error("failed to load conversions", "error", err)
		jsonError(w, http.StatusInternalServerError, "falha ao carregar as conversões")
		return
	}
	jsonResponse(w, http.StatusOK, panel)
}
