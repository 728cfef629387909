package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"lead-crm/internal/cache"
	"lead-crm/internal/middleware"
	"lead-crm/internal/models"
	"lead-crm/internal/temperature"

	"github.com/google/uuid"
)

type SettingsHandler struct {
	*Deps
}

func NewSettingsHandler(d *Deps) *SettingsHandler {
	return &SettingsHandler{Deps: d}
}

func (h *SettingsHandler) Page(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r)
	profile, err := h.Store.GetProfile(r.Context(), id.UserID)
	if err != nil {
		h.serverError(w, "failed to load profile", err)
		return
	}
	criteria, err := h.Store.GetTemperatureCriteria(r.Context())
	if err != nil {
		h.serverError(w, "failed to load temperature criteria", err)
		return
	}
	h.render(w, r, http.StatusOK, "settings.html", map[string]interface{}{
		"Title":    "Configurações - CRM",
		"Profile":  profile,
		"Criteria": criteria,
		"IsAdmin":  IsAdmin(r),
	})
}

// UpdateProfile changes the signed-in user's display name.
func (h *SettingsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(middleware.GetUserID(r))
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	name := strings.TrimSpace(r.FormValue("full_name"))
	if err := h.Store.UpdateProfileName(r.Context(), userID, name); err != nil {
		h.failure(w, r, "Erro ao atualizar perfil", err)
	} else {
		h.invalidate(r.Context(), cache.NamespaceDashboard, cache.NamespaceConversions)
		h.success(w, r, "Perfil atualizado", "")
	}
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// UpdateTemperature saves the criteria and, when asked, reclassifies open leads right away.
func (h *SettingsHandler) UpdateTemperature(w http.ResponseWriter, r *http.Request) {
	hot, errHot := strconv.Atoi(r.FormValue("hot_max_days"))
	cold, errCold := strconv.Atoi(r.FormValue("cold_min_days"))
	if errHot != nil || errCold != nil {
		h.failure(w, r, "Erro ao salvar critérios", &models.ValidationError{
			Fields: map[string]string{"criteria": "informe números inteiros de dias"},
		})
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}

	c := temperature.Criteria{HotMaxDays: hot, ColdMinDays: cold}
	if err := h.Store.SaveTemperatureCriteria(r.Context(), c); err != nil {
		h.failure(w, r, "Erro ao salvar critérios", err)
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}

	desc := ""
	if r.FormValue("recompute") != "" {
		n, err := h.Store.RecomputeTemperatures(r.Context(), h.now())
		if err != nil {
			h.failure(w, r, "Erro ao reclassificar leads", err)
			http.Redirect(w, r, "/settings", http.StatusSeeOther)
			return
		}
		h.invalidate(r.Context(), cache.NamespaceDashboard)
		desc = strconv.Itoa(n) + " leads reclassificados."
	}
	h.success(w, r, "Critérios salvos", desc)
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}
