package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"lead-crm/internal/dashboard"
	"lead-crm/internal/middleware"
	"lead-crm/internal/models"
)

type APIHandler struct {
	*Deps
}

func NewAPIHandler(d *Deps) *APIHandler {
	return &APIHandler{Deps: d}
}

// JSON response helpers
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// GET /api/me - returns current user info
func (h *APIHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r)
	if !ok {
		jsonError(w, http.StatusUnauthorized, "não autenticado")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"id":    id.UserID.String(),
		"email": id.Email,
		"name":  id.Name,
		"role":  id.Role,
	})
}

// GET /api/courses?type=EAD - course options for the cascading course select
func (h *APIHandler) GetCourses(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog(r.Context())
	if err != nil {
		h.Logger.Error("failed to load courses", "error", err)
		jsonError(w, http.StatusInternalServerError, "falha ao carregar os cursos")
		return
	}
	courses := dashboard.FilterCoursesByType(cat.Courses, r.URL.Query().Get("type"))
	if courses == nil {
		courses = []*models.Course{}
	}
	jsonResponse(w, http.StatusOK, courses)
}
