package handlers

import (
	"net/http"
	"strings"

	"lead-crm/internal/cache"
	"lead-crm/internal/models"
)

// CatalogHandler manages courses and origins.
type CatalogHandler struct {
	*Deps
}

func NewCatalogHandler(d *Deps) *CatalogHandler {
	return &CatalogHandler{Deps: d}
}

func (h *CatalogHandler) changed(r *http.Request) {
	h.invalidate(r.Context(), cache.NamespaceCatalog, cache.NamespaceDashboard, cache.NamespaceConversions)
}

func (h *CatalogHandler) Courses(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog(r.Context())
	if err != nil {
		h.serverError(w, "failed to load courses", err)
		return
	}
	h.render(w, r, http.StatusOK, "courses.html", map[string]interface{}{
		"Title":       "Cursos - CRM",
		"Courses":     cat.Courses,
		"CourseTypes": models.CourseTypes,
		"DefaultType": models.DefaultCourseType,
		"CanEdit":     CanManageCatalog(r),
	})
}

func (h *CatalogHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	if _, err := h.Store.CreateCourse(r.Context(), name, r.FormValue("course_type")); err != nil {
		h.failure(w, r, "Erro ao criar curso", err)
	} else {
		h.changed(r)
		h.success(w, r, "Curso criado", name)
	}
	http.Redirect(w, r, "/courses", http.StatusSeeOther)
}

func (h *CatalogHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if err := h.Store.UpdateCourse(r.Context(), id, name, r.FormValue("course_type")); err != nil {
		h.failure(w, r, "Erro ao atualizar curso", err)
	} else {
		h.changed(r)
		h.success(w, r, "Curso atualizado", name)
	}
	http.Redirect(w, r, "/courses", http.StatusSeeOther)
}

func (h *CatalogHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.Store.DeleteCourse(r.Context(), id); err != nil {
		h.failure(w, r, "Erro ao excluir curso", err)
	} else {
		h.changed(r)
		h.success(w, r, "Curso excluído", "")
	}
	http.Redirect(w, r, "/courses", http.StatusSeeOther)
}

func (h *CatalogHandler) Origins(w http.ResponseWriter, r *http.Request) {
	cat, err := h.catalog(r.Context())
	if err != nil {
		h.serverError(w, "failed to load origins", err)
		return
	}
	h.render(w, r, http.StatusOK, "origins.html", map[string]interface{}{
		"Title":   "Origens - CRM",
		"Origins": cat.Origins,
		"CanEdit": CanManageCatalog(r),
	})
}

func (h *CatalogHandler) CreateOrigin(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	if _, err := h.Store.CreateOrigin(r.Context(), name); err != nil {
		h.failure(w, r, "Erro ao criar origem", err)
	} else {
		h.changed(r)
		h.success(w, r, "Origem criada", name)
	}
	http.Redirect(w, r, "/origins", http.StatusSeeOther)
}

func (h *CatalogHandler) UpdateOrigin(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if err := h.Store.UpdateOrigin(r.Context(), id, name); err != nil {
		h.failure(w, r, "Erro ao atualizar origem", err)
	} else {
		h.changed(r)
		h.success(w, r, "Origem atualizada", name)
	}
	http.Redirect(w, r, "/origins", http.StatusSeeOther)
}

func (h *CatalogHandler) DeleteOrigin(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.Store.DeleteOrigin(r.Context(), id); err != nil {
		h.failure(w, r, "Erro ao excluir origem", err)
	} else {
		h.changed(r)
		h.success(w, r, "Origem excluída", "")
	}
	http.Redirect(w, r, "/origins", http.StatusSeeOther)
}
