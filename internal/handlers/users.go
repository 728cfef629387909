package handlers

import (
	"errors"
	"net/http"

	"lead-crm/internal/cache"
	"lead-crm/internal/middleware"
	"lead-crm/internal/models"
)

// UsersHandler lets administrators assign roles.
type UsersHandler struct {
	*Deps
}

func NewUsersHandler(d *Deps) *UsersHandler {
	return &UsersHandler{Deps: d}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		h.serverError(w, "failed to load profiles", err)
		return
	}
	h.render(w, r, http.StatusOK, "users.html", map[string]interface{}{
		"Title":     "Usuários - CRM",
		"Profiles":  profiles,
		"Roles":     models.Roles,
		"CurrentID": middleware.GetUserID(r),
	})
}

var errOwnRole = errors.New("Você não pode alterar o seu próprio cargo.")

func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if id.String() == middleware.GetUserID(r) {
		middleware.Failure(w, r, h.Sessions, "Erro ao atualizar cargo", errOwnRole)
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	if err := h.Store.UpdateProfileRole(r.Context(), id, role); err != nil {
		h.failure(w, r, "Erro ao atualizar cargo", err)
	} else {
		// ranking and conversions filter on the owner's role
		h.invalidate(r.Context(), cache.NamespaceDashboard, cache.NamespaceConversions)
		h.success(w, r, "Cargo atualizado", "O cargo do usuário agora é "+role+".")
	}
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}
