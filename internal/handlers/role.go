package handlers

import (
	"net/http"

	"lead-crm/internal/middleware"
	"lead-crm/internal/models"
)

// IsAdmin returns true if the current user can manage users.
func IsAdmin(r *http.Request) bool {
	return middleware.GetUserRole(r) == models.RoleAdmin
}

// CanManageCatalog returns true for roles that edit courses, origins and settings.
func CanManageCatalog(r *http.Request) bool {
	switch middleware.GetUserRole(r) {
	case models.RoleAdmin, models.RoleDirector, models.RoleCoordinator:
		return true
	}
	return false
}

var catalogRoles = []string{models.RoleAdmin, models.RoleDirector, models.RoleCoordinator}
