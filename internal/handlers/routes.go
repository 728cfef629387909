package handlers

import (
	"net/http"

	"lead-crm/internal/middleware"
	"lead-crm/internal/models"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes registers every page and API route on r. Session, CSRF and
// logging middleware are installed by the server.
func SetupRoutes(r chi.Router, d *Deps) {
	authHandler := NewAuthHandler(d)
	dashboardHandler := NewDashboardHandler(d)
	conversionsHandler := NewConversionsHandler(d)
	leadsHandler := NewLeadsHandler(d)
	catalogHandler := NewCatalogHandler(d)
	usersHandler := NewUsersHandler(d)
	settingsHandler := NewSettingsHandler(d)
	apiHandler := NewAPIHandler(d)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/login", authHandler.LoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/signup", authHandler.SignupForm)
	r.Post("/signup", authHandler.Signup)
	r.Post("/logout", authHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Sessions, d.Store, d.Auth, d.Logger))

		r.Get("/", dashboardHandler.Page)
		r.Get("/conversions", conversionsHandler.Page)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", leadsHandler.List)
			r.Get("/new", leadsHandler.NewForm)
			r.Post("/new", leadsHandler.Create)
			r.Get("/export.xlsx", leadsHandler.Export)
			r.Get("/{id}", leadsHandler.Detail)
			r.Get("/{id}/edit", leadsHandler.EditForm)
			r.Post("/{id}/edit", leadsHandler.Update)
			r.Post("/{id}/delete", leadsHandler.Delete)
			r.Post("/{id}/interactions", leadsHandler.AddInteraction)
		})

		r.Get("/courses", catalogHandler.Courses)
		r.Get("/origins", catalogHandler.Origins)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(catalogRoles...))
			r.Post("/courses", catalogHandler.CreateCourse)
			r.Post("/courses/{id}", catalogHandler.UpdateCourse)
			r.Post("/courses/{id}/delete", catalogHandler.DeleteCourse)
			r.Post("/origins", catalogHandler.CreateOrigin)
			r.Post("/origins/{id}", catalogHandler.UpdateOrigin)
			r.Post("/origins/{id}/delete", catalogHandler.DeleteOrigin)
		})

		r.Get("/settings", settingsHandler.Page)
		r.Post("/settings/profile", settingsHandler.UpdateProfile)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Get("/users", usersHandler.List)
			r.Post("/users/{id}/role", usersHandler.UpdateRole)
			r.Post("/settings/temperature", settingsHandler.UpdateTemperature)
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/me", apiHandler.GetMe)
			r.Get("/dashboard", dashboardHandler.API)
			r.Get("/conversions", conversionsHandler.API)
			r.Get("/courses", apiHandler.GetCourses)
		})
	})
}
