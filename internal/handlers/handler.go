// Package handlers serves the CRM pages and the small JSON API behind the charts.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"lead-crm/internal/auth"
	"lead-crm/internal/cache"
	"lead-crm/internal/config"
	"lead-crm/internal/middleware"
	"lead-crm/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// Deps is shared by every handler.
type Deps struct {
	Config   *config.Config
	Store    *models.Store
	Cache    cache.Cache
	Auth     auth.Provider
	Sessions sessions.Store
	Logger   *slog.Logger
	Now      func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deps) location() *time.Location {
	if d.Config == nil {
		return time.Local
	}
	return d.Config.Location()
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func formUUID(r *http.Request, field string) uuid.UUID {
	id, err := uuid.Parse(r.FormValue(field))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// invalidate drops cached lists after a mutation. A cache outage only costs
// freshness, so errors are logged.
func (d *Deps) invalidate(ctx context.Context, namespaces ...string) {
	if err := d.Cache.Invalidate(ctx, namespaces...); err != nil {
		d.Logger.Warn("cache invalidation failed", "namespaces", namespaces, "error", err)
	}
}

func (d *Deps) success(w http.ResponseWriter, r *http.Request, title, description string) {
	middleware.Success(w, r, d.Sessions, title, description)
}

// failure flashes a destructive notification. Unexpected errors are logged
// and replaced with a generic message.
func (d *Deps) failure(w http.ResponseWriter, r *http.Request, title string, err error) {
	middleware.Failure(w, r, d.Sessions, title, publicError(d.Logger, err))
}

// publicError keeps messages meant for users and hides driver errors.
func publicError(logger *slog.Logger, err error) error {
	var validation *models.ValidationError
	var exists *models.AlreadyExistsError
	switch {
	case errors.As(err, &validation):
		msgs := make([]string, 0, len(validation.Fields))
		for _, m := range validation.Fields {
			msgs = append(msgs, m)
		}
		sort.Strings(msgs)
		return errors.New(strings.Join(msgs, ". "))
	case errors.As(err, &exists):
		return err
	case errors.Is(err, models.ErrInUse):
		return models.ErrInUse
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	}
	logger.Error("request failed", "error", err)
	return errors.New("Erro inesperado. Tente novamente.")
}

// fieldErrors extracts per-field messages for re-rendered forms.
func fieldErrors(err error) map[string]string {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		return validation.Fields
	}
	return nil
}

func (d *Deps) serverError(w http.ResponseWriter, msg string, err error) {
	d.Logger.Error(msg, "error", err)
	http.Error(w, "Erro ao carregar os dados", http.StatusInternalServerError)
}

// catalog is the lookup data used by lead forms and filters, cached together.
type catalog struct {
	Courses     []*models.Course     `json:"courses"`
	Origins     []*models.Origin     `json:"origins"`
	CourseTypes []*models.CourseType `json:"courseTypes"`
	Stages      []*models.Stage      `json:"stages"`
}

func (d *Deps) catalog(ctx context.Context) (*catalog, error) {
	return cache.Fetch(ctx, d.Cache, d.Logger, cache.NamespaceCatalog, "all", func(ctx context.Context) (*catalog, error) {
		c := &catalog{}
		var err error
		if c.Courses, err = d.Store.ListCourses(ctx); err != nil {
			return nil, err
		}
		if c.Origins, err = d.Store.ListOrigins(ctx); err != nil {
			return nil, err
		}
		if c.CourseTypes, err = d.Store.ListCourseTypes(ctx); err != nil {
			return nil, err
		}
		if c.Stages, err = d.Store.ListStages(ctx); err != nil {
			return nil, err
		}
		return c, nil
	})
}
