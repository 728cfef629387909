package handlers

import (
	"context"
	"fmt"
	"time"

	"lead-crm/internal/cache"
	"lead-crm/internal/models"
)

// cachedSource serves dashboard.Source and dashboard.ConversionSource through
// the cache. Raw rows are cached and reduced on every request, so relative
// times and period buckets stay current.
type cachedSource struct {
	d *Deps
}

func rangeKey(r models.DateRange) string {
	key := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return key(r.From) + "|" + key(r.To)
}

func (s cachedSource) DashboardLeads(ctx context.Context, r models.DateRange) ([]*models.DashboardRow, error) {
	return cache.Fetch(ctx, s.d.Cache, s.d.Logger, cache.NamespaceDashboard, "leads:"+rangeKey(r), func(ctx context.Context) ([]*models.DashboardRow, error) {
		return s.d.Store.DashboardLeads(ctx, r)
	})
}

func (s cachedSource) ListRecentInteractions(ctx context.Context, limit int) ([]*models.Interaction, error) {
	key := fmt.Sprintf("activity:%d", limit)
	return cache.Fetch(ctx, s.d.Cache, s.d.Logger, cache.NamespaceDashboard, key, func(ctx context.Context) ([]*models.Interaction, error) {
		return s.d.Store.ListRecentInteractions(ctx, limit)
	})
}

func (s cachedSource) ListStages(ctx context.Context) ([]*models.Stage, error) {
	c, err := s.d.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.Stages, nil
}

func (s cachedSource) ListCourses(ctx context.Context) ([]*models.Course, error) {
	c, err := s.d.catalog(ctx)
	if err != nil {
		return nil, err
	}
	return c.Courses, nil
}

func (s cachedSource) ConversionRows(ctx context.Context, q models.ConversionQuery) ([]*models.ConversionRow, error) {
	key := fmt.Sprintf("%s|%s|%s", q.Since.UTC().Format(time.RFC3339), q.CourseType, q.CourseID)
	return cache.Fetch(ctx, s.d.Cache, s.d.Logger, cache.NamespaceConversions, key, func(ctx context.Context) ([]*models.ConversionRow, error) {
		return s.d.Store.ConversionRows(ctx, q)
	})
}
