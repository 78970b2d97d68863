package services

import (
	"context"

	"finspark-backoffice/internal/core/domain"
	"finspark-backoffice/internal/query"
)

// DashboardService reads the server-computed summary
type DashboardService struct {
	Deps
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(d Deps) *DashboardService {
	return &DashboardService{Deps: d}
}

// Summary returns the dashboard snapshot. It is never retained between
// page loads; concurrent loads still share one request.
func (s *DashboardService) Summary(ctx context.Context) (*domain.DashboardStats, error) {
	return read(ctx, s.Deps, query.K("dashboard", "summary"), "Failed to fetch dashboard stats",
		func(ctx context.Context) (*domain.DashboardStats, error) {
			var out domain.DashboardStats
			if _, err := s.API.Get(ctx, "/dashboard/summary", &out); err != nil {
				return nil, err
			}
			return &out, nil
		}, query.WithTTL(0))
}
