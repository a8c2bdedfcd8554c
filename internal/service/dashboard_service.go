package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fh-academy-api/internal/authoring"
	"github.com/noah-isme/fh-academy-api/internal/models"
	appErrors "github.com/noah-isme/fh-academy-api/pkg/errors"
)

const dashboardStatsKey = "dashboard:stats"

type dashboardStatsReader interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// DashboardResponse is the admin dashboard with its headline counts.
type DashboardResponse struct {
	authoring.DashboardView
	Stats *models.DashboardStats `json:"stats,omitempty"`
}

// DashboardService renders the admin dashboard for the requesting actor.
type DashboardService struct {
	stats    dashboardStatsReader
	cache    *CacheService
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs a DashboardService. cache and metrics may be nil.
func NewDashboardService(stats dashboardStatsReader, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &DashboardService{stats: stats, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

// View builds the dashboard with tab active, or the default tab when empty.
// The bool reports whether the counts came from cache.
func (s *DashboardService) View(ctx context.Context, actor authoring.Actor, tab string) (*DashboardResponse, bool, error) {
	if !actor.Role.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
	}
	dash := authoring.NewDashboard(actor)
	if dash.AccessDenied() {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "admin dashboard is not available for this role")
	}
	if tab != "" {
		if err := dash.SelectTab(authoring.Tab(tab)); err != nil {
			return nil, false, mapAuthoringError(err)
		}
	}

	resp := &DashboardResponse{DashboardView: dash.View()}
	stats, hit, err := remember(ctx, s.cache, dashboardStatsKey, s.cacheTTL, func(ctx context.Context) (*models.DashboardStats, error) {
		start := time.Now()
		stats, err := s.stats.DashboardStats(ctx)
		s.metrics.ObserveDBQuery("dashboard_stats", time.Since(start))
		return stats, err
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}
	resp.Stats = stats
	return resp, hit, nil
}
