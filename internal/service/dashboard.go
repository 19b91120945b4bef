package service

import (
	"context"
	"time"

	"github.com/khalilvb06/ecm/internal/infra/observability"
	"github.com/khalilvb06/ecm/internal/port"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardService aggregates the back-office overview. The four counts hit
// independent tables, so they run concurrently; one failure fails the whole
// overview rather than rendering partial numbers.
type DashboardService struct {
	catalog port.CatalogStore
	orders  port.OrderStore
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(catalog port.CatalogStore, orders port.OrderStore, logger *zap.Logger, metrics *observability.Metrics) *DashboardService {
	return &DashboardService{
		catalog: catalog,
		orders:  orders,
		logger:  logger,
		metrics: metrics,
	}
}

// Overview is the dashboard payload: store-level counts plus the service's
// own operational counters.
type Overview struct {
	Products   int64                   `json:"products"`
	Categories int64                   `json:"categories"`
	Orders     int64                   `json:"orders"`
	AdPixels   int64                   `json:"ad_pixels"`
	Service    *observability.Snapshot `json:"service"`
}

// GetOverview fetches all dashboard counts concurrently.
func (s *DashboardService) GetOverview(ctx context.Context, storeID int64) (*Overview, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.GetOverview")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard_overview", time.Since(start)) }()

	var overview Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.catalog.CountProducts(gctx, storeID)
		overview.Products = n
		return err
	})
	g.Go(func() error {
		n, err := s.catalog.CountCategories(gctx, storeID)
		overview.Categories = n
		return err
	})
	g.Go(func() error {
		n, err := s.orders.CountOrders(gctx, storeID)
		overview.Orders = n
		return err
	})
	g.Go(func() error {
		n, err := s.catalog.CountAdPixels(gctx, storeID)
		overview.AdPixels = n
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("dashboard: overview aggregation failed", zap.Int64("store_id", storeID), zap.Error(err))
		return nil, err
	}

	overview.Service = s.metrics.GetSnapshot()
	return &overview, nil
}
