package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/pagination"
)

// TopProductsBounds are the default and maximum sizes of the top products report.
var TopProductsBounds = pagination.Bounds{Default: 10, Max: 100}

// ReportService computes sales reports.
type ReportService struct {
	repo     repository.ReportRepository
	settings Settings
	logger   *slog.Logger
}

// NewReportService creates a new report service.
func NewReportService(repo repository.ReportRepository, settings Settings, logger *slog.Logger) *ReportService {
	return &ReportService{
		repo:     repo,
		settings: settings,
		logger:   logger,
	}
}

// TopProducts returns the best-selling products by units across orders that
// were not cancelled.
func (s *ReportService) TopProducts(ctx context.Context, limit int) ([]domain.ProductSales, error) {
	ctx, cancel := s.settings.storeContext(ctx)
	defer cancel()

	rows, err := s.repo.TopProducts(ctx, TopProductsBounds.Clamp(limit))
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return rows, nil
}
