package service

import (
	"context"
	"fmt"

	"stockroom/internal/errors"
	"stockroom/internal/model"
	"stockroom/internal/report"
	"stockroom/internal/repository"
)

// ReportService builds stock and sales reports.
type ReportService interface {
	StockPDF(ctx context.Context) (*report.Document, error)
	Sold(ctx context.Context, unit report.SoldUnit) (*report.SoldReport, error)
}

type reportService struct {
	repo    repository.ProductRepository
	pdfOpts []report.Option
}

// NewReportService creates a new report service.
func NewReportService(repo repository.ProductRepository, pdfOpts ...report.Option) ReportService {
	return &reportService{repo: repo, pdfOpts: pdfOpts}
}

// StockPDF renders the in-stock products.
func (s *reportService) StockPDF(ctx context.Context) (*report.Document, error) {
	products, err := s.repo.List(ctx, model.ProductFilter{InStockOnly: true})
	if err != nil {
		return nil, err
	}
	doc, err := report.StockPDF(products, s.pdfOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrIOFailure, err)
	}
	return doc, nil
}

// Sold aggregates products with a recorded sale, most recent first.
func (s *reportService) Sold(ctx context.Context, unit report.SoldUnit) (*report.SoldReport, error) {
	unit, ok := report.ParseSoldUnit(string(unit))
	if !ok {
		return nil, fmt.Errorf("%w: unknown unit", errors.ErrValidation)
	}
	products, err := s.repo.ListSold(ctx)
	if err != nil {
		return nil, err
	}
	rep := report.Sold(products, unit)
	return &rep, nil
}
