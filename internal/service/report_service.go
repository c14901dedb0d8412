package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/marketplace-payments/internal/config"
	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/ports"
)

type ReportRenderer interface {
	Generate(report model.RevenueReport) ([]byte, error)
}

type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatPDF  ExportFormat = "pdf"
)

type ReportService struct {
	repo         ports.ReportRepository
	excel        ReportRenderer
	pdf          ReportRenderer
	metric       model.ProfessionMetric
	defaultLimit int
	maxLimit     int
}

type ReportQuery struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Limit       int
}

type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

func NewReportService(repo ports.ReportRepository, excel, pdf ReportRenderer, cfg *config.Config) *ReportService {
	return &ReportService{
		repo:         repo,
		excel:        excel,
		pdf:          pdf,
		metric:       model.ProfessionMetric(cfg.Reports.ProfessionMetric),
		defaultLimit: cfg.Reports.BestClientsLimit,
		maxLimit:     cfg.Reports.MaxLimit,
	}
}

// BestProfession returns the contractor profession with the highest aggregate
// over paid jobs created inside the period.
func (s *ReportService) BestProfession(ctx context.Context, query ReportQuery) (*model.ProfessionEarnings, error) {
	if err := validatePeriod(query); err != nil {
		return nil, err
	}
	best, err := s.repo.BestProfession(ctx, query.PeriodStart, query.PeriodEnd, s.metric)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no paid jobs in period", ErrNotFound)
		}
		return nil, err
	}
	return best, nil
}

// BestClients returns the clients that paid the most inside the period.
func (s *ReportService) BestClients(ctx context.Context, query ReportQuery) ([]model.ClientSpending, error) {
	if err := validatePeriod(query); err != nil {
		return nil, err
	}
	limit, err := s.resolveLimit(query.Limit)
	if err != nil {
		return nil, err
	}
	clients, err := s.repo.BestClients(ctx, query.PeriodStart, query.PeriodEnd, limit)
	if err != nil {
		return nil, err
	}
	if clients == nil {
		clients = []model.ClientSpending{}
	}
	return clients, nil
}

func (s *ReportService) ExportRevenueReport(ctx context.Context, query ReportQuery, format ExportFormat) (*ExportResult, error) {
	var (
		renderer    ReportRenderer
		contentType string
	)
	switch format {
	case ExportFormatXLSX:
		renderer = s.excel
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportFormatPDF:
		renderer = s.pdf
		contentType = "application/pdf"
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidInput, format)
	}

	clients, err := s.BestClients(ctx, query)
	if err != nil {
		return nil, err
	}
	best, err := s.BestProfession(ctx, query)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	report := model.RevenueReport{
		PeriodStart:    query.PeriodStart,
		PeriodEnd:      query.PeriodEnd,
		Metric:         s.metric,
		BestProfession: best,
		Clients:        clients,
	}

	content, err := renderer.Generate(report)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		FileName:    buildFileName(report, format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *ReportService) resolveLimit(limit int) (int, error) {
	if limit == 0 {
		return s.defaultLimit, nil
	}
	if limit < 1 || limit > s.maxLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, s.maxLimit)
	}
	return limit, nil
}

func validatePeriod(query ReportQuery) error {
	if query.PeriodStart.IsZero() || query.PeriodEnd.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidInput)
	}
	if query.PeriodStart.After(query.PeriodEnd) {
		return fmt.Errorf("%w: start must be before or equal to end", ErrInvalidInput)
	}
	return nil
}

func buildFileName(report model.RevenueReport, format ExportFormat) string {
	period := fmt.Sprintf("%s-%s", report.PeriodStart.Format("20060102"), report.PeriodEnd.Format("20060102"))
	return fmt.Sprintf("revenue-report-%s.%s", period, strings.ToLower(string(format)))
}
