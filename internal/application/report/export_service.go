package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmacy/analytics/internal/application/filter"
	"github.com/pharmacy/analytics/internal/domain/shared"
	"github.com/pharmacy/analytics/internal/infrastructure/logger"
)

// Kind names an export
type Kind string

// Export kinds
const (
	KindComplete        Kind = "complete"
	KindRevenue         Kind = "revenue"
	KindPayment         Kind = "payment"
	KindGrowth          Kind = "growth"
	KindInventorySearch Kind = "inventory-search"
)

// Kinds lists every export in menu order
var Kinds = []Kind{KindComplete, KindRevenue, KindPayment, KindGrowth, KindInventorySearch}

// CodeUnknownExport is returned for an unrecognized export kind
const CodeUnknownExport = "UNKNOWN_EXPORT"

// ErrUnknownExport is returned for an unrecognized export kind
var ErrUnknownExport = shared.NewDomainError(CodeUnknownExport, "Unknown export kind")

// ParseKind validates an export kind
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownExport.WithDetails(map[string]any{"kind": s})
}

// Filename renders the download name for a kind at a local time
func (k Kind) Filename(at time.Time) string {
	switch k {
	case KindComplete:
		return "pharmacy_complete_report_" + at.Format("20060102_1504") + ".xlsx"
	case KindRevenue:
		return "revenue_detailed_report_" + at.Format("20060102_1504") + ".xlsx"
	case KindPayment:
		return "payment_analysis_" + at.Format("20060102_1504") + ".xlsx"
	case KindGrowth:
		return "growth_analysis_" + at.Format("20060102_1504") + ".xlsx"
	case KindInventorySearch:
		return "inventory_purchase_report_" + at.Format("20060102_150405") + ".xlsx"
	default:
		return string(k) + "_" + at.Format("20060102_1504") + ".xlsx"
	}
}

// Export is a rendered report ready for download
type Export struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	Archived    bool      `json:"archived"`
	Body        []byte    `json:"-"`
}

// ExportRequest selects what an export covers
type ExportRequest struct {
	Kind   Kind
	Filter filter.Request
	Search filter.SearchQuery
}

// ExportService renders filtered views to xlsx reports
type ExportService struct {
	snapshots SnapshotSource
	writer    WorkbookWriter
	archive   Archive
	now       func() time.Time
	logger    *zap.Logger
}

// ExportOption configures an ExportService
type ExportOption func(*ExportService)

// WithArchive uploads every rendered report to archive
func WithArchive(archive Archive) ExportOption {
	return func(s *ExportService) {
		s.archive = archive
	}
}

// WithClock overrides the clock used for file names
func WithClock(now func() time.Time) ExportOption {
	return func(s *ExportService) {
		s.now = now
	}
}

// WithExportLogger sets the logger
func WithExportLogger(logger *zap.Logger) ExportOption {
	return func(s *ExportService) {
		s.logger = logger
	}
}

// NewExportService creates an ExportService
func NewExportService(snapshots SnapshotSource, writer WorkbookWriter, opts ...ExportOption) *ExportService {
	s := &ExportService{
		snapshots: snapshots,
		writer:    writer,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assemble builds the sheets for a kind over a filtered view
func Assemble(kind Kind, v filter.View, search filter.SearchQuery) (Workbook, error) {
	switch kind {
	case KindComplete:
		return CompleteWorkbook(v), nil
	case KindRevenue:
		return RevenueWorkbook(v), nil
	case KindPayment:
		return PaymentWorkbook(v), nil
	case KindGrowth:
		return GrowthWorkbook(v), nil
	case KindInventorySearch:
		return InventorySearchWorkbook(filter.SearchInventory(v.Inventory, search)), nil
	default:
		return Workbook{}, ErrUnknownExport.WithDetails(map[string]any{"kind": string(kind)})
	}
}

// Export renders one report. Archive failures are logged and do not fail the export.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*Export, error) {
	ds, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	v, err := filter.Apply(ds, req.Filter)
	if err != nil {
		return nil, err
	}
	wb, err := Assemble(req.Kind, v, req.Search)
	if err != nil {
		return nil, err
	}
	body, err := s.writer.Write(wb)
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", req.Kind, err)
	}

	now := s.now().Local()
	out := &Export{
		ID:          uuid.New().String(),
		Kind:        req.Kind,
		Filename:    req.Kind.Filename(now),
		ContentType: SpreadsheetMIME,
		CreatedAt:   now,
		Body:        body,
	}

	log := logger.ForRequest(ctx, s.logger).With(
		zap.String("export_id", out.ID),
		zap.String("kind", string(out.Kind)),
		zap.String("filename", out.Filename),
	)

	if s.archive != nil {
		key := ArchiveKey(now, out.Filename)
		if err := s.archive.Put(ctx, key, out.ContentType, body); err != nil {
			log.Error("Failed to archive report", zap.String("key", key), zap.Error(err))
		} else {
			out.Archived = true
		}
	}

	log.Info("Report exported",
		zap.Int("bytes", len(body)),
		zap.Int("sheets", len(wb.Sheets)),
		zap.Bool("archived", out.Archived),
		zap.Bool("empty_view", v.Empty()),
	)
	return out, nil
}
