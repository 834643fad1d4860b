package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-signal-board/internal/models"
	appErrors "github.com/noah-isme/classroom-signal-board/pkg/errors"
	"github.com/noah-isme/classroom-signal-board/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatPDF  = "pdf"
	ExportFormatXLSX = "xlsx"
)

var exportHeaders = []string{"Student", "Request", "Category", "Priority", "Status", "Time"}

// ExportResult is a rendered download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the teacher board as a downloadable document.
type ExportService struct {
	store     *BoardStore
	exporters map[string]export.Exporter
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with CSV, PDF and XLSX renderers.
func NewExportService(store *BoardStore, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		store: store,
		exporters: map[string]export.Exporter{
			ExportFormatCSV:  export.NewCSVExporter(),
			ExportFormatPDF:  export.NewPDFExporter(),
			ExportFormatXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Export renders every request, sorted as the teacher board shows them.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	exporter, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	body, err := exporter.Render(BuildExportDataset(SortRecords(records), format != ExportFormatPDF))
	if err != nil {
		s.logger.Error("failed to render export", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	return &ExportResult{
		Filename:    fmt.Sprintf("requests-%s.%s", s.now().UTC().Format("20060102-150405"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

// BuildExportDataset flattens records into export rows. Icons are only
// included when the target format can render them.
func BuildExportDataset(records []models.RequestRecord, withIcons bool) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		request := record.Message
		if withIcons && record.Icon != "" {
			request = record.Icon + " " + record.Message
		}
		rows = append(rows, map[string]string{
			"Student":  record.StudentName,
			"Request":  request,
			"Category": string(record.Category),
			"Priority": strconv.Itoa(record.Priority),
			"Status":   record.Status.Label(),
			"Time":     record.DisplayTime,
		})
	}
	return export.Dataset{Title: "Classroom requests", Headers: exportHeaders, Rows: rows}
}
