package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muni-digital/gestion-api/internal/models"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
	"github.com/muni-digital/gestion-api/pkg/export"
)

type exportLister interface {
	List(filter models.RequestFilter) ([]models.Request, int)
}

// ExportDocument bundles rendered bytes with download metadata.
type ExportDocument struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the mirrored listing as CSV or PDF downloads.
type ExportService struct {
	lister exportLister
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(lister exportLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		lister: lister,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

var exportHeaders = []string{"id", "tipo", "estado", "categoria", "direccion", "asignado_a", "fecha_programada", "creado"}

// ExportRequests renders the filtered listing in the requested format.
func (s *ExportService) ExportRequests(filter models.RequestFilter, format string) (*ExportDocument, error) {
	items, total := s.lister.List(filter)
	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(items))}
	for _, item := range items {
		row := map[string]string{
			"id":        item.ID,
			"tipo":      string(item.Type),
			"estado":    string(item.Status),
			"categoria": item.CategoryRef,
			"direccion": item.Address,
			"creado":    item.CreatedAt.Format("2006-01-02 15:04"),
		}
		if item.Assignment != nil {
			row["asignado_a"] = item.Assignment.AssigneeID
			if item.Assignment.ScheduledDate != "" {
				row["fecha_programada"] = fmt.Sprintf("%s %s-%s",
					item.Assignment.ScheduledDate, item.Assignment.ScheduledStart, item.Assignment.ScheduledEnd)
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch strings.ToLower(format) {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		s.logger.Info("listing exported", zap.String("format", "csv"), zap.Int("rows", len(items)), zap.Int("total", total))
		return &ExportDocument{
			Filename:    fmt.Sprintf("solicitudes-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, "Listado de solicitudes")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		s.logger.Info("listing exported", zap.String("format", "pdf"), zap.Int("rows", len(items)), zap.Int("total", total))
		return &ExportDocument{
			Filename:    fmt.Sprintf("solicitudes-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
