package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/internal/service"
	"github.com/muni-digital/gestion-api/pkg/response"
)

// ExportHandler serves listing downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// RequestsCSV godoc
// @Summary Export listing as CSV
// @Tags Exports
// @Produce text/csv
// @Param type query string false "reclamo or tramite"
// @Param status query string false "Status filter"
// @Success 200 {file} file
// @Router /exports/requests.csv [get]
func (h *ExportHandler) RequestsCSV(c *gin.Context) {
	h.render(c, "csv")
}

// RequestsPDF godoc
// @Summary Export listing as PDF
// @Tags Exports
// @Produce application/pdf
// @Param type query string false "reclamo or tramite"
// @Param status query string false "Status filter"
// @Success 200 {file} file
// @Router /exports/requests.pdf [get]
func (h *ExportHandler) RequestsPDF(c *gin.Context) {
	h.render(c, "pdf")
}

func (h *ExportHandler) render(c *gin.Context, format string) {
	requestType, err := service.ParseType(c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.RequestFilter{Type: requestType}
	if status := c.Query("status"); status != "" {
		filter.Status = models.Status(status)
	}

	doc, err := h.service.ExportRequests(filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(200, doc.ContentType, doc.Content)
}
