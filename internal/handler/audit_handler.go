package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/internal/service"
	"github.com/muni-digital/gestion-api/pkg/response"
)

// AuditHandler exposes the local lifecycle audit trail.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler creates a new handler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// Actions godoc
// @Summary List audit lines
// @Description List what this back office did to requests, newest first
// @Tags Audit
// @Produce json
// @Param request_id query string false "Request ID filter"
// @Param action query string false "Action filter"
// @Param outcome query string false "APPLIED, CONFIRMED or ROLLED_BACK"
// @Param limit query int false "Max lines (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /audit/actions [get]
func (h *AuditHandler) Actions(c *gin.Context) {
	filter := models.ActionLogFilter{
		RequestID: strings.TrimSpace(c.Query("request_id")),
		Action:    strings.ToLower(strings.TrimSpace(c.Query("action"))),
		Outcome:   strings.TrimSpace(c.Query("outcome")),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Stats godoc
// @Summary Audit outcome summary
// @Description Count action outcomes over a trailing window of days
// @Tags Audit
// @Produce json
// @Param days query int false "Window in days (default 7)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /audit/stats [get]
func (h *AuditHandler) Stats(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days <= 0 {
		days = 7
	}
	counts, err := h.service.Stats(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil, map[string]interface{}{
		"window_days": days,
	})
}
