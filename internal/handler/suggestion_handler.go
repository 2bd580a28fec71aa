package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muni-digital/gestion-api/internal/service"
	"github.com/muni-digital/gestion-api/pkg/response"
)

// SuggestionHandler exposes the assignment suggestion lookup.
type SuggestionHandler struct {
	service *service.SuggestionService
}

// NewSuggestionHandler creates a new handler.
func NewSuggestionHandler(svc *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{service: svc}
}

// Suggest godoc
// @Summary Assignment suggestion
// @Description Suggested departments and employees for a request; empty when the engine is unavailable
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/suggestion [get]
func (h *SuggestionHandler) Suggest(c *gin.Context) {
	suggestion, degraded := h.service.Suggest(c.Request.Context(), c.Param("id"))
	response.JSON(c, http.StatusOK, suggestion, nil, map[string]interface{}{
		"degraded": degraded,
	})
}
