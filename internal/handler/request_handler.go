package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/muni-digital/gestion-api/internal/dto"
	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/internal/service"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
	"github.com/muni-digital/gestion-api/pkg/response"
)

// RequestHandler exposes the mirrored listing and the lifecycle actions.
type RequestHandler struct {
	service *service.RequestService
}

// NewRequestHandler creates a new handler.
func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{service: svc}
}

// List godoc
// @Summary List requests
// @Description List the mirrored reclamos and trámites
// @Tags Requests
// @Produce json
// @Param type query string false "reclamo or tramite"
// @Param status query string false "Status filter"
// @Param search query string false "Free text over id, category and address"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	requestType, err := service.ParseType(c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := models.RequestFilter{
		Type:   requestType,
		Search: strings.TrimSpace(c.Query("search")),
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filter.Status = models.Status(strings.ToLower(status))
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	items, pagination := h.service.List(filter)
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	entity, err := h.service.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entity, nil, map[string]interface{}{
		"in_flight": h.service.InFlight(entity.ID),
	})
}

// History godoc
// @Summary Request history
// @Description Proxy the server-owned history of a request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /requests/{id}/history [get]
func (h *RequestHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Refresh godoc
// @Summary Refresh the mirror
// @Description Replace the mirror with the upstream listing
// @Tags Requests
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /requests/refresh [post]
func (h *RequestHandler) Refresh(c *gin.Context) {
	if err := h.service.Hydrate(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Accept godoc
// @Summary Accept a request
// @Description Confirm intake, optionally pre-assigning a department
// @Tags Actions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.AcceptRequest true "Accept payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/accept [post]
func (h *RequestHandler) Accept(c *gin.Context) {
	var req dto.AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid accept payload"))
		return
	}
	applied, _, err := h.service.Accept(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, applied)
}

// Assign godoc
// @Summary Assign a request
// @Description Hand the request to a department or employee, optionally scheduling a visit block
// @Tags Actions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.AssignRequest true "Assign payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/assign [post]
func (h *RequestHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assign payload"))
		return
	}
	applied, _, err := h.service.Assign(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, applied)
}

// Start godoc
// @Summary Start work on a request
// @Tags Actions
// @Produce json
// @Param id path string true "Request ID"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/start [post]
func (h *RequestHandler) Start(c *gin.Context) {
	applied, _, err := h.service.Start(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, applied)
}

// Resolve godoc
// @Summary Resolve a request
// @Description Advance toward the successful terminal state
// @Tags Actions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ResolveRequest true "Resolve payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/resolve [post]
func (h *RequestHandler) Resolve(c *gin.Context) {
	var req dto.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolve payload"))
		return
	}
	applied, _, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, applied)
}

// Reject godoc
// @Summary Reject a request
// @Tags Actions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RejectRequest true "Reject payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reject payload"))
		return
	}
	applied, _, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, applied)
}

// Revert godoc
// @Summary Revert a request to assigned
// @Description Send an in-execution request back to its assignee
// @Tags Actions
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RevertRequest true "Revert payload"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/revert [post]
func (h *RequestHandler) Revert(c *gin.Context) {
	var req dto.RevertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid revert payload"))
		return
	}
	applied, _, err := h.service.Revert(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, applied)
}
