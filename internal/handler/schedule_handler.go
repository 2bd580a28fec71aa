package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/muni-digital/gestion-api/internal/dto"
	"github.com/muni-digital/gestion-api/internal/service"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
	"github.com/muni-digital/gestion-api/pkg/response"
)

// ScheduleHandler exposes employee availability lookups and the per-operator
// scheduling session.
type ScheduleHandler struct {
	service  *service.ScheduleService
	sessions *service.SessionRegistry
}

// NewScheduleHandler creates a new handler.
func NewScheduleHandler(svc *service.ScheduleService, sessions *service.SessionRegistry) *ScheduleHandler {
	return &ScheduleHandler{service: svc, sessions: sessions}
}

// Availability godoc
// @Summary Employee availability
// @Description Occupied blocks for an employee on a date; search_next walks forward to the first date with capacity
// @Tags Schedule
// @Produce json
// @Param employee_id query string true "Employee ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param search_next query bool false "Skip to the next date with capacity"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /availability [get]
func (h *ScheduleHandler) Availability(c *gin.Context) {
	employeeID := strings.TrimSpace(c.Query("employee_id"))
	date := strings.TrimSpace(c.Query("date"))
	if employeeID == "" || date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "employee_id and date are required"))
		return
	}

	if c.Query("search_next") == "true" {
		snapshot, shifted, err := h.service.FindNextAvailable(c.Request.Context(), employeeID, date)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, snapshot, nil, map[string]interface{}{
			"shifted": shifted,
		})
		return
	}

	snapshot, err := h.service.Availability(c.Request.Context(), employeeID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

func (h *ScheduleHandler) session(c *gin.Context) (*service.AssignmentSession, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return h.sessions.Session(claims.UserID), true
}

// Select godoc
// @Summary Select employee and date
// @Description Start or re-aim the scheduling session; the availability fetch fires after the quiet window and the previous snapshot is discarded immediately
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.SelectionRequest true "Selection"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule/selection [put]
func (h *ScheduleHandler) Select(c *gin.Context) {
	var req dto.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid selection payload"))
		return
	}
	if strings.TrimSpace(req.EmployeeID) == "" || strings.TrimSpace(req.Date) == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "employee_id and date are required"))
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	// the debounced fetch outlives this request
	session.Select(context.Background(), req.EmployeeID, req.Date)
	response.JSON(c, http.StatusAccepted, session.State(), nil)
}

// Propose godoc
// @Summary Propose a time block
// @Description Validate a block against the session's availability snapshot; a conflict disables confirmation but is reported in the state, not as an error
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.ProposalRequest true "Proposed block"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule/proposal [put]
func (h *ScheduleHandler) Propose(c *gin.Context) {
	var req dto.ProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid proposal payload"))
		return
	}
	session, ok := h.session(c)
	if !ok {
		return
	}
	session.Propose(req.Start, req.Duration) //nolint:errcheck
	response.JSON(c, http.StatusOK, session.State(), nil)
}

// Session godoc
// @Summary Scheduling session state
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule/session [get]
func (h *ScheduleHandler) Session(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, session.State(), nil)
}

// ClearSession godoc
// @Summary Discard the scheduling session
// @Tags Schedule
// @Success 204
// @Security BearerAuth
// @Router /schedule/session [delete]
func (h *ScheduleHandler) ClearSession(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	h.sessions.Drop(claims.UserID)
	response.NoContent(c)
}
