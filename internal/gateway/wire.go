package gateway

import (
	"strings"
	"time"

	"github.com/muni-digital/gestion-api/internal/models"
)

// The upstream speaks UPPER_CASE tokens for statuses and request types. All
// normalization between wire form and the canonical lower-case internal form
// happens here, exactly once per crossing; both directions are idempotent.

type wireAssignment struct {
	AssigneeID     string `json:"assignee_id"`
	ScheduledDate  string `json:"scheduled_date,omitempty"`
	ScheduledStart string `json:"scheduled_start,omitempty"`
	ScheduledEnd   string `json:"scheduled_end,omitempty"`
	Comment        string `json:"comment,omitempty"`
}

type wireRejection struct {
	ReasonCode  string `json:"reason_code"`
	Description string `json:"description,omitempty"`
}

type wireRequest struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	CategoryRef string          `json:"category_ref"`
	Description string          `json:"description,omitempty"`
	Address     string          `json:"address,omitempty"`
	Assignment  *wireAssignment `json:"assignment,omitempty"`
	Resolution  *string         `json:"resolution,omitempty"`
	Rejection   *wireRejection  `json:"rejection,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type wireHistoryEntry struct {
	At      time.Time `json:"at"`
	Status  string    `json:"status"`
	Actor   string    `json:"actor,omitempty"`
	Comment string    `json:"comment,omitempty"`
}

type wireAvailability struct {
	EmployeeID     string                 `json:"employee_id"`
	Date           string                 `json:"date"`
	OccupiedBlocks []models.OccupiedBlock `json:"occupied_blocks"`
	WorkdayEnd     string                 `json:"workday_end"`
	NextAvailable  string                 `json:"next_available"`
	DayIsFull      bool                   `json:"day_is_full"`
}

type wireSuggestion struct {
	TopRecommendation *models.Candidate  `json:"top_recommendation"`
	RankedCandidates  []models.Candidate `json:"ranked_candidates"`
}

func decodeType(raw string) models.RequestType {
	if strings.EqualFold(strings.TrimSpace(raw), "TRAMITE") {
		return models.TypeTramite
	}
	return models.TypeReclamo
}

func (w wireRequest) toModel() models.Request {
	t := decodeType(w.Type)
	req := models.Request{
		ID:          w.ID,
		Type:        t,
		Status:      models.NormalizeStatus(t, w.Status),
		CategoryRef: w.CategoryRef,
		Description: w.Description,
		Address:     w.Address,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
	if w.Assignment != nil {
		req.Assignment = &models.Assignment{
			AssigneeID:     w.Assignment.AssigneeID,
			ScheduledDate:  w.Assignment.ScheduledDate,
			ScheduledStart: w.Assignment.ScheduledStart,
			ScheduledEnd:   w.Assignment.ScheduledEnd,
			Comment:        w.Assignment.Comment,
		}
	}
	if w.Resolution != nil {
		v := *w.Resolution
		req.Resolution = &v
	}
	if w.Rejection != nil {
		req.Rejection = &models.Rejection{
			ReasonCode:  w.Rejection.ReasonCode,
			Description: w.Rejection.Description,
		}
	}
	return req
}

func (w wireHistoryEntry) toModel(t models.RequestType) models.HistoryEntry {
	return models.HistoryEntry{
		At:      w.At,
		Status:  models.NormalizeStatus(t, w.Status),
		Actor:   w.Actor,
		Comment: w.Comment,
	}
}

func (w wireAvailability) toModel() models.AvailabilitySnapshot {
	blocks := w.OccupiedBlocks
	if blocks == nil {
		blocks = []models.OccupiedBlock{}
	}
	return models.AvailabilitySnapshot{
		EmployeeID:     w.EmployeeID,
		Date:           w.Date,
		OccupiedBlocks: blocks,
		WorkdayEnd:     w.WorkdayEnd,
		NextAvailable:  w.NextAvailable,
		DayIsFull:      w.DayIsFull,
	}
}

func (w wireSuggestion) toModel() models.AssignmentSuggestion {
	candidates := w.RankedCandidates
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	return models.AssignmentSuggestion{
		TopRecommendation: w.TopRecommendation,
		RankedCandidates:  candidates,
	}
}
