package models

import "time"

// Assignment captures who a request was handed to and when the work is booked.
type Assignment struct {
	AssigneeID     string `json:"assignee_id"`
	ScheduledDate  string `json:"scheduled_date,omitempty"`
	ScheduledStart string `json:"scheduled_start,omitempty"`
	ScheduledEnd   string `json:"scheduled_end,omitempty"`
	Comment        string `json:"comment,omitempty"`
}

// Rejection records why a request was turned down.
type Rejection struct {
	ReasonCode  string `json:"reason_code"`
	Description string `json:"description,omitempty"`
}

// Request is the unifying entity behind reclamos and trámites.
type Request struct {
	ID          string      `json:"id"`
	Type        RequestType `json:"type"`
	Status      Status      `json:"status"`
	CategoryRef string      `json:"category_ref"`
	Description string      `json:"description,omitempty"`
	Address     string      `json:"address,omitempty"`
	Assignment  *Assignment `json:"assignment,omitempty"`
	Resolution  *string     `json:"resolution,omitempty"`
	Rejection   *Rejection  `json:"rejection,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Clone returns a deep copy so optimistic snapshots never alias shared pointers.
func (r Request) Clone() Request {
	cp := r
	if r.Assignment != nil {
		a := *r.Assignment
		cp.Assignment = &a
	}
	if r.Resolution != nil {
		v := *r.Resolution
		cp.Resolution = &v
	}
	if r.Rejection != nil {
		rej := *r.Rejection
		cp.Rejection = &rej
	}
	return cp
}

// Equal compares two requests field for field, including optional sections.
func (r Request) Equal(other Request) bool {
	if r.ID != other.ID || r.Type != other.Type || r.Status != other.Status ||
		r.CategoryRef != other.CategoryRef || r.Description != other.Description ||
		r.Address != other.Address ||
		!r.CreatedAt.Equal(other.CreatedAt) || !r.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}
	switch {
	case (r.Assignment == nil) != (other.Assignment == nil):
		return false
	case r.Assignment != nil && *r.Assignment != *other.Assignment:
		return false
	}
	switch {
	case (r.Resolution == nil) != (other.Resolution == nil):
		return false
	case r.Resolution != nil && *r.Resolution != *other.Resolution:
		return false
	}
	switch {
	case (r.Rejection == nil) != (other.Rejection == nil):
		return false
	case r.Rejection != nil && *r.Rejection != *other.Rejection:
		return false
	}
	return true
}

// HistoryEntry is one server-owned audit line of a request. Read-only here.
type HistoryEntry struct {
	At      time.Time `json:"at"`
	Status  Status    `json:"status"`
	Actor   string    `json:"actor,omitempty"`
	Comment string    `json:"comment,omitempty"`
}

// RequestFilter constrains mirror listings.
type RequestFilter struct {
	Type     RequestType
	Status   Status
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
