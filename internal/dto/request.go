package dto

// ScheduleInput is the proposed time block attached to an assignment.
type ScheduleInput struct {
	Date     string  `json:"date" validate:"required"`
	Start    string  `json:"start" validate:"required"`
	Duration float64 `json:"duration" validate:"required,gt=0"`
}

// SelectionRequest picks the (employee, date) pair for the operator's
// scheduling session.
type SelectionRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
}

// ProposalRequest proposes a time block within the current selection.
type ProposalRequest struct {
	Start    string  `json:"start" validate:"required"`
	Duration float64 `json:"duration" validate:"required,gt=0"`
}

// AcceptRequest confirms intake of a request. An assignee may be pre-selected
// at intake (e.g. a department that obviously owns the category).
type AcceptRequest struct {
	Comment    string `json:"comment" validate:"required"`
	Estimate   string `json:"estimate,omitempty"`
	AssigneeID string `json:"assignee_id,omitempty"`
}

// AssignRequest hands the request to a department or employee.
type AssignRequest struct {
	AssigneeID string         `json:"assignee_id" validate:"required"`
	Schedule   *ScheduleInput `json:"schedule,omitempty"`
	Comment    string         `json:"comment,omitempty"`
}

// ResolveRequest closes the request successfully.
type ResolveRequest struct {
	Resolution string `json:"resolution" validate:"required"`
}

// RejectRequest closes the request as rejected.
type RejectRequest struct {
	ReasonCode  string `json:"reason_code" validate:"required"`
	Description string `json:"description,omitempty"`
}

// RevertRequest sends an in-execution request back to its assigned state.
type RevertRequest struct {
	Comment string `json:"comment" validate:"required"`
}
