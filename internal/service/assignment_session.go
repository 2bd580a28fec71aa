package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/muni-digital/gestion-api/internal/models"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
)

// AssignmentSession tracks one operator's in-progress scheduling selection:
// the chosen employee and date, the availability snapshot backing them, and
// the proposed block. Any change to the selection discards the snapshot and
// mandates a fresh fetch before Confirm is enabled again; responses from
// superseded fetches are discarded by token.
type AssignmentSession struct {
	mu  sync.Mutex
	svc *ScheduleService
	deb *Debouncer
	log *zap.Logger

	employeeID string
	date       string
	shifted    bool

	snapshot *models.AvailabilitySnapshot
	fetching bool
	fetchErr error

	proposed    *models.TimeBlock
	conflictErr error
}

// NewAssignmentSession builds a session on top of the schedule validator.
func NewAssignmentSession(svc *ScheduleService, logger *zap.Logger) *AssignmentSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentSession{
		svc: svc,
		deb: NewDebouncer(svc.DebounceQuiet()),
		log: logger,
	}
}

// Select records a new (employee, date) choice. The current snapshot is
// invalidated immediately; the fetch fires after the quiet window, and only
// the latest-issued fetch may install its result.
func (s *AssignmentSession) Select(ctx context.Context, employeeID, date string) {
	s.mu.Lock()
	s.employeeID = employeeID
	s.date = date
	s.snapshot = nil
	s.shifted = false
	s.fetchErr = nil
	s.fetching = true
	s.mu.Unlock()

	s.deb.Trigger(func(token uint64) {
		snapshot, shifted, err := s.svc.FindNextAvailable(ctx, employeeID, date)

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.deb.Latest(token) {
			// a newer selection superseded this fetch while it ran
			return
		}
		s.fetching = false
		if err != nil {
			s.fetchErr = err
			s.log.Warn("availability fetch failed", zap.String("employee_id", employeeID), zap.Error(err))
			return
		}
		s.snapshot = snapshot
		s.shifted = shifted
		if shifted {
			s.date = snapshot.Date
		}
		if s.proposed != nil {
			s.revalidateLocked()
		}
	})
}

// Propose validates a candidate block against the current snapshot's
// working-day boundary and remembers the outcome for Confirm gating.
func (s *AssignmentSession) Propose(start string, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposed = &models.TimeBlock{Start: start, Duration: duration}
	s.revalidateLocked()
	return s.conflictErr
}

func (s *AssignmentSession) revalidateLocked() {
	workdayEnd := s.svc.WorkdayEnd()
	if s.snapshot != nil && s.snapshot.WorkdayEnd != "" {
		workdayEnd = s.snapshot.WorkdayEnd
	}
	block, err := s.svc.ValidateBlock(*s.proposed, workdayEnd)
	if err != nil {
		s.conflictErr = err
		return
	}
	s.conflictErr = nil
	s.proposed = &block
}

// ConfirmEnabled reports whether the assignment may be confirmed: a fresh
// snapshot is present, no fetch is in flight, and the proposed block does not
// conflict with the working-day boundary.
func (s *AssignmentSession) ConfirmEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmEnabledLocked()
}

func (s *AssignmentSession) confirmEnabledLocked() bool {
	return s.snapshot != nil && !s.fetching && s.fetchErr == nil && s.proposed != nil && s.conflictErr == nil
}

// SessionState is a point-in-time view of the session for the API.
type SessionState struct {
	EmployeeID     string                       `json:"employee_id"`
	Date           string                       `json:"date"`
	Shifted        bool                         `json:"shifted"`
	Fetching       bool                         `json:"fetching"`
	FetchError     string                       `json:"fetch_error,omitempty"`
	Snapshot       *models.AvailabilitySnapshot `json:"snapshot,omitempty"`
	Proposed       *models.TimeBlock            `json:"proposed,omitempty"`
	Conflict       string                       `json:"conflict,omitempty"`
	ConfirmEnabled bool                         `json:"confirm_enabled"`
}

// State captures the current selection, snapshot and confirm gating.
func (s *AssignmentSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := SessionState{
		EmployeeID:     s.employeeID,
		Date:           s.date,
		Shifted:        s.shifted,
		Fetching:       s.fetching,
		ConfirmEnabled: s.confirmEnabledLocked(),
	}
	if s.fetchErr != nil {
		state.FetchError = s.fetchErr.Error()
	}
	if s.snapshot != nil {
		cp := *s.snapshot
		state.Snapshot = &cp
	}
	if s.proposed != nil {
		cp := *s.proposed
		state.Proposed = &cp
	}
	if s.conflictErr != nil {
		state.Conflict = s.conflictErr.Error()
	}
	return state
}

// Selection returns the current (employee, date) pair and whether the date
// was shifted by a day-rollover search.
func (s *AssignmentSession) Selection() (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.employeeID, s.date, s.shifted
}

// Snapshot returns the current availability snapshot, if any.
func (s *AssignmentSession) Snapshot() *models.AvailabilitySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil
	}
	cp := *s.snapshot
	return &cp
}

// Proposed returns the validated proposed block or an error describing why
// the session cannot confirm yet.
func (s *AssignmentSession) Proposed() (*models.TimeBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetching || s.snapshot == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "availability snapshot not loaded")
	}
	if s.conflictErr != nil {
		return nil, s.conflictErr
	}
	if s.proposed == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no block proposed")
	}
	cp := *s.proposed
	return &cp, nil
}

// Close cancels any pending debounced fetch.
func (s *AssignmentSession) Close() {
	s.deb.Cancel()
}

// SessionRegistry hands each operator their own scheduling session, created
// on first use.
type SessionRegistry struct {
	mu       sync.Mutex
	svc      *ScheduleService
	logger   *zap.Logger
	sessions map[string]*AssignmentSession
}

// NewSessionRegistry builds the registry.
func NewSessionRegistry(svc *ScheduleService, logger *zap.Logger) *SessionRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRegistry{
		svc:      svc,
		logger:   logger,
		sessions: make(map[string]*AssignmentSession),
	}
}

// Session returns the operator's session.
func (r *SessionRegistry) Session(operatorID string) *AssignmentSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[operatorID]; ok {
		return s
	}
	s := NewAssignmentSession(r.svc, r.logger)
	r.sessions[operatorID] = s
	return s
}

// Drop closes and removes the operator's session.
func (r *SessionRegistry) Drop(operatorID string) {
	r.mu.Lock()
	s, ok := r.sessions[operatorID]
	delete(r.sessions, operatorID)
	r.mu.Unlock()
	if ok {
		s.Close()
	}
}
