package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/muni-digital/gestion-api/internal/dto"
	"github.com/muni-digital/gestion-api/internal/gateway"
	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/internal/store"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
)

// requestGateway is the slice of the upstream client the action controller
// needs; the full client satisfies it.
type requestGateway interface {
	Accept(ctx context.Context, id, comment, estimate string) (*models.Request, error)
	Assign(ctx context.Context, id string, assignment models.Assignment) (*models.Request, error)
	Start(ctx context.Context, id string) (*models.Request, error)
	Resolve(ctx context.Context, id, resolution string) (*models.Request, error)
	Reject(ctx context.Context, id, reasonCode, description string) (*models.Request, error)
	RevertToAssigned(ctx context.Context, id, comment string) (*models.Request, error)
	GetHistory(ctx context.Context, requestID string, t models.RequestType) ([]models.HistoryEntry, error)
}

var _ requestGateway = (*gateway.Client)(nil)

// RequestService glues operator verbs to the transition table, the schedule
// validator and the optimistic mutation controller. Validation failures stop
// an action before any state change or network call.
type RequestService struct {
	collection *store.Collection
	controller *MutationController
	gateway    requestGateway
	schedule   *ScheduleService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewRequestService constructs the action controller.
func NewRequestService(
	collection *store.Collection,
	controller *MutationController,
	gw requestGateway,
	schedule *ScheduleService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		collection: collection,
		controller: controller,
		gateway:    gw,
		schedule:   schedule,
		validator:  validate,
		logger:     logger,
	}
}

// List returns the mirrored requests matching the filter.
func (s *RequestService) List(filter models.RequestFilter) ([]models.Request, *models.Pagination) {
	items, total := s.collection.List(filter)
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.PageSize <= 0 {
		pagination.PageSize = total
	}
	return items, pagination
}

// Get returns one mirrored request.
func (s *RequestService) Get(id string) (*models.Request, error) {
	entity, ok := s.collection.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return &entity, nil
}

// InFlight reports whether an action for the entity awaits confirmation;
// handlers use it to disable action controls.
func (s *RequestService) InFlight(id string) bool {
	return s.controller.InFlight(id)
}

// History proxies the server-owned history of a request.
func (s *RequestService) History(ctx context.Context, id string) ([]models.HistoryEntry, error) {
	entity, ok := s.collection.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return s.gateway.GetHistory(ctx, id, entity.Type)
}

// Hydrate replaces the mirror with the upstream listing.
func (s *RequestService) Hydrate(ctx context.Context) error {
	return s.controller.RefreshAll(ctx)
}

// Accept confirms intake with a mandatory comment and optional pre-assignment.
func (s *RequestService) Accept(ctx context.Context, id string, req dto.AcceptRequest, actor *models.JWTClaims) (*models.Request, <-chan error, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid accept payload")
	}
	entity, next, err := s.prepare(id, ActionAccept)
	if err != nil {
		return nil, nil, err
	}
	if req.AssigneeID != "" {
		next.Assignment = &models.Assignment{AssigneeID: req.AssigneeID, Comment: req.Comment}
	}
	return s.apply(ctx, ActionAccept, entity, next, actor, func(ctx context.Context) (*models.Request, error) {
		return s.gateway.Accept(ctx, id, req.Comment, req.Estimate)
	})
}

// Assign hands the request over, optionally with a schedule block validated
// against the assignee's fresh availability snapshot for the chosen date.
func (s *RequestService) Assign(ctx context.Context, id string, req dto.AssignRequest, actor *models.JWTClaims) (*models.Request, <-chan error, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assign payload")
	}
	entity, next, err := s.prepare(id, ActionAssign)
	if err != nil {
		return nil, nil, err
	}

	assignment := models.Assignment{AssigneeID: req.AssigneeID, Comment: req.Comment}
	if req.Schedule != nil {
		block, err := s.schedule.ValidateAssignment(ctx, req.AssigneeID, req.Schedule.Date,
			models.TimeBlock{Start: req.Schedule.Start, Duration: req.Schedule.Duration})
		if err != nil {
			return nil, nil, err
		}
		assignment.ScheduledDate = req.Schedule.Date
		assignment.ScheduledStart = block.Start
		assignment.ScheduledEnd = block.End
	}
	next.Assignment = &assignment

	return s.apply(ctx, ActionAssign, entity, next, actor, func(ctx context.Context) (*models.Request, error) {
		return s.gateway.Assign(ctx, id, assignment)
	})
}

// Start marks an assigned request as in execution.
func (s *RequestService) Start(ctx context.Context, id string, actor *models.JWTClaims) (*models.Request, <-chan error, error) {
	entity, next, err := s.prepare(id, ActionStart)
	if err != nil {
		return nil, nil, err
	}
	return s.apply(ctx, ActionStart, entity, next, actor, func(ctx context.Context) (*models.Request, error) {
		return s.gateway.Start(ctx, id)
	})
}

// Resolve advances toward the successful terminal state. For trámites the
// first resolve approves; only an approved trámite finalizes.
func (s *RequestService) Resolve(ctx context.Context, id string, req dto.ResolveRequest, actor *models.JWTClaims) (*models.Request, <-chan error, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolve payload")
	}
	entity, next, err := s.prepare(id, ActionResolve)
	if err != nil {
		return nil, nil, err
	}
	if next.Status == models.StatusResuelto || next.Status == models.StatusFinalizado {
		resolution := req.Resolution
		next.Resolution = &resolution
	}
	return s.apply(ctx, ActionResolve, entity, next, actor, func(ctx context.Context) (*models.Request, error) {
		return s.gateway.Resolve(ctx, id, req.Resolution)
	})
}

// Reject closes the request with a reason code, where the side-exit is legal.
func (s *RequestService) Reject(ctx context.Context, id string, req dto.RejectRequest, actor *models.JWTClaims) (*models.Request, <-chan error, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reject payload")
	}
	entity, next, err := s.prepare(id, ActionReject)
	if err != nil {
		return nil, nil, err
	}
	next.Rejection = &models.Rejection{ReasonCode: req.ReasonCode, Description: req.Description}
	return s.apply(ctx, ActionReject, entity, next, actor, func(ctx context.Context) (*models.Request, error) {
		return s.gateway.Reject(ctx, id, req.ReasonCode, req.Description)
	})
}

// Revert sends an in-execution request back to assigned, appending the
// operator's comment. A forward-looking verb, a backward transition.
func (s *RequestService) Revert(ctx context.Context, id string, req dto.RevertRequest, actor *models.JWTClaims) (*models.Request, <-chan error, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid revert payload")
	}
	entity, next, err := s.prepare(id, ActionRevert)
	if err != nil {
		return nil, nil, err
	}
	if next.Assignment != nil {
		appended := next.Assignment.Comment
		if appended != "" {
			appended += " | "
		}
		next.Assignment.Comment = appended + req.Comment
	} else {
		next.Assignment = &models.Assignment{Comment: req.Comment}
	}
	return s.apply(ctx, ActionRevert, entity, next, actor, func(ctx context.Context) (*models.Request, error) {
		return s.gateway.RevertToAssigned(ctx, id, req.Comment)
	})
}

// prepare loads the entity, verifies the transition and returns the snapshot
// exactly as read plus the post-action snapshot with the new status set. The
// read snapshot doubles as the controller's staleness witness: Apply refuses
// the action if the store no longer holds it.
func (s *RequestService) prepare(id, action string) (models.Request, models.Request, error) {
	entity, ok := s.collection.Get(id)
	if !ok {
		return models.Request{}, models.Request{}, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	_, to, err := checkTransition(entity.Type, action, entity.Status)
	if err != nil {
		return models.Request{}, models.Request{}, err
	}
	next := entity.Clone()
	next.Status = to
	return entity, next, nil
}

func (s *RequestService) apply(ctx context.Context, action string, entity, next models.Request, actor *models.JWTClaims, confirm RemoteConfirm) (*models.Request, <-chan error, error) {
	var actorID *string
	if actor != nil && actor.UserID != "" {
		id := actor.UserID
		actorID = &id
	}
	applied, done, err := s.controller.Apply(ctx, action, entity, next, confirm, actorID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("action applied optimistically",
		zap.String("request_id", next.ID),
		zap.String("action", action),
		zap.String("from", string(entity.Status)),
		zap.String("to", string(next.Status)),
	)
	return applied, done, nil
}

// ParseType maps a query token to a request type; empty means no filter.
func ParseType(raw string) (models.RequestType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case string(models.TypeReclamo):
		return models.TypeReclamo, nil
	case string(models.TypeTramite):
		return models.TypeTramite, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "type must be reclamo or tramite")
	}
}
