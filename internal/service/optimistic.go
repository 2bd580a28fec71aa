package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/internal/store"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
	"github.com/muni-digital/gestion-api/pkg/jobs"
)

// RemoteConfirm performs the upstream operation for an optimistically applied
// action and returns the server's version of the entity.
type RemoteConfirm func(ctx context.Context) (*models.Request, error)

// MutationNotifier surfaces the user-facing success/failure signals of the
// optimistic flow. The apply signal also closes any open detail view.
type MutationNotifier interface {
	ActionApplied(requestID, action string)
	ActionConfirmed(requestID, action string)
	ActionFailed(requestID, action string, err error)
}

type mutationMetrics interface {
	ObserveAction(t models.RequestType, action, outcome string)
}

type actionLogWriter interface {
	Create(ctx context.Context, log *models.ActionLog) error
}

type requestLister interface {
	ListRequests(ctx context.Context) ([]models.Request, error)
}

// MutationController owns all writes to the request mirror. Every mutating
// action runs as two phases: a local apply that always succeeds, and an async
// remote confirm whose failure triggers a full revert to the pre-mutation
// snapshot. While a confirm for an entity is in flight, further actions on
// that entity are refused; distinct entities mutate independently.
type MutationController struct {
	store    *store.Collection
	lister   requestLister
	notifier MutationNotifier
	metrics  mutationMetrics
	audit    actionLogWriter
	logger   *zap.Logger

	queue *jobs.Queue

	mu       sync.Mutex
	inFlight map[string]struct{}

	refreshAfterConfirm bool
}

type confirmTask struct {
	action  string
	actorID *string
	prev    models.Request
	next    models.Request
	confirm RemoteConfirm
	done    chan error
}

// MutationControllerOption configures the controller.
type MutationControllerOption func(*MutationController)

// WithNotifier overrides the default log-based notifier.
func WithNotifier(n MutationNotifier) MutationControllerOption {
	return func(c *MutationController) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithMutationMetrics attaches lifecycle counters.
func WithMutationMetrics(m mutationMetrics) MutationControllerOption {
	return func(c *MutationController) { c.metrics = m }
}

// WithActionLog attaches the persisted audit trail.
func WithActionLog(w actionLogWriter) MutationControllerOption {
	return func(c *MutationController) { c.audit = w }
}

// WithRefreshAfterConfirm enables the background full-list refresh after a
// confirmed mutation, picking up server-derived fields.
func WithRefreshAfterConfirm(enabled bool) MutationControllerOption {
	return func(c *MutationController) { c.refreshAfterConfirm = enabled }
}

// NewMutationController constructs the controller and its worker queue.
func NewMutationController(collection *store.Collection, lister requestLister, cfg jobs.QueueConfig, logger *zap.Logger, opts ...MutationControllerOption) *MutationController {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &MutationController{
		store:    collection,
		lister:   lister,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
	c.notifier = &logNotifier{logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	cfg.Logger = logger
	c.queue = jobs.NewQueue("request-mutations", c.handleJob, cfg)
	return c
}

// Start launches the confirm workers.
func (c *MutationController) Start(ctx context.Context) { c.queue.Start(ctx) }

// Stop drains the workers.
func (c *MutationController) Stop() { c.queue.Stop() }

// InFlight reports whether an action for the entity is awaiting confirmation.
// Action controls for the entity are disabled while this is true.
func (c *MutationController) InFlight(requestID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[requestID]
	return ok
}

// Apply runs phase one of a mutating action: it atomically replaces the
// entity's slot with the computed post-action snapshot, signals success, and
// schedules the remote confirm. The returned channel reports the confirm
// outcome (nil on success); on failure the entity has already been reverted
// to its pre-mutation snapshot by the time the channel yields.
//
// expected is the snapshot the caller computed next from. After the in-flight
// guard is claimed the store must still hold that exact snapshot; a mismatch
// means a concurrent action confirmed in between and next was derived from a
// stale status, so the apply is refused.
func (c *MutationController) Apply(ctx context.Context, action string, expected, next models.Request, confirm RemoteConfirm, actorID *string) (*models.Request, <-chan error, error) {
	c.mu.Lock()
	if _, busy := c.inFlight[next.ID]; busy {
		c.mu.Unlock()
		return nil, nil, appErrors.ErrActionInFlight
	}
	c.inFlight[next.ID] = struct{}{}
	c.mu.Unlock()

	prev, ok := c.store.Get(next.ID)
	if !ok {
		c.release(next.ID)
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "request not in local collection")
	}
	if !prev.Equal(expected) {
		c.release(next.ID)
		return nil, nil, appErrors.Clone(appErrors.ErrConflict, "request changed since it was read, reload and retry")
	}

	c.store.Replace(next)
	c.notifier.ActionApplied(next.ID, action)
	c.observe(next.Type, action, models.ActionOutcomeApplied)
	c.writeAudit(ctx, action, actorID, prev, next, models.ActionOutcomeApplied, nil)

	task := &confirmTask{
		action:  action,
		actorID: actorID,
		prev:    prev,
		next:    next,
		confirm: confirm,
		done:    make(chan error, 1),
	}
	if err := c.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobConfirm, Payload: task}); err != nil {
		// cannot confirm: revert immediately, the optimistic state must not linger
		c.store.Replace(prev)
		c.release(next.ID)
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule remote confirmation")
	}

	applied := next.Clone()
	return &applied, task.done, nil
}

// RefreshAll replaces the mirror with a fresh upstream listing. Skipped when
// any confirm is still in flight so the refresh cannot clobber an optimistic
// snapshot with a stale upstream version.
func (c *MutationController) RefreshAll(ctx context.Context) error {
	c.mu.Lock()
	busy := len(c.inFlight) > 0
	c.mu.Unlock()
	if busy {
		c.logger.Debug("skipping refresh, confirmations in flight")
		return nil
	}
	listing, err := c.lister.ListRequests(ctx)
	if err != nil {
		return err
	}
	c.store.ReplaceAll(listing)
	return nil
}

const (
	jobConfirm = "confirm"
	jobRefresh = "refresh"
)

func (c *MutationController) handleJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case jobConfirm:
		task, ok := job.Payload.(*confirmTask)
		if !ok {
			c.logger.Error("confirm job with unexpected payload", zap.String("job_id", job.ID))
			return nil
		}
		c.runConfirm(ctx, task)
		return nil
	case jobRefresh:
		return c.RefreshAll(ctx)
	default:
		c.logger.Warn("unknown job type", zap.String("type", job.Type))
		return nil
	}
}

// runConfirm is phase two. Confirm failures are terminal here: the revert is
// the compensation, never a retry.
func (c *MutationController) runConfirm(ctx context.Context, task *confirmTask) {
	updated, err := task.confirm(ctx)
	if err != nil {
		c.store.Replace(task.prev)
		c.release(task.next.ID)
		c.notifier.ActionFailed(task.next.ID, task.action, err)
		c.observe(task.next.Type, task.action, models.ActionOutcomeRolledBack)
		c.writeAudit(ctx, task.action, task.actorID, task.next, task.prev, models.ActionOutcomeRolledBack, err)
		c.logger.Warn("remote confirmation failed, rolled back",
			zap.String("request_id", task.next.ID),
			zap.String("action", task.action),
			zap.Error(err),
		)
		task.done <- err
		close(task.done)
		return
	}

	confirmed := task.next
	if updated != nil {
		// server version wins over the locally predicted snapshot
		confirmed = *updated
		c.store.Replace(confirmed)
	}
	c.release(task.next.ID)
	c.notifier.ActionConfirmed(task.next.ID, task.action)
	c.observe(task.next.Type, task.action, models.ActionOutcomeConfirmed)
	c.writeAudit(ctx, task.action, task.actorID, task.prev, confirmed, models.ActionOutcomeConfirmed, nil)

	if c.refreshAfterConfirm {
		if err := c.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobRefresh}); err != nil {
			c.logger.Warn("failed to schedule post-confirm refresh", zap.Error(err))
		}
	}
	task.done <- nil
	close(task.done)
}

func (c *MutationController) release(requestID string) {
	c.mu.Lock()
	delete(c.inFlight, requestID)
	c.mu.Unlock()
}

func (c *MutationController) observe(t models.RequestType, action, outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveAction(t, action, outcome)
	}
}

func (c *MutationController) writeAudit(ctx context.Context, action string, actorID *string, from, to models.Request, outcome string, cause error) {
	if c.audit == nil {
		return
	}
	log := &models.ActionLog{
		RequestID:   to.ID,
		RequestType: to.Type,
		Action:      action,
		ActorID:     actorID,
		FromStatus:  from.Status,
		ToStatus:    to.Status,
		Outcome:     outcome,
		CreatedAt:   time.Now().UTC(),
	}
	if cause != nil {
		detail := cause.Error()
		log.Detail = &detail
	}
	if err := c.audit.Create(ctx, log); err != nil {
		c.logger.Warn("failed to persist action log", zap.Error(err))
	}
}

// logNotifier is the default notifier when no UI channel is attached.
type logNotifier struct {
	logger *zap.Logger
}

func (n *logNotifier) ActionApplied(requestID, action string) {
	n.logger.Info("action applied", zap.String("request_id", requestID), zap.String("action", action))
}

func (n *logNotifier) ActionConfirmed(requestID, action string) {
	n.logger.Info("action confirmed", zap.String("request_id", requestID), zap.String("action", action))
}

func (n *logNotifier) ActionFailed(requestID, action string, err error) {
	n.logger.Warn("action failed", zap.String("request_id", requestID), zap.String("action", action), zap.Error(err))
}
