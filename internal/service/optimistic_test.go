package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/internal/store"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
	"github.com/muni-digital/gestion-api/pkg/jobs"
)

type recordingNotifier struct {
	mu        sync.Mutex
	applied   []string
	confirmed []string
	failed    []string
}

func (n *recordingNotifier) ActionApplied(id, action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applied = append(n.applied, id+":"+action)
}

func (n *recordingNotifier) ActionConfirmed(id, action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, id+":"+action)
}

func (n *recordingNotifier) ActionFailed(id, action string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, id+":"+action)
}

type listerStub struct {
	mu      sync.Mutex
	listing []models.Request
	calls   int
}

func (l *listerStub) ListRequests(ctx context.Context) ([]models.Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.listing, nil
}

func newTestController(t *testing.T, collection *store.Collection, opts ...MutationControllerOption) (*MutationController, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	opts = append(opts, WithNotifier(notifier))
	controller := NewMutationController(collection, &listerStub{}, jobs.QueueConfig{Workers: 2}, nil, opts...)
	controller.Start(context.Background())
	t.Cleanup(controller.Stop)
	return controller, notifier
}

func seedCollection(ids ...string) *store.Collection {
	c := store.NewCollection()
	for _, id := range ids {
		c.Replace(models.Request{
			ID:          id,
			Type:        models.TypeReclamo,
			Status:      models.StatusNuevo,
			CategoryRef: "alumbrado",
		})
	}
	return c
}

func TestApplyOptimisticallyThenConfirm(t *testing.T) {
	collection := seedCollection("r-1")
	controller, notifier := newTestController(t, collection)

	prev, _ := collection.Get("r-1")
	next := prev.Clone()
	next.Status = models.StatusRecibido

	serverVersion := next.Clone()
	serverVersion.UpdatedAt = time.Now().UTC()

	applied, done, err := controller.Apply(context.Background(), ActionAccept, prev, next, func(ctx context.Context) (*models.Request, error) {
		return &serverVersion, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRecibido, applied.Status)

	// the local apply is visible before the confirm resolves
	current, ok := collection.Get("r-1")
	require.True(t, ok)
	assert.Equal(t, models.StatusRecibido, current.Status)

	require.NoError(t, <-done)

	// server-derived fields won on reconciliation
	current, _ = collection.Get("r-1")
	assert.True(t, current.Equal(serverVersion))
	assert.False(t, controller.InFlight("r-1"))

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, []string{"r-1:accept"}, notifier.applied)
	assert.Equal(t, []string{"r-1:accept"}, notifier.confirmed)
	assert.Empty(t, notifier.failed)
}

func TestRemoteFailureRollsBackFieldForField(t *testing.T) {
	collection := seedCollection("r-1")
	controller, notifier := newTestController(t, collection)

	before, _ := collection.Get("r-1")

	next := before.Clone()
	next.Status = models.StatusRechazado
	next.Rejection = &models.Rejection{ReasonCode: "duplicado", Description: "ya cargado"}

	_, done, err := controller.Apply(context.Background(), ActionReject, before, next, func(ctx context.Context) (*models.Request, error) {
		return nil, errors.New("upstream down")
	}, nil)
	require.NoError(t, err)
	require.Error(t, <-done)

	after, ok := collection.Get("r-1")
	require.True(t, ok)
	assert.True(t, after.Equal(before), "rollback must restore the pre-mutation snapshot exactly")
	assert.False(t, controller.InFlight("r-1"))

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, []string{"r-1:reject"}, notifier.failed)
	assert.Empty(t, notifier.confirmed)
}

func TestReentrancyGuardAllowsSingleInFlightAction(t *testing.T) {
	collection := seedCollection("r-1")
	controller, _ := newTestController(t, collection)

	release := make(chan struct{})
	var calls int32
	var mu sync.Mutex

	prev, _ := collection.Get("r-1")
	next := prev.Clone()
	next.Status = models.StatusRecibido

	_, done, err := controller.Apply(context.Background(), ActionAccept, prev, next, func(ctx context.Context) (*models.Request, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return nil, nil
	}, nil)
	require.NoError(t, err)
	assert.True(t, controller.InFlight("r-1"))

	// second trigger before resolution is refused without a remote call
	_, _, err = controller.Apply(context.Background(), ActionAccept, prev, next, func(ctx context.Context) (*models.Request, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, nil
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrActionInFlight.Code, appErrors.FromError(err).Code)

	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.EqualValues(t, 1, calls)
	current, _ := collection.Get("r-1")
	assert.Equal(t, models.StatusRecibido, current.Status)
}

func TestDistinctEntitiesMutateConcurrently(t *testing.T) {
	collection := seedCollection("r-1", "r-2")
	controller, _ := newTestController(t, collection)

	blockFirst := make(chan struct{})

	firstPrev, _ := collection.Get("r-1")
	first := firstPrev.Clone()
	first.Status = models.StatusRecibido
	_, doneFirst, err := controller.Apply(context.Background(), ActionAccept, firstPrev, first, func(ctx context.Context) (*models.Request, error) {
		<-blockFirst
		return nil, nil
	}, nil)
	require.NoError(t, err)

	secondPrev, _ := collection.Get("r-2")
	second := secondPrev.Clone()
	second.Status = models.StatusRecibido
	_, doneSecond, err := controller.Apply(context.Background(), ActionAccept, secondPrev, second, func(ctx context.Context) (*models.Request, error) {
		return nil, nil
	}, nil)
	require.NoError(t, err, "an in-flight action on r-1 must not serialize r-2")

	require.NoError(t, <-doneSecond)
	close(blockFirst)
	require.NoError(t, <-doneFirst)
}

func TestApplyRefusesStaleSnapshot(t *testing.T) {
	collection := store.NewCollection()
	collection.Replace(models.Request{ID: "r-1", Type: models.TypeReclamo, Status: models.StatusEnProceso})
	controller, _ := newTestController(t, collection)

	read, _ := collection.Get("r-1")
	resolved := read.Clone()
	resolved.Status = models.StatusResuelto
	reverted := read.Clone()
	reverted.Status = models.StatusAsignado

	_, done, err := controller.Apply(context.Background(), ActionResolve, read, resolved, func(ctx context.Context) (*models.Request, error) {
		return nil, nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, <-done)

	// the revert was computed from the pre-resolve snapshot; applying it now
	// would walk the entity out of its terminal state
	_, _, err = controller.Apply(context.Background(), ActionRevert, read, reverted, func(ctx context.Context) (*models.Request, error) {
		return nil, nil
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	current, _ := collection.Get("r-1")
	assert.Equal(t, models.StatusResuelto, current.Status)
	assert.False(t, controller.InFlight("r-1"))
}

func TestApplyUnknownEntityFails(t *testing.T) {
	collection := seedCollection()
	controller, _ := newTestController(t, collection)

	ghost := models.Request{ID: "ghost", Type: models.TypeReclamo}
	_, _, err := controller.Apply(context.Background(), ActionAccept, ghost, ghost, func(ctx context.Context) (*models.Request, error) {
		return nil, nil
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.False(t, controller.InFlight("ghost"))
}

func TestRefreshAllSkippedWhileConfirmInFlight(t *testing.T) {
	collection := seedCollection("r-1")
	lister := &listerStub{listing: []models.Request{{ID: "r-9", Type: models.TypeReclamo, Status: models.StatusNuevo}}}
	notifier := &recordingNotifier{}
	controller := NewMutationController(collection, lister, jobs.QueueConfig{Workers: 1}, nil, WithNotifier(notifier))
	controller.Start(context.Background())
	defer controller.Stop()

	release := make(chan struct{})
	prev, _ := collection.Get("r-1")
	next := prev.Clone()
	next.Status = models.StatusRecibido
	_, done, err := controller.Apply(context.Background(), ActionAccept, prev, next, func(ctx context.Context) (*models.Request, error) {
		<-release
		return nil, nil
	}, nil)
	require.NoError(t, err)

	require.NoError(t, controller.RefreshAll(context.Background()))
	assert.Equal(t, 0, lister.calls, "refresh must not run under an in-flight confirm")

	close(release)
	require.NoError(t, <-done)

	require.NoError(t, controller.RefreshAll(context.Background()))
	assert.Equal(t, 1, lister.calls)
	_, ok := collection.Get("r-9")
	assert.True(t, ok)
}
