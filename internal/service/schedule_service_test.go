package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/pkg/config"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
)

type availabilityStub struct {
	mu         sync.Mutex
	fullDates  map[string]bool
	workdayEnd string
	err        error
	calls      []string
	delay      time.Duration
}

func (s *availabilityStub) GetAvailability(ctx context.Context, employeeID, date string, searchNext bool) (*models.AvailabilitySnapshot, error) {
	s.mu.Lock()
	s.calls = append(s.calls, employeeID+"@"+date)
	full := s.fullDates[date]
	end := s.workdayEnd
	err := s.err
	delay := s.delay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if end == "" {
		end = "18:00"
	}
	return &models.AvailabilitySnapshot{
		EmployeeID:     employeeID,
		Date:           date,
		OccupiedBlocks: []models.OccupiedBlock{},
		WorkdayEnd:     end,
		NextAvailable:  "09:00",
		DayIsFull:      full,
	}, nil
}

func (s *availabilityStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newScheduleService(stub *availabilityStub) *ScheduleService {
	return NewScheduleService(stub, config.ScheduleConfig{
		WorkdayStart:      "08:00",
		WorkdayEnd:        "18:00",
		SearchHorizonDays: 10,
		DebounceQuiet:     10 * time.Millisecond,
	}, nil)
}

func TestEndTime(t *testing.T) {
	cases := []struct {
		start    string
		duration float64
		want     string
	}{
		{"09:00", 1, "10:00"},
		{"09:00", 1.5, "10:30"},
		{"16:00", 3, "19:00"},
		{"08:30", 0.5, "09:00"},
		{"10:15", 2.5, "12:45"},
	}
	for _, tc := range cases {
		got, err := EndTime(tc.start, tc.duration)
		require.NoError(t, err, "start %s duration %.1f", tc.start, tc.duration)
		assert.Equal(t, tc.want, got)
	}
}

func TestEndTimeRefusesCrossMidnight(t *testing.T) {
	_, err := EndTime("22:00", 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCrossesMidnight.Code, appErrors.FromError(err).Code)

	// a block ending exactly at midnight has no valid same-day "HH:MM"
	_, err = EndTime("23:00", 1)
	require.Error(t, err)
}

func TestEndTimeRejectsMalformedClock(t *testing.T) {
	for _, bad := range []string{"9:00", "0900", "25:00", "12:61", ""} {
		_, err := EndTime(bad, 1)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestValidateEnd(t *testing.T) {
	assert.Error(t, ValidateEnd("19:00", "18:00"))
	assert.NoError(t, ValidateEnd("17:30", "18:00"))
	assert.NoError(t, ValidateEnd("18:00", "18:00"))
}

func TestValidateBlockDurationMembership(t *testing.T) {
	svc := newScheduleService(&availabilityStub{})

	_, err := svc.ValidateBlock(models.TimeBlock{Start: "09:00", Duration: 0.75}, "18:00")
	require.Error(t, err)

	block, err := svc.ValidateBlock(models.TimeBlock{Start: "09:00", Duration: 1.5}, "18:00")
	require.NoError(t, err)
	assert.Equal(t, "10:30", block.End)
}

func TestFindNextAvailableRollsOverFullDays(t *testing.T) {
	stub := &availabilityStub{fullDates: map[string]bool{
		"2026-09-01": true,
		"2026-09-02": true,
	}}
	svc := newScheduleService(stub)

	snapshot, shifted, err := svc.FindNextAvailable(context.Background(), "emp-7", "2026-09-01")
	require.NoError(t, err)
	assert.True(t, shifted)
	assert.Equal(t, "2026-09-03", snapshot.Date)
	assert.False(t, snapshot.DayIsFull)
}

func TestFindNextAvailableHorizonExhausted(t *testing.T) {
	full := make(map[string]bool)
	day, _ := time.Parse(dateLayout, "2026-09-01")
	for i := 0; i <= 11; i++ {
		full[day.AddDate(0, 0, i).Format(dateLayout)] = true
	}
	svc := newScheduleService(&availabilityStub{fullDates: full})

	_, _, err := svc.FindNextAvailable(context.Background(), "emp-7", "2026-09-01")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssignmentSessionConfirmGating(t *testing.T) {
	stub := &availabilityStub{}
	svc := newScheduleService(stub)
	session := NewAssignmentSession(svc, nil)
	defer session.Close()

	assert.False(t, session.ConfirmEnabled(), "no snapshot yet")

	session.Select(context.Background(), "emp-7", "2026-09-01")
	assert.False(t, session.ConfirmEnabled(), "fetch in flight")

	require.Eventually(t, func() bool { return session.Snapshot() != nil }, time.Second, 5*time.Millisecond)
	assert.False(t, session.ConfirmEnabled(), "no block proposed yet")

	require.NoError(t, session.Propose("09:00", 2))
	assert.True(t, session.ConfirmEnabled())

	// conflicting proposal disables confirm
	err := session.Propose("17:00", 2)
	require.Error(t, err)
	assert.False(t, session.ConfirmEnabled())

	require.NoError(t, session.Propose("16:00", 2))
	assert.True(t, session.ConfirmEnabled())
}

func TestAssignmentSessionSelectionChangeInvalidatesSnapshot(t *testing.T) {
	stub := &availabilityStub{}
	svc := newScheduleService(stub)
	session := NewAssignmentSession(svc, nil)
	defer session.Close()

	session.Select(context.Background(), "emp-7", "2026-09-01")
	require.Eventually(t, func() bool { return session.Snapshot() != nil }, time.Second, 5*time.Millisecond)
	require.NoError(t, session.Propose("09:00", 1))
	require.True(t, session.ConfirmEnabled())

	// changing the employee discards the snapshot and disables confirm
	session.Select(context.Background(), "emp-8", "2026-09-01")
	assert.Nil(t, session.Snapshot())
	assert.False(t, session.ConfirmEnabled())

	require.Eventually(t, func() bool { return session.ConfirmEnabled() }, time.Second, 5*time.Millisecond)
	employee, _, _ := session.Selection()
	assert.Equal(t, "emp-8", employee)
}

func TestAssignmentSessionDayRolloverShiftsSelection(t *testing.T) {
	stub := &availabilityStub{fullDates: map[string]bool{"2026-09-01": true}}
	svc := newScheduleService(stub)
	session := NewAssignmentSession(svc, nil)
	defer session.Close()

	session.Select(context.Background(), "emp-7", "2026-09-01")
	require.Eventually(t, func() bool { return session.Snapshot() != nil }, time.Second, 5*time.Millisecond)

	_, date, shifted := session.Selection()
	assert.True(t, shifted, "the UI must be told the date moved")
	assert.Equal(t, "2026-09-02", date)
}

func TestDebouncerCoalescesRapidTriggers(t *testing.T) {
	deb := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var fired []uint64
	for i := 0; i < 5; i++ {
		deb.Trigger(func(token uint64) {
			mu.Lock()
			fired = append(fired, token)
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, fired, 1, "only the last-scheduled call runs")
	assert.EqualValues(t, 5, fired[0])
	assert.True(t, deb.Latest(fired[0]))
}

func TestDebouncerStaleTokenDetected(t *testing.T) {
	deb := NewDebouncer(time.Millisecond)
	first := deb.Trigger(func(uint64) {})
	second := deb.Trigger(func(uint64) {})

	assert.False(t, deb.Latest(first), "superseded token must be discarded")
	assert.True(t, deb.Latest(second))

	deb.Cancel()
	assert.False(t, deb.Latest(second), "cancel invalidates outstanding tokens")
}

func TestSessionRegistryHandsEachOperatorTheirOwnSession(t *testing.T) {
	svc := newScheduleService(&availabilityStub{})
	registry := NewSessionRegistry(svc, nil)

	first := registry.Session("op-1")
	assert.Same(t, first, registry.Session("op-1"))
	assert.NotSame(t, first, registry.Session("op-2"))

	registry.Drop("op-1")
	assert.NotSame(t, first, registry.Session("op-1"))
}

func TestSessionStateMirrorsConfirmGating(t *testing.T) {
	stub := &availabilityStub{}
	svc := newScheduleService(stub)
	session := NewAssignmentSession(svc, nil)
	defer session.Close()

	session.Select(context.Background(), "emp-7", "2026-09-01")
	require.Eventually(t, func() bool { return session.State().Snapshot != nil }, time.Second, 5*time.Millisecond)

	state := session.State()
	assert.Equal(t, "emp-7", state.EmployeeID)
	assert.False(t, state.ConfirmEnabled, "no block proposed yet")

	require.NoError(t, session.Propose("09:00", 2))
	state = session.State()
	require.NotNil(t, state.Proposed)
	assert.Equal(t, "11:00", state.Proposed.End)
	assert.True(t, state.ConfirmEnabled)
	assert.Empty(t, state.Conflict)

	session.Propose("17:00", 2) //nolint:errcheck
	state = session.State()
	assert.NotEmpty(t, state.Conflict)
	assert.False(t, state.ConfirmEnabled)
}
