package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muni-digital/gestion-api/internal/models"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
)

type actionLogReaderStub struct {
	entries    []models.ActionLog
	counts     map[string]int
	lastFilter models.ActionLogFilter
	lastSince  time.Time
}

func (s *actionLogReaderStub) List(ctx context.Context, filter models.ActionLogFilter) ([]models.ActionLog, error) {
	s.lastFilter = filter
	return s.entries, nil
}

func (s *actionLogReaderStub) CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error) {
	s.lastSince = since
	return s.counts, nil
}

func TestAuditListNormalizesOutcomeToken(t *testing.T) {
	stub := &actionLogReaderStub{entries: []models.ActionLog{{ID: "a-1", RequestID: "r-1"}}}
	svc := NewAuditService(stub, nil)

	entries, err := svc.List(context.Background(), models.ActionLogFilter{
		RequestID: "r-1",
		Outcome:   "rolled_back",
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, models.ActionOutcomeRolledBack, stub.lastFilter.Outcome)
	assert.Equal(t, "r-1", stub.lastFilter.RequestID)
}

func TestAuditListRejectsUnknownOutcome(t *testing.T) {
	svc := NewAuditService(&actionLogReaderStub{}, nil)

	_, err := svc.List(context.Background(), models.ActionLogFilter{Outcome: "pendiente"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuditStatsFillsMissingOutcomes(t *testing.T) {
	stub := &actionLogReaderStub{counts: map[string]int{models.ActionOutcomeConfirmed: 12}}
	svc := NewAuditService(stub, nil)

	counts, err := svc.Stats(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 12, counts[models.ActionOutcomeConfirmed])
	assert.Equal(t, 0, counts[models.ActionOutcomeApplied])
	assert.Equal(t, 0, counts[models.ActionOutcomeRolledBack])

	// the zero window falls back to the default seven days
	expected := time.Now().UTC().AddDate(0, 0, -7)
	assert.WithinDuration(t, expected, stub.lastSince, time.Minute)
}
