package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/muni-digital/gestion-api/internal/models"
)

func newActionLogRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestActionLogRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newActionLogRepoMock(t)
	defer cleanup()

	repo := NewActionLogRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO action_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ActionLog{
		RequestID:   "r-1",
		RequestType: models.TypeReclamo,
		Action:      "accept",
		FromStatus:  models.StatusNuevo,
		ToStatus:    models.StatusRecibido,
		Outcome:     models.ActionOutcomeApplied,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionLogRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newActionLogRepoMock(t)
	defer cleanup()

	repo := NewActionLogRepository(db)
	rows := sqlmock.NewRows([]string{"id", "request_id", "request_type", "action", "actor_id", "from_status", "to_status", "outcome", "detail", "created_at"}).
		AddRow("log-1", "r-1", "reclamo", "assign", nil, "recibido", "asignado", "ROLLED_BACK", "gateway unavailable", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, request_id, request_type, action")).
		WithArgs("r-1", "ROLLED_BACK").
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.ActionLogFilter{RequestID: "r-1", Outcome: models.ActionOutcomeRolledBack})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.StatusAsignado, entries[0].ToStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActionLogRepositoryCountByOutcome(t *testing.T) {
	db, mock, cleanup := newActionLogRepoMock(t)
	defer cleanup()

	repo := NewActionLogRepository(db)
	rows := sqlmock.NewRows([]string{"outcome", "total"}).
		AddRow("CONFIRMED", 12).
		AddRow("ROLLED_BACK", 3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT outcome, COUNT(*)")).
		WillReturnRows(rows)

	counts, err := repo.CountByOutcome(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 12, counts[models.ActionOutcomeConfirmed])
	require.Equal(t, 3, counts[models.ActionOutcomeRolledBack])
	require.NoError(t, mock.ExpectationsWereMet())
}
