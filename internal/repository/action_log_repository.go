package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/muni-digital/gestion-api/internal/models"
)

// ActionLogRepository persists the local lifecycle audit trail.
type ActionLogRepository struct {
	db *sqlx.DB
}

// NewActionLogRepository constructs the repository.
func NewActionLogRepository(db *sqlx.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Create inserts one audit line.
func (r *ActionLogRepository) Create(ctx context.Context, entry *models.ActionLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO action_logs
	(id, request_id, request_type, action, actor_id, from_status, to_status, outcome, detail, created_at)
	VALUES (:id, :request_id, :request_type, :action, :actor_id, :from_status, :to_status, :outcome, :detail, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("record action log: %w", err)
	}
	return nil
}

// List returns audit lines matching the filter, newest first.
func (r *ActionLogRepository) List(ctx context.Context, filter models.ActionLogFilter) ([]models.ActionLog, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, request_id, request_type, action, actor_id, from_status, to_status, outcome, detail, created_at FROM action_logs`)

	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.RequestID != "" {
		args = append(args, filter.RequestID)
		conditions = append(conditions, fmt.Sprintf("request_id = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.Outcome != "" {
		args = append(args, filter.Outcome)
		conditions = append(conditions, fmt.Sprintf("outcome = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	if filter.Offset > 0 {
		builder.WriteString(fmt.Sprintf(" OFFSET %d", filter.Offset))
	}

	var entries []models.ActionLog
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list action logs: %w", err)
	}
	return entries, nil
}

// CountByOutcome returns how many audit lines since the cutoff ended in each
// outcome. A growing ROLLED_BACK share means the upstream is rejecting what
// operators apply.
func (r *ActionLogRepository) CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error) {
	const query = `SELECT outcome, COUNT(*) AS total FROM action_logs WHERE created_at >= $1 GROUP BY outcome`
	rows := []struct {
		Outcome string `db:"outcome"`
		Total   int    `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, fmt.Errorf("count action logs: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Total
	}
	return counts, nil
}
