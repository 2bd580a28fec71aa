package models

import "time"

// ActionOutcome tracks how far a lifecycle action got.
const (
	ActionOutcomeApplied    = "APPLIED"
	ActionOutcomeConfirmed  = "CONFIRMED"
	ActionOutcomeRolledBack = "ROLLED_BACK"
)

// ActionLog is one persisted line of the local lifecycle audit trail. The
// upstream's own history remains server-owned; this trail records what this
// back office did, including rollbacks the upstream never saw.
type ActionLog struct {
	ID          string      `db:"id" json:"id"`
	RequestID   string      `db:"request_id" json:"request_id"`
	RequestType RequestType `db:"request_type" json:"request_type"`
	Action      string      `db:"action" json:"action"`
	ActorID     *string     `db:"actor_id" json:"actor_id,omitempty"`
	FromStatus  Status      `db:"from_status" json:"from_status"`
	ToStatus    Status      `db:"to_status" json:"to_status"`
	Outcome     string      `db:"outcome" json:"outcome"`
	Detail      *string     `db:"detail" json:"detail,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

// ActionLogFilter constrains audit listings.
type ActionLogFilter struct {
	RequestID string
	Action    string
	Outcome   string
	Limit     int
	Offset    int
}
