package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muni-digital/gestion-api/internal/models"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
)

type actionLogReader interface {
	List(ctx context.Context, filter models.ActionLogFilter) ([]models.ActionLog, error)
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error)
}

// AuditService reads the persisted lifecycle trail for back-office review.
// The trail is append-only; nothing here mutates it.
type AuditService struct {
	repo   actionLogReader
	logger *zap.Logger
}

// NewAuditService constructs the reader.
func NewAuditService(repo actionLogReader, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// List returns audit lines matching the filter, newest first. Outcome tokens
// are accepted in any case.
func (s *AuditService) List(ctx context.Context, filter models.ActionLogFilter) ([]models.ActionLog, error) {
	if filter.Outcome != "" {
		outcome := strings.ToUpper(strings.TrimSpace(filter.Outcome))
		switch outcome {
		case models.ActionOutcomeApplied, models.ActionOutcomeConfirmed, models.ActionOutcomeRolledBack:
			filter.Outcome = outcome
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("unknown outcome %q", filter.Outcome))
		}
	}
	return s.repo.List(ctx, filter)
}

// Stats summarizes action outcomes over a trailing window of days (default 7).
func (s *AuditService) Stats(ctx context.Context, days int) (map[string]int, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	counts, err := s.repo.CountByOutcome(ctx, since)
	if err != nil {
		return nil, err
	}
	// zero-valued outcomes stay visible in the summary
	for _, outcome := range []string{models.ActionOutcomeApplied, models.ActionOutcomeConfirmed, models.ActionOutcomeRolledBack} {
		if _, ok := counts[outcome]; !ok {
			counts[outcome] = 0
		}
	}
	return counts, nil
}
