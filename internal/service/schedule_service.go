package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muni-digital/gestion-api/internal/models"
	"github.com/muni-digital/gestion-api/pkg/config"
	appErrors "github.com/muni-digital/gestion-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type availabilityFetcher interface {
	GetAvailability(ctx context.Context, employeeID, date string, searchNext bool) (*models.AvailabilitySnapshot, error)
}

// EndTime computes the "HH:MM" end of a block by integer minute arithmetic.
// Blocks that would cross midnight are refused rather than wrapped.
func EndTime(start string, durationHours float64) (string, error) {
	startMinutes, err := parseClock(start)
	if err != nil {
		return "", err
	}
	total := startMinutes + int(durationHours*60)
	if total >= 24*60 {
		return "", appErrors.ErrCrossesMidnight
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}

// ValidateEnd reports a conflict when the proposed end passes the working-day
// boundary. Lexicographic comparison is sufficient for zero-padded same-day
// "HH:MM" values.
func ValidateEnd(proposedEnd, workdayEnd string) error {
	if _, err := parseClock(proposedEnd); err != nil {
		return err
	}
	if _, err := parseClock(workdayEnd); err != nil {
		return err
	}
	if proposedEnd > workdayEnd {
		return appErrors.Clone(appErrors.ErrScheduleConflict,
			fmt.Sprintf("block ends %s, after end of working day %s", proposedEnd, workdayEnd))
	}
	return nil
}

func parseClock(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time %q, expected HH:MM", value))
	}
	var hh, mm int
	if _, err := fmt.Sscanf(value, "%2d:%2d", &hh, &mm); err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time %q, expected HH:MM", value))
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid time %q", value))
	}
	return hh*60 + mm, nil
}

// ScheduleService validates proposed staff scheduling decisions against fresh
// availability snapshots. It owns no persistent state.
type ScheduleService struct {
	fetcher availabilityFetcher
	cfg     config.ScheduleConfig
	logger  *zap.Logger
}

// NewScheduleService constructs the validator.
func NewScheduleService(fetcher availabilityFetcher, cfg config.ScheduleConfig, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SearchHorizonDays <= 0 {
		cfg.SearchHorizonDays = 30
	}
	if cfg.WorkdayEnd == "" {
		cfg.WorkdayEnd = "18:00"
	}
	return &ScheduleService{fetcher: fetcher, cfg: cfg, logger: logger}
}

// WorkdayEnd returns the configured fallback working-day boundary.
func (s *ScheduleService) WorkdayEnd() string { return s.cfg.WorkdayEnd }

// DebounceQuiet returns the configured quiet window for selection changes.
func (s *ScheduleService) DebounceQuiet() time.Duration { return s.cfg.DebounceQuiet }

// ValidateBlock checks duration membership, computes the derived end, and
// validates it against the given working-day boundary. Returns the block with
// End filled in.
func (s *ScheduleService) ValidateBlock(block models.TimeBlock, workdayEnd string) (models.TimeBlock, error) {
	if !models.ValidBlockDuration(block.Duration) {
		return block, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("duration %.1f is not a selectable block length", block.Duration))
	}
	end, err := EndTime(block.Start, block.Duration)
	if err != nil {
		return block, err
	}
	if workdayEnd == "" {
		workdayEnd = s.cfg.WorkdayEnd
	}
	if err := ValidateEnd(end, workdayEnd); err != nil {
		return block, err
	}
	block.End = end
	return block, nil
}

// ValidateAssignment validates a proposed block for an (employee, date) pair
// against a freshly fetched availability snapshot. A full day is a conflict,
// and the snapshot's working-day boundary takes precedence over the
// configured one; the configured boundary applies only when the snapshot
// cannot be fetched.
func (s *ScheduleService) ValidateAssignment(ctx context.Context, employeeID, date string, block models.TimeBlock) (models.TimeBlock, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return block, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	workdayEnd := ""
	snapshot, err := s.fetcher.GetAvailability(ctx, employeeID, date, false)
	switch {
	case err != nil:
		s.logger.Warn("availability fetch failed, validating against configured boundary",
			zap.String("employee_id", employeeID),
			zap.String("date", date),
			zap.Error(err),
		)
	case snapshot.DayIsFull:
		return block, appErrors.Clone(appErrors.ErrScheduleConflict,
			fmt.Sprintf("employee %s has no capacity on %s", employeeID, date))
	default:
		workdayEnd = snapshot.WorkdayEnd
	}
	return s.ValidateBlock(block, workdayEnd)
}

// Availability fetches the snapshot for the exact (employee, date) pair.
func (s *ScheduleService) Availability(ctx context.Context, employeeID, date string) (*models.AvailabilitySnapshot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	return s.fetcher.GetAvailability(ctx, employeeID, date, false)
}

// FindNextAvailable returns the snapshot for the first date, starting at the
// supplied one, that still has capacity. The shifted flag tells the caller
// the selection moved to a later date and dependent state must follow it.
func (s *ScheduleService) FindNextAvailable(ctx context.Context, employeeID, date string) (*models.AvailabilitySnapshot, bool, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}

	for offset := 0; offset <= s.cfg.SearchHorizonDays; offset++ {
		candidate := day.AddDate(0, 0, offset).Format(dateLayout)
		snapshot, err := s.fetcher.GetAvailability(ctx, employeeID, candidate, false)
		if err != nil {
			return nil, false, err
		}
		if !snapshot.DayIsFull {
			if offset > 0 {
				s.logger.Debug("availability search shifted date",
					zap.String("employee_id", employeeID),
					zap.String("requested", date),
					zap.String("selected", snapshot.Date),
				)
			}
			return snapshot, offset > 0, nil
		}
	}
	return nil, false, appErrors.Clone(appErrors.ErrConflict,
		fmt.Sprintf("no capacity for employee %s within %d days of %s", employeeID, s.cfg.SearchHorizonDays, date))
}
