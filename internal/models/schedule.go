package models

// BlockDurations enumerates the selectable time-block lengths in hours.
var BlockDurations = []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 5, 6, 8}

// ValidBlockDuration reports whether d is one of the selectable lengths.
func ValidBlockDuration(d float64) bool {
	for _, v := range BlockDurations {
		if v == d {
			return true
		}
	}
	return false
}

// TimeBlock is a proposed scheduling slot for an employee.
type TimeBlock struct {
	Start    string  `json:"start"`
	Duration float64 `json:"duration"`
	End      string  `json:"end,omitempty"`
}

// OccupiedBlock is an already booked slot within an availability snapshot.
type OccupiedBlock struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label,omitempty"`
}

// AvailabilitySnapshot is the upstream view of one employee's day. A snapshot
// is only valid for the exact (employee, date) pair it was fetched for;
// superseded snapshots are discarded, never merged.
type AvailabilitySnapshot struct {
	EmployeeID     string          `json:"employee_id"`
	Date           string          `json:"date"`
	OccupiedBlocks []OccupiedBlock `json:"occupied_blocks"`
	WorkdayEnd     string          `json:"workday_end"`
	NextAvailable  string          `json:"next_available"`
	DayIsFull      bool            `json:"day_is_full"`
}
