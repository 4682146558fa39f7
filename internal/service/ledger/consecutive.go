package ledger

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
)

// MaxConsecutivePaidDays is the longest run of calendar days paid leave may cover.
const MaxConsecutivePaidDays = 2

// CheckConsecutivePaid fails when candidate, together with existing paid
// leave, would cover more than MaxConsecutivePaidDays consecutive days.
func CheckConsecutivePaid(existing []utils.DateRange, candidate utils.DateRange) error {
	if !candidate.Valid() {
		return nil
	}

	covered := make(map[string]bool)
	for _, r := range existing {
		for _, d := range r.Days() {
			covered[d.Format(utils.DateLayout)] = true
		}
	}
	for _, d := range candidate.Days() {
		covered[d.Format(utils.DateLayout)] = true
	}

	// A run touching the candidate either lies inside it or crosses one of its ends.
	if candidate.Len() > MaxConsecutivePaidDays {
		return employee.ErrConsecutivePaidLeave
	}
	for _, d := range []time.Time{candidate.Start, candidate.End} {
		if runThrough(covered, d) > MaxConsecutivePaidDays {
			return employee.ErrConsecutivePaidLeave
		}
	}
	return nil
}

func runThrough(covered map[string]bool, d time.Time) int {
	n := 1
	for day := d.AddDate(0, 0, -1); covered[day.Format(utils.DateLayout)]; day = day.AddDate(0, 0, -1) {
		n++
	}
	for day := d.AddDate(0, 0, 1); covered[day.Format(utils.DateLayout)]; day = day.AddDate(0, 0, 1) {
		n++
	}
	return n
}
