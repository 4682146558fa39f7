package ledger

import (
	"testing"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func day(d int) utils.DateRange {
	return utils.NewDateRange(utils.Date(2025, 3, d), utils.Date(2025, 3, d))
}

func span(from, to int) utils.DateRange {
	return utils.NewDateRange(utils.Date(2025, 3, from), utils.Date(2025, 3, to))
}

func TestCheckConsecutivePaid(t *testing.T) {
	tests := []struct {
		name      string
		existing  []utils.DateRange
		candidate utils.DateRange
		wantErr   bool
	}{
		{"day 3 after days 1-2", []utils.DateRange{span(1, 2)}, day(3), true},
		{"day 4 after days 1-2", []utils.DateRange{span(1, 2)}, day(4), false},
		{"bridging a gap", []utils.DateRange{day(1), day(3)}, day(2), true},
		{"before an existing pair", []utils.DateRange{span(5, 6)}, day(4), true},
		{"three day candidate alone", nil, span(10, 12), true},
		{"two day candidate alone", nil, span(10, 11), false},
		{"unrelated long run", []utils.DateRange{span(1, 5)}, day(20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConsecutivePaid(tt.existing, tt.candidate)
			if tt.wantErr {
				assert.ErrorIs(t, err, employee.ErrConsecutivePaidLeave)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
