package reconciler

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

const clockLayout = "15:04:05"

// parseDirection accepts the spellings time clocks commonly export.
func parseDirection(s string) (attendance.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "i", "0", "check_in", "checkin":
		return attendance.DirectionIn, nil
	case "out", "o", "1", "check_out", "checkout":
		return attendance.DirectionOut, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// normalize turns a source row into a staged punch with a canonical date
// and a zero-padded clock value.
func normalize(row attendance.SourceRow) (attendance.RawPunch, error) {
	userID := strings.TrimSpace(row.ExternalUserID)
	if userID == "" {
		return attendance.RawPunch{}, fmt.Errorf("missing user id")
	}

	date, err := utils.ParseDate(strings.TrimSpace(row.LogDate))
	if err != nil {
		return attendance.RawPunch{}, fmt.Errorf("invalid log date %q", row.LogDate)
	}

	clock, err := validator.ParseClock(row.LogTime)
	if err != nil {
		return attendance.RawPunch{}, err
	}

	dir, err := parseDirection(row.Direction)
	if err != nil {
		return attendance.RawPunch{}, err
	}

	return attendance.RawPunch{
		ExternalUserID: userID,
		LogDate:        date,
		LogTime:        time.Time{}.Add(clock).Format(clockLayout),
		Direction:      dir,
	}, nil
}
