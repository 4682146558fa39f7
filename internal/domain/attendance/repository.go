package attendance

import (
	"context"
	"time"
)

// PunchSource is the external time clock.
type PunchSource interface {
	// Fetch returns every log line recorded between from and to inclusive.
	Fetch(ctx context.Context, from, to time.Time) ([]SourceRow, error)
}

type RawPunchRepository interface {
	// InsertBatch stages punches, skipping any already staged. It returns the
	// number of rows actually inserted.
	InsertBatch(ctx context.Context, punches []RawPunch) (int, error)

	// ListUnprocessed returns staged punches ordered by date and time.
	ListUnprocessed(ctx context.Context) ([]RawPunch, error)

	MarkProcessed(ctx context.Context, ids []string) error

	// DeleteProcessed removes the given punches once they are marked processed.
	DeleteProcessed(ctx context.Context, ids []string) error
}

type AttendanceRepository interface {
	// GetByEmployeeAndDate returns nil when the employee has no record for date.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)

	// GetByEmployeeAndDateForUpdate is GetByEmployeeAndDate holding a row lock.
	GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)

	// Upsert writes the record for (EmployeeID, LogDate), creating it if needed.
	Upsert(ctx context.Context, attendance Attendance) (Attendance, error)

	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, error)

	// ListUnsettledOvertime returns records with overtime and no settlement
	// dated on or before the given date.
	ListUnsettledOvertime(ctx context.Context, onOrBefore time.Time) ([]Attendance, error)

	// SettleOvertime zeroes overtime minutes and stamps the settlement time.
	SettleOvertime(ctx context.Context, id string, at time.Time) error
}
