package attendance

import (
	"context"
	"time"
)

// ReconcilerService folds time clock punches into attendance records.
type ReconcilerService interface {
	// Sync pulls punches for [from, to] from the source and folds them.
	Sync(ctx context.Context, from, to time.Time) (SyncResult, error)

	// MarkAbsent records absence for employees with nothing covering date.
	MarkAbsent(ctx context.Context, date time.Time) (MarkAbsentResult, error)

	List(ctx context.Context, query ListAttendanceQuery) ([]AttendanceResponse, error)
}
