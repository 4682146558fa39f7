package attendance

import "github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/apperror"

// Attendance domain errors
var (
	ErrAttendanceNotFound     = apperror.New(apperror.CodeNotFound, "attendance record not found")
	ErrPunchSourceUnavailable = apperror.New(apperror.CodeExternalSource, "punch source unavailable")
	ErrSyncInProgress         = apperror.New(apperror.CodeConflict, "another attendance run is in progress")
)
