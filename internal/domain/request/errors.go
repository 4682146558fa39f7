package request

import "github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/apperror"

var (
	ErrRequestNotFound = apperror.New(apperror.CodeNotFound, "request not found")
	ErrUnknownKind     = apperror.New(apperror.CodeValidation, "unknown request kind")

	// Transition errors
	ErrRequestClosed           = apperror.New(apperror.CodeAuthorization, "request is already closed")
	ErrStageNotActionable      = apperror.New(apperror.CodeAuthorization, "you cannot act on the current approval stage")
	ErrOutsideDepartment       = apperror.New(apperror.CodeAuthorization, "request belongs to another department")
	ErrInvalidDecision         = apperror.New(apperror.CodeValidation, "decision is not valid for the current step")
	ErrRejectionReasonRequired = apperror.New(apperror.CodeValidation, "reason is required when rejecting")
	ErrVersionConflict         = apperror.New(apperror.CodeConflict, "request was modified concurrently")

	// Admission errors
	ErrOverlappingLeave           = apperror.New(apperror.CodeConflict, "leave overlaps an existing request")
	ErrOvertimeClaimExists        = apperror.New(apperror.CodeConflict, "an overtime claim already exists for this date")
	ErrClaimWindowClosed          = apperror.New(apperror.CodeValidation, "overtime claim window has closed")
	ErrNoOvertimeRecorded         = apperror.New(apperror.CodeValidation, "no overtime recorded for this date")
	ErrClaimExceedsOvertime       = apperror.New(apperror.CodeValidation, "claimed hours exceed recorded overtime")
	ErrPaymentTrackSundayOnly     = apperror.New(apperror.CodeValidation, "overtime payment claims are accepted for Sundays only")
	ErrCompensatoryDurationOneDay = apperror.New(apperror.CodeValidation, "compensatory leave covers a single day")
)
