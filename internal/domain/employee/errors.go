package employee

import "github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/apperror"

var (
	ErrEmployeeNotFound   = apperror.New(apperror.CodeNotFound, "employee not found")
	ErrDepartmentNotFound = apperror.New(apperror.CodeNotFound, "department not found")
	ErrEmployeeInactive   = apperror.New(apperror.CodeValidation, "employee is not active")

	// Ledger errors
	ErrInsufficientBalance          = apperror.New(apperror.CodeInsufficientBalance, "insufficient paid leave balance")
	ErrInvalidAmount                = apperror.New(apperror.CodeValidation, "amount must be positive")
	ErrCompensatoryCeiling          = apperror.New(apperror.CodeValidation, "compensatory balance would exceed the 40 hour ceiling")
	ErrCompensatoryEntryNotFound    = apperror.New(apperror.CodeNotFound, "compensatory entry not found")
	ErrCompensatoryEntryUnavailable = apperror.New(apperror.CodeValidation, "compensatory entry is not available")
	ErrCompensatoryHoursMismatch    = apperror.New(apperror.CodeValidation, "compensatory entry hours do not match the leave duration")
	ErrConsecutivePaidLeave         = apperror.New(apperror.CodeValidation, "paid leave may not cover 3 consecutive calendar days")
)
