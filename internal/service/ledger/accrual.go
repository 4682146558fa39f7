package ledger

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

type AccrualPolicy struct {
	// YearlyAllotment is the balance confirmed employees are reset to each year.
	YearlyAllotment decimal.Decimal
	// MonthlyCredit is added for every month an intern, contractual or
	// probation employee rolls into.
	MonthlyCredit decimal.Decimal
}

type AccrualState struct {
	EmployeeType        employee.EmployeeType
	Balance             decimal.Decimal
	LastResetAt         *time.Time
	LastMonthlyCreditAt *time.Time
}

// Accrue applies every accrual due at now. It is idempotent for a given now
// and never moves a watermark backwards.
func Accrue(now time.Time, s AccrualState, p AccrualPolicy) AccrualState {
	if s.EmployeeType == employee.EmployeeTypeConfirmed {
		switch {
		case s.LastResetAt == nil:
			// No rollover observed yet: the stored balance is this year's.
			at := now
			s.LastResetAt = &at
		case s.LastResetAt.In(now.Location()).Year() < now.Year():
			at := now
			s.Balance = p.YearlyAllotment
			s.LastResetAt = &at
		}
		return s
	}

	if s.LastMonthlyCreditAt == nil {
		at := now
		s.Balance = s.Balance.Add(p.MonthlyCredit)
		s.LastMonthlyCreditAt = &at
		return s
	}

	months := utils.MonthsBetween(s.LastMonthlyCreditAt.In(now.Location()), now)
	if months <= 0 {
		return s
	}
	at := now
	s.Balance = s.Balance.Add(p.MonthlyCredit.Mul(decimal.NewFromInt(int64(months))))
	s.LastMonthlyCreditAt = &at
	return s
}

func stateOf(emp employee.Employee) AccrualState {
	return AccrualState{
		EmployeeType:        emp.EmployeeType,
		Balance:             emp.PaidLeaveBalance,
		LastResetAt:         emp.LastPaidLeaveResetAt,
		LastMonthlyCreditAt: emp.LastMonthlyLeaveCreditAt,
	}
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// expireEntries marks available entries older than expiryDays as expired.
// It reports whether anything changed.
func expireEntries(emp *employee.Employee, now time.Time, expiryDays int) bool {
	if expiryDays <= 0 {
		return false
	}
	cutoff := utils.DateOf(now, now.Location()).AddDate(0, 0, -expiryDays)
	changed := false
	for i := range emp.CompensatoryEntries {
		entry := &emp.CompensatoryEntries[i]
		if entry.Status == employee.CompensatoryAvailable && entry.Date.Before(cutoff) {
			entry.Status = employee.CompensatoryExpired
			entry.UpdatedAt = now
			changed = true
		}
	}
	return changed
}
