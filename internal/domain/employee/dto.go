package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type CompensatoryEntryResponse struct {
	ID     string             `json:"id"`
	Date   string             `json:"date"`
	Hours  int                `json:"hours"`
	Status CompensatoryStatus `json:"status"`
}

type BalanceResponse struct {
	EmployeeID               string                      `json:"employee_id"`
	EmployeeType             EmployeeType                `json:"employee_type"`
	PaidLeaveBalance         decimal.Decimal             `json:"paid_leave_balance"`
	UnpaidLeaveTaken         decimal.Decimal             `json:"unpaid_leave_taken"`
	CompensatoryBalanceHours int                         `json:"compensatory_balance_hours"`
	CompensatoryEntries      []CompensatoryEntryResponse `json:"compensatory_entries"`
	LastPaidLeaveResetAt     *time.Time                  `json:"last_paid_leave_reset_at,omitempty"`
	LastMonthlyLeaveCreditAt *time.Time                  `json:"last_monthly_leave_credit_at,omitempty"`
}

func NewBalanceResponse(emp Employee) BalanceResponse {
	entries := make([]CompensatoryEntryResponse, 0, len(emp.CompensatoryEntries))
	for _, e := range emp.CompensatoryEntries {
		entries = append(entries, CompensatoryEntryResponse{
			ID:     e.ID,
			Date:   e.Date.Format("2006-01-02"),
			Hours:  e.Hours,
			Status: e.Status,
		})
	}
	return BalanceResponse{
		EmployeeID:               emp.ID,
		EmployeeType:             emp.EmployeeType,
		PaidLeaveBalance:         emp.PaidLeaveBalance,
		UnpaidLeaveTaken:         emp.UnpaidLeaveTaken,
		CompensatoryBalanceHours: emp.CompensatoryBalanceHours,
		CompensatoryEntries:      entries,
		LastPaidLeaveResetAt:     emp.LastPaidLeaveResetAt,
		LastMonthlyLeaveCreditAt: emp.LastMonthlyLeaveCreditAt,
	}
}
