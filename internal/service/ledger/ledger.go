package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Policy struct {
	Accrual                  AccrualPolicy
	CompensatoryCeilingHours int
	// CompensatoryExpiryDays is how long an entry stays available. 0 keeps
	// entries forever.
	CompensatoryExpiryDays int
	Location               *time.Location
}

// Service owns every mutation of an employee's leave balances. Each operation
// locks the employee row, applies pending accrual and expiry, then mutates.
type Service struct {
	tx        database.Transactor
	employees employee.EmployeeRepository
	requests  request.RequestRepository
	policy    Policy
	now       func() time.Time
}

func NewService(tx database.Transactor, employees employee.EmployeeRepository, requests request.RequestRepository, policy Policy) *Service {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	if policy.CompensatoryCeilingHours <= 0 {
		policy.CompensatoryCeilingHours = employee.CompensatoryCeilingHours
	}
	return &Service{
		tx:        tx,
		employees: employees,
		requests:  requests,
		policy:    policy,
		now:       time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) clock() time.Time {
	return s.now().In(s.policy.Location)
}

// touch applies lazy accrual and expiry to emp and reports whether it changed.
func (s *Service) touch(emp *employee.Employee, now time.Time) bool {
	before := stateOf(*emp)
	after := Accrue(now, before, s.policy.Accrual)

	changed := !before.Balance.Equal(after.Balance) ||
		!sameInstant(before.LastResetAt, after.LastResetAt) ||
		!sameInstant(before.LastMonthlyCreditAt, after.LastMonthlyCreditAt)

	emp.PaidLeaveBalance = after.Balance
	emp.LastPaidLeaveResetAt = after.LastResetAt
	emp.LastMonthlyLeaveCreditAt = after.LastMonthlyCreditAt

	if expireEntries(emp, now, s.policy.CompensatoryExpiryDays) {
		changed = true
	}
	if hours := emp.AvailableCompensatoryHours(); hours != emp.CompensatoryBalanceHours {
		emp.CompensatoryBalanceHours = hours
		changed = true
	}
	return changed
}

// mutate runs fn against the locked, touched employee and saves the result.
func (s *Service) mutate(ctx context.Context, employeeID string, fn func(emp *employee.Employee, now time.Time) error) (employee.Employee, error) {
	var result employee.Employee
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByIDForUpdate(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to lock employee: %w", err)
		}

		now := s.clock()
		s.touch(&emp, now)
		if err := fn(&emp, now); err != nil {
			return err
		}

		if err := s.employees.SaveLedger(ctx, emp); err != nil {
			return fmt.Errorf("failed to save ledger: %w", err)
		}
		result = emp
		return nil
	})
	return result, err
}

// peek returns the employee as the next mutation would see it, without saving.
func (s *Service) peek(ctx context.Context, employeeID string) (employee.Employee, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	s.touch(&emp, s.clock())
	return emp, nil
}

func (s *Service) Accrue(ctx context.Context, employeeID string) (employee.Employee, error) {
	return s.mutate(ctx, employeeID, func(emp *employee.Employee, now time.Time) error {
		return nil
	})
}

// Deduct removes days from the paid leave balance.
func (s *Service) Deduct(ctx context.Context, employeeID string, days decimal.Decimal) (employee.Employee, error) {
	return s.mutate(ctx, employeeID, func(emp *employee.Employee, now time.Time) error {
		if !days.IsPositive() {
			return employee.ErrInvalidAmount
		}
		if days.GreaterThan(emp.PaidLeaveBalance) {
			return fmt.Errorf("%w: requested %s days, available %s", employee.ErrInsufficientBalance, days, emp.PaidLeaveBalance)
		}

		balance := emp.PaidLeaveBalance.Sub(days)
		if balance.IsNegative() {
			slog.Error("Ledger: paid leave balance clamped at zero",
				"employee_id", emp.ID, "balance", emp.PaidLeaveBalance.String(), "days", days.String())
			balance = decimal.Zero
		}
		emp.PaidLeaveBalance = balance
		return nil
	})
}

// CheckBalance reports ErrInsufficientBalance when days exceed the balance.
func (s *Service) CheckBalance(ctx context.Context, employeeID string, days decimal.Decimal) error {
	emp, err := s.peek(ctx, employeeID)
	if err != nil {
		return err
	}
	if days.GreaterThan(emp.PaidLeaveBalance) {
		return fmt.Errorf("%w: requested %s days, available %s", employee.ErrInsufficientBalance, days, emp.PaidLeaveBalance)
	}
	return nil
}

func (s *Service) CreditUnpaid(ctx context.Context, employeeID string, days decimal.Decimal) (employee.Employee, error) {
	return s.mutate(ctx, employeeID, func(emp *employee.Employee, now time.Time) error {
		if !days.IsPositive() {
			return employee.ErrInvalidAmount
		}
		emp.UnpaidLeaveTaken = emp.UnpaidLeaveTaken.Add(days)
		return nil
	})
}

// CreditCompensatory appends an available entry of hours earned on date.
func (s *Service) CreditCompensatory(ctx context.Context, employeeID string, hours int, date time.Time, sourceRequestID *string) (employee.CompensatoryEntry, error) {
	var entry employee.CompensatoryEntry
	_, err := s.mutate(ctx, employeeID, func(emp *employee.Employee, now time.Time) error {
		if err := s.checkHeadroom(*emp, hours); err != nil {
			return err
		}

		entry = employee.CompensatoryEntry{
			ID:              uuid.NewString(),
			EmployeeID:      emp.ID,
			Date:            date,
			Hours:           hours,
			Status:          employee.CompensatoryAvailable,
			SourceRequestID: sourceRequestID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		emp.CompensatoryEntries = append(emp.CompensatoryEntries, entry)
		emp.CompensatoryBalanceHours = emp.AvailableCompensatoryHours()
		return nil
	})
	return entry, err
}

// CheckCompensatoryHeadroom fails when crediting hours would pass the ceiling.
func (s *Service) CheckCompensatoryHeadroom(ctx context.Context, employeeID string, hours int) error {
	emp, err := s.peek(ctx, employeeID)
	if err != nil {
		return err
	}
	return s.checkHeadroom(emp, hours)
}

func (s *Service) checkHeadroom(emp employee.Employee, hours int) error {
	if hours <= 0 {
		return employee.ErrInvalidAmount
	}
	if emp.AvailableCompensatoryHours()+hours > s.policy.CompensatoryCeilingHours {
		return fmt.Errorf("%w: holding %d hours, crediting %d", employee.ErrCompensatoryCeiling, emp.AvailableCompensatoryHours(), hours)
	}
	return nil
}

// ConsumeCompensatory marks entryID consumed by requestID. The entry's hours
// must equal hours exactly.
func (s *Service) ConsumeCompensatory(ctx context.Context, employeeID, entryID string, hours int, requestID string) (employee.Employee, error) {
	return s.mutate(ctx, employeeID, func(emp *employee.Employee, now time.Time) error {
		idx, err := checkEntry(*emp, entryID, hours)
		if err != nil {
			return err
		}
		entry := &emp.CompensatoryEntries[idx]
		entry.Status = employee.CompensatoryConsumed
		entry.ConsumedByRequestID = &requestID
		entry.UpdatedAt = now
		emp.CompensatoryBalanceHours = emp.AvailableCompensatoryHours()
		return nil
	})
}

// CheckCompensatoryEntry reports whether entryID could be consumed for hours.
func (s *Service) CheckCompensatoryEntry(ctx context.Context, employeeID, entryID string, hours int) error {
	emp, err := s.peek(ctx, employeeID)
	if err != nil {
		return err
	}
	_, err = checkEntry(emp, entryID, hours)
	return err
}

func checkEntry(emp employee.Employee, entryID string, hours int) (int, error) {
	idx := emp.FindCompensatoryEntry(entryID)
	if idx < 0 {
		return -1, employee.ErrCompensatoryEntryNotFound
	}
	entry := emp.CompensatoryEntries[idx]
	if entry.Status != employee.CompensatoryAvailable {
		return -1, fmt.Errorf("%w: entry is %s", employee.ErrCompensatoryEntryUnavailable, entry.Status)
	}
	if entry.Hours != hours {
		return -1, fmt.Errorf("%w: entry holds %d hours, leave needs %d", employee.ErrCompensatoryHoursMismatch, entry.Hours, hours)
	}
	return idx, nil
}

// CheckConsecutivePaidFor checks candidate against the employee's approved
// paid leave, ignoring excludeRequestID.
func (s *Service) CheckConsecutivePaidFor(ctx context.Context, employeeID string, candidate utils.DateRange, excludeRequestID string) error {
	reqs, err := s.requests.ListByEmployee(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}

	var existing []utils.DateRange
	for _, r := range reqs {
		if r.ID == excludeRequestID || r.State != request.StateApproved || r.Leave == nil {
			continue
		}
		if r.Leave.LeaveType == request.LeaveTypePaid {
			existing = append(existing, r.Leave.Range())
		}
	}
	return CheckConsecutivePaid(existing, candidate)
}

// Balance returns the ledger with accrual applied, persisting it when
// accrual or expiry moved.
func (s *Service) Balance(ctx context.Context, employeeID string) (employee.BalanceResponse, error) {
	var resp employee.BalanceResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := s.employees.GetByIDForUpdate(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to get employee: %w", err)
		}
		if s.touch(&emp, s.clock()) {
			if err := s.employees.SaveLedger(ctx, emp); err != nil {
				return fmt.Errorf("failed to save ledger: %w", err)
			}
		}
		resp = employee.NewBalanceResponse(emp)
		return nil
	})
	return resp, err
}
