package overtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
)

// CompensatoryCreditor is the ledger operation the sweeper needs.
type CompensatoryCreditor interface {
	CreditCompensatory(ctx context.Context, employeeID string, hours int, date time.Time, sourceRequestID *string) (employee.CompensatoryEntry, error)
}

type Settlement string

const (
	SettlementCredited      Settlement = "credited"
	SettlementClaimed       Settlement = "claimed"
	SettlementClaimRejected Settlement = "claim_rejected"
	SettlementForfeited     Settlement = "forfeited"
	settlementSkipped       Settlement = "skipped"
)

type SweepResult struct {
	Evaluated     int `json:"evaluated"`
	Credited      int `json:"credited"`
	CreditedHours int `json:"credited_hours"`
	Claimed       int `json:"claimed"`
	ClaimRejected int `json:"claim_rejected"`
	Forfeited     int `json:"forfeited"`
	Failed        int `json:"failed"`
}

// Sweeper settles overtime whose claim deadline has passed.
type Sweeper struct {
	tx          database.Transactor
	attendance  attendance.AttendanceRepository
	employees   employee.EmployeeRepository
	departments employee.DepartmentRepository
	requests    request.RequestRepository
	ledger      CompensatoryCreditor
	policy      *Policy
	notifier    notification.Notifier
	now         func() time.Time
}

func NewSweeper(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employees employee.EmployeeRepository,
	departments employee.DepartmentRepository,
	requests request.RequestRepository,
	ledger CompensatoryCreditor,
	policy *Policy,
	notifier notification.Notifier,
) *Sweeper {
	return &Sweeper{
		tx:          tx,
		attendance:  attendanceRepo,
		employees:   employees,
		departments: departments,
		requests:    requests,
		ledger:      ledger,
		policy:      policy,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *Sweeper) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := s.now().In(s.policy.loc)
	yesterday := utils.DateOf(now, s.policy.loc).AddDate(0, 0, -1)

	records, err := s.attendance.ListUnsettledOvertime(ctx, yesterday)
	if err != nil {
		return result, fmt.Errorf("failed to list unsettled overtime: %w", err)
	}

	for _, rec := range records {
		if !now.After(s.policy.ClaimDeadline(rec.LogDate)) {
			continue
		}

		settlement, hours, err := s.settle(ctx, rec, now)
		if err != nil {
			result.Failed++
			slog.Error("Sweeper: failed to settle overtime",
				"attendance_id", rec.ID, "employee_id", rec.EmployeeID,
				"date", rec.LogDate.Format(utils.DateLayout), "error", err)
			continue
		}

		switch settlement {
		case SettlementCredited:
			result.Evaluated++
			result.Credited++
			result.CreditedHours += hours
			s.notifyCredited(ctx, rec, hours)
		case SettlementClaimed:
			result.Evaluated++
			result.Claimed++
		case SettlementClaimRejected:
			result.Evaluated++
			result.ClaimRejected++
		case SettlementForfeited:
			result.Evaluated++
			result.Forfeited++
		}
	}

	return result, nil
}

// settle evaluates one record and zeroes its overtime in the same
// transaction as any credit.
func (s *Sweeper) settle(ctx context.Context, rec attendance.Attendance, now time.Time) (Settlement, int, error) {
	settlement := settlementSkipped
	hours := 0

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		settlement, hours = settlementSkipped, 0

		cur, err := s.attendance.GetByEmployeeAndDateForUpdate(ctx, rec.EmployeeID, rec.LogDate)
		if err != nil {
			return fmt.Errorf("failed to lock attendance: %w", err)
		}
		if cur == nil || cur.OvertimeSettled() || cur.OTMinutes <= 0 {
			return nil
		}

		claim, err := s.requests.FindOvertimeClaim(ctx, cur.EmployeeID, cur.LogDate)
		if err != nil {
			return fmt.Errorf("failed to look up overtime claim: %w", err)
		}

		switch {
		case claim != nil && claim.State == request.StateRejected:
			settlement = SettlementClaimRejected
		case claim != nil:
			settlement = SettlementClaimed
		default:
			settlement, hours, err = s.convert(ctx, *cur)
			if err != nil {
				return err
			}
		}

		if err := s.attendance.SettleOvertime(ctx, cur.ID, now); err != nil {
			return fmt.Errorf("failed to settle attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return settlement, hours, nil
}

func (s *Sweeper) convert(ctx context.Context, rec attendance.Attendance) (Settlement, int, error) {
	emp, err := s.employees.GetByID(ctx, rec.EmployeeID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get employee: %w", err)
	}
	dept, err := s.departments.GetByID(ctx, emp.DepartmentID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get department: %w", err)
	}

	hours := s.policy.ConversionHours(rec.OTMinutes, s.policy.Eligible(dept.Code), rec.LogDate)
	if hours == 0 {
		return SettlementForfeited, 0, nil
	}

	if _, err := s.ledger.CreditCompensatory(ctx, emp.ID, hours, rec.LogDate, nil); err != nil {
		if errors.Is(err, employee.ErrCompensatoryCeiling) {
			slog.Info("Sweeper: overtime forfeited at compensatory ceiling",
				"employee_id", emp.ID, "date", rec.LogDate.Format(utils.DateLayout), "hours", hours)
			return SettlementForfeited, 0, nil
		}
		return "", 0, fmt.Errorf("failed to credit compensatory hours: %w", err)
	}
	return SettlementCredited, hours, nil
}

func (s *Sweeper) notifyCredited(ctx context.Context, rec attendance.Attendance, hours int) {
	if s.notifier == nil {
		return
	}
	date := rec.LogDate.Format(utils.DateLayout)
	s.notifier.Notify(ctx, rec.EmployeeID, notification.Message{
		Type:    notification.TypeCompensatoryCredited,
		Title:   "Compensatory Hours Credited",
		Message: fmt.Sprintf("Unclaimed overtime on %s was converted into %d compensatory hours", date, hours),
		Data: map[string]interface{}{
			"date":  date,
			"hours": hours,
		},
	})
}
