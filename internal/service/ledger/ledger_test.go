package ledger

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T, emp employee.Employee) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.PutEmployee(emp)
	svc := NewService(store, memory.NewEmployeeRepository(store), memory.NewRequestRepository(store), Policy{
		Accrual:                testPolicy,
		CompensatoryExpiryDays: 90,
	})
	svc.SetClock(func() time.Time { return now })
	return svc, store
}

// confirmed returns an employee whose yearly reset already happened this year.
func confirmed(balance int64) employee.Employee {
	reset := now.AddDate(0, -1, 0)
	return employee.Employee{
		ID:                   "emp-1",
		EmployeeType:         employee.EmployeeTypeConfirmed,
		IsActive:             true,
		PaidLeaveBalance:     decimal.NewFromInt(balance),
		LastPaidLeaveResetAt: &reset,
	}
}

func TestDeduct_InsufficientBalanceLeavesBalance(t *testing.T) {
	svc, _ := setup(t, confirmed(2))
	ctx := context.Background()

	_, err := svc.Deduct(ctx, "emp-1", decimal.NewFromInt(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, employee.ErrInsufficientBalance)
	assert.Equal(t, apperror.CodeInsufficientBalance, apperror.GetCode(err))

	bal, err := svc.Balance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "2", bal.PaidLeaveBalance.String())

	emp, err := svc.Deduct(ctx, "emp-1", decimal.NewFromFloat(1.5))
	require.NoError(t, err)
	assert.Equal(t, "0.5", emp.PaidLeaveBalance.String())
}

func TestCheckBalance_UnsetWatermarkKeepsBalance(t *testing.T) {
	emp := confirmed(2)
	emp.LastPaidLeaveResetAt = nil
	svc, _ := setup(t, emp)
	ctx := context.Background()

	err := svc.CheckBalance(ctx, "emp-1", decimal.NewFromInt(3))
	assert.ErrorIs(t, err, employee.ErrInsufficientBalance)

	bal, err := svc.Balance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "2", bal.PaidLeaveBalance.String())
	require.NotNil(t, bal.LastPaidLeaveResetAt, "watermark stamped on first touch")
}

func TestDeduct_RejectsNonPositive(t *testing.T) {
	svc, _ := setup(t, confirmed(2))
	_, err := svc.Deduct(context.Background(), "emp-1", decimal.Zero)
	assert.ErrorIs(t, err, employee.ErrInvalidAmount)
}

func TestBalanceNeverNegative(t *testing.T) {
	emp := employee.Employee{ID: "emp-1", EmployeeType: employee.EmployeeTypeIntern, IsActive: true}
	svc, _ := setup(t, emp)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	clock := now

	for i := 0; i < 200; i++ {
		if rng.Intn(4) == 0 {
			clock = clock.AddDate(0, 0, rng.Intn(40))
			at := clock
			svc.SetClock(func() time.Time { return at })
			_, err := svc.Accrue(ctx, "emp-1")
			require.NoError(t, err)
		} else {
			days := decimal.NewFromFloat(float64(rng.Intn(6)+1) / 2)
			_, err := svc.Deduct(ctx, "emp-1", days)
			if err != nil {
				require.ErrorIs(t, err, employee.ErrInsufficientBalance)
			}
		}

		bal, err := svc.Balance(ctx, "emp-1")
		require.NoError(t, err)
		require.False(t, bal.PaidLeaveBalance.IsNegative(), "step %d", i)
	}
}

func TestCreditUnpaid(t *testing.T) {
	svc, _ := setup(t, confirmed(0))
	ctx := context.Background()

	_, err := svc.CreditUnpaid(ctx, "emp-1", decimal.NewFromInt(2))
	require.NoError(t, err)
	emp, err := svc.CreditUnpaid(ctx, "emp-1", decimal.NewFromFloat(0.5))
	require.NoError(t, err)
	assert.Equal(t, "2.5", emp.UnpaidLeaveTaken.String())
}

func TestCreditCompensatory_Ceiling(t *testing.T) {
	svc, _ := setup(t, confirmed(0))
	ctx := context.Background()
	date := utils.Date(2025, 3, 9)

	for i := 0; i < 5; i++ {
		_, err := svc.CreditCompensatory(ctx, "emp-1", 8, date, nil)
		require.NoError(t, err)
	}

	_, err := svc.CreditCompensatory(ctx, "emp-1", 4, date, nil)
	assert.ErrorIs(t, err, employee.ErrCompensatoryCeiling)
	assert.Equal(t, apperror.CodeValidation, apperror.GetCode(err))
	assert.ErrorIs(t, svc.CheckCompensatoryHeadroom(ctx, "emp-1", 1), employee.ErrCompensatoryCeiling)

	bal, err := svc.Balance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 40, bal.CompensatoryBalanceHours)
	assert.Len(t, bal.CompensatoryEntries, 5)
}

func TestConsumeCompensatory_ExactMatch(t *testing.T) {
	svc, _ := setup(t, confirmed(0))
	ctx := context.Background()

	entry, err := svc.CreditCompensatory(ctx, "emp-1", 8, utils.Date(2025, 3, 9), nil)
	require.NoError(t, err)

	_, err = svc.ConsumeCompensatory(ctx, "emp-1", entry.ID, 4, "req-1")
	assert.ErrorIs(t, err, employee.ErrCompensatoryHoursMismatch)

	_, err = svc.ConsumeCompensatory(ctx, "emp-1", "missing", 8, "req-1")
	assert.ErrorIs(t, err, employee.ErrCompensatoryEntryNotFound)

	emp, err := svc.ConsumeCompensatory(ctx, "emp-1", entry.ID, 8, "req-1")
	require.NoError(t, err)
	assert.Equal(t, 0, emp.CompensatoryBalanceHours)
	assert.Equal(t, employee.CompensatoryConsumed, emp.CompensatoryEntries[0].Status)

	_, err = svc.ConsumeCompensatory(ctx, "emp-1", entry.ID, 8, "req-2")
	assert.ErrorIs(t, err, employee.ErrCompensatoryEntryUnavailable)
}

func TestCompensatoryEntriesExpire(t *testing.T) {
	svc, _ := setup(t, confirmed(0))
	ctx := context.Background()

	entry, err := svc.CreditCompensatory(ctx, "emp-1", 4, utils.Date(2024, 11, 1), nil)
	require.NoError(t, err)

	bal, err := svc.Balance(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, 0, bal.CompensatoryBalanceHours)
	assert.Equal(t, employee.CompensatoryExpired, bal.CompensatoryEntries[0].Status)

	assert.ErrorIs(t, svc.CheckCompensatoryEntry(ctx, "emp-1", entry.ID, 4), employee.ErrCompensatoryEntryUnavailable)
}

func TestCheckConsecutivePaidFor_UsesApprovedPaidLeave(t *testing.T) {
	svc, store := setup(t, confirmed(10))
	ctx := context.Background()
	requests := memory.NewRequestRepository(store)

	leave := func(state request.State, typ request.LeaveType, from, to int) {
		_, err := requests.Create(ctx, request.Request{
			EmployeeID: "emp-1",
			Kind:       request.KindLeave,
			State:      state,
			Leave:      &request.LeavePayload{LeaveType: typ, StartDate: utils.Date(2025, 3, from), EndDate: utils.Date(2025, 3, to)},
		})
		require.NoError(t, err)
	}
	leave(request.StateApproved, request.LeaveTypePaid, 1, 2)
	leave(request.StateStage1Pending, request.LeaveTypePaid, 5, 6)
	leave(request.StateApproved, request.LeaveTypeUnpaid, 8, 9)

	assert.ErrorIs(t, svc.CheckConsecutivePaidFor(ctx, "emp-1", day(3), ""), employee.ErrConsecutivePaidLeave)
	assert.NoError(t, svc.CheckConsecutivePaidFor(ctx, "emp-1", day(4), ""))
	assert.NoError(t, svc.CheckConsecutivePaidFor(ctx, "emp-1", day(7), ""), "pending leave is not counted")
	assert.NoError(t, svc.CheckConsecutivePaidFor(ctx, "emp-1", day(10), ""), "unpaid leave is not counted")
}

func TestLedger_UnknownEmployee(t *testing.T) {
	svc, _ := setup(t, confirmed(0))
	_, err := svc.Balance(context.Background(), "nobody")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	assert.Equal(t, apperror.CodeNotFound, apperror.GetCode(err))
}
