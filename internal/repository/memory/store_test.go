package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	s.PutEmployee(employee.Employee{ID: "emp-1", IsActive: true, PaidLeaveBalance: decimal.NewFromInt(5)})
	repo := NewEmployeeRepository(s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		emp, err := repo.GetByIDForUpdate(ctx, "emp-1")
		require.NoError(t, err)
		emp.PaidLeaveBalance = decimal.NewFromInt(1)
		require.NoError(t, repo.SaveLedger(ctx, emp))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	emp, err := repo.GetByID(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, emp.PaidLeaveBalance.Equal(decimal.NewFromInt(5)))
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	s := NewStore()
	s.PutEmployee(employee.Employee{ID: "emp-1", IsActive: true})
	repo := NewEmployeeRepository(s)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			emp, err := repo.GetByID(ctx, "emp-1")
			if err != nil {
				return err
			}
			emp.CompensatoryBalanceHours = 4
			return repo.SaveLedger(ctx, emp)
		})
	})
	require.NoError(t, err)

	emp, _ := repo.GetByID(ctx, "emp-1")
	assert.Equal(t, 4, emp.CompensatoryBalanceHours)
}

func TestRawPunch_InsertBatchDeduplicates(t *testing.T) {
	s := NewStore()
	repo := NewRawPunchRepository(s)
	ctx := context.Background()
	day := utils.Date(2025, 3, 10)

	punches := []attendance.RawPunch{
		{ExternalUserID: "101", LogDate: day, LogTime: "08:00:00", Direction: attendance.DirectionIn},
		{ExternalUserID: "101", LogDate: day, LogTime: "08:00:00", Direction: attendance.DirectionIn},
		{ExternalUserID: "101", LogDate: day, LogTime: "17:00:00", Direction: attendance.DirectionOut},
	}
	n, err := repo.InsertBatch(ctx, punches)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.InsertBatch(ctx, punches)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	staged, err := repo.ListUnprocessed(ctx)
	require.NoError(t, err)
	require.Len(t, staged, 2)
	assert.Equal(t, "08:00:00", staged[0].LogTime)

	ids := []string{staged[0].ID, staged[1].ID}
	require.NoError(t, repo.DeleteProcessed(ctx, ids))
	staged, _ = repo.ListUnprocessed(ctx)
	assert.Len(t, staged, 2, "unprocessed punches are not deleted")

	require.NoError(t, repo.MarkProcessed(ctx, ids))
	require.NoError(t, repo.DeleteProcessed(ctx, ids))
	staged, _ = repo.ListUnprocessed(ctx)
	assert.Empty(t, staged)
}

func TestAttendance_UpsertKeepsOneRowPerDay(t *testing.T) {
	s := NewStore()
	repo := NewAttendanceRepository(s)
	ctx := context.Background()
	day := utils.Date(2025, 3, 10)

	first, err := repo.Upsert(ctx, attendance.Attendance{EmployeeID: "emp-1", LogDate: day, Status: attendance.StatusAbsent})
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, attendance.Attendance{EmployeeID: "emp-1", LogDate: day, Status: attendance.StatusPresent, OTMinutes: 90})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := repo.List(ctx, attendance.AttendanceFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, attendance.StatusPresent, all[0].Status)

	pending, _ := repo.ListUnsettledOvertime(ctx, day)
	require.Len(t, pending, 1)

	require.NoError(t, repo.SettleOvertime(ctx, second.ID, time.Now()))
	pending, _ = repo.ListUnsettledOvertime(ctx, day)
	assert.Empty(t, pending)
}

func TestRequest_UpdateChecksVersion(t *testing.T) {
	s := NewStore()
	repo := NewRequestRepository(s)
	ctx := context.Background()

	created, err := repo.Create(ctx, request.Request{EmployeeID: "emp-1", Kind: request.KindLeave, State: request.StateStage1Pending})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	_, err = repo.Update(ctx, created)
	assert.ErrorIs(t, err, request.ErrVersionConflict)
}

func TestRequest_OneOvertimeClaimPerDay(t *testing.T) {
	s := NewStore()
	repo := NewRequestRepository(s)
	ctx := context.Background()
	day := utils.Date(2025, 3, 9)
	claim := request.Request{
		EmployeeID: "emp-1",
		Kind:       request.KindOvertimeClaim,
		Overtime:   &request.OvertimePayload{Date: day, Hours: 2},
	}

	_, err := repo.Create(ctx, claim)
	require.NoError(t, err)
	_, err = repo.Create(ctx, claim)
	assert.ErrorIs(t, err, request.ErrOvertimeClaimExists)

	found, err := repo.FindOvertimeClaim(ctx, "emp-1", day)
	require.NoError(t, err)
	require.NotNil(t, found)
}
