package overtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[string][]notification.Message
}

func (n *recordingNotifier) Notify(ctx context.Context, recipientID string, msg notification.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = make(map[string][]notification.Message)
	}
	n.sent[recipientID] = append(n.sent[recipientID], msg)
}

type fixture struct {
	store      *memory.Store
	attendance attendance.AttendanceRepository
	employees  employee.EmployeeRepository
	requests   request.RequestRepository
	ledger     *ledger.Service
	notifier   *recordingNotifier
	sweeper    *Sweeper
}

// afterDeadlines is past the claim deadline of every date used below.
var afterDeadlines = time.Date(2025, 3, 7, 1, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.PutDepartment(employee.Department{ID: "dept-eng", Code: "ENG", Name: "Engineering"})
	store.PutDepartment(employee.Department{ID: "dept-sales", Code: "SALES", Name: "Sales"})

	reset := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, e := range []struct{ id, dept string }{{"eng-1", "dept-eng"}, {"sales-1", "dept-sales"}} {
		store.PutEmployee(employee.Employee{
			ID:                   e.id,
			EmployeeCode:         e.id,
			Role:                 employee.RoleEmployee,
			EmployeeType:         employee.EmployeeTypeConfirmed,
			DepartmentID:         e.dept,
			IsActive:             true,
			PaidLeaveBalance:     decimal.NewFromInt(12),
			LastPaidLeaveResetAt: &reset,
		})
	}

	f := &fixture{
		store:      store,
		attendance: memory.NewAttendanceRepository(store),
		employees:  memory.NewEmployeeRepository(store),
		requests:   memory.NewRequestRepository(store),
		notifier:   &recordingNotifier{},
	}
	f.ledger = ledger.NewService(store, f.employees, f.requests, ledger.Policy{Location: time.UTC})
	f.ledger.SetClock(func() time.Time { return afterDeadlines })
	f.sweeper = NewSweeper(store, f.attendance, f.employees, memory.NewDepartmentRepository(store), f.requests, f.ledger, newPolicy(), f.notifier)
	f.sweeper.SetClock(func() time.Time { return afterDeadlines })
	return f
}

func (f *fixture) overtime(t *testing.T, employeeID string, date time.Time, minutes int) attendance.Attendance {
	t.Helper()
	a, err := f.attendance.Upsert(context.Background(), attendance.Attendance{
		EmployeeID:  employeeID,
		LogDate:     date,
		WorkMinutes: 540 + minutes,
		OTMinutes:   minutes,
		Status:      attendance.StatusPresent,
		Source:      attendance.SourcePunch,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) record(t *testing.T, employeeID string, date time.Time) attendance.Attendance {
	t.Helper()
	a, err := f.attendance.GetByEmployeeAndDate(context.Background(), employeeID, date)
	require.NoError(t, err)
	require.NotNil(t, a)
	return *a
}

func TestSweep_EligibleWeekdayFiveHoursCreditsFour(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.overtime(t, "eng-1", wednesday, 300)

	res, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Evaluated: 1, Credited: 1, CreditedHours: 4}, res)

	rec := f.record(t, "eng-1", wednesday)
	assert.Equal(t, 0, rec.OTMinutes)
	assert.NotNil(t, rec.OTSettledAt)

	bal, err := f.ledger.Balance(ctx, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, 4, bal.CompensatoryBalanceHours)
	require.Len(t, bal.CompensatoryEntries, 1)
	assert.Equal(t, "2025-03-05", bal.CompensatoryEntries[0].Date)
	assert.Len(t, f.notifier.sent["eng-1"], 1)
}

func TestSweep_NonEligibleTuesdayForfeits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.overtime(t, "sales-1", tuesday, 360)

	res, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Evaluated: 1, Forfeited: 1}, res)

	rec := f.record(t, "sales-1", tuesday)
	assert.Equal(t, 0, rec.OTMinutes)
	assert.NotNil(t, rec.OTSettledAt)

	bal, err := f.ledger.Balance(ctx, "sales-1")
	require.NoError(t, err)
	assert.Equal(t, 0, bal.CompensatoryBalanceHours)
	assert.Empty(t, f.notifier.sent["sales-1"])
}

func TestSweep_NonEligibleSundayConverts(t *testing.T) {
	f := newFixture(t)
	f.overtime(t, "sales-1", sunday, 540)

	res, err := f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, res.CreditedHours)
}

func TestSweep_ClaimedOvertimeSettlesWithoutCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.overtime(t, "eng-1", wednesday, 300)
	_, err := f.requests.Create(ctx, request.Request{
		EmployeeID: "eng-1",
		Kind:       request.KindOvertimeClaim,
		State:      request.StateStage1Pending,
		Overtime:   &request.OvertimePayload{Date: wednesday, Hours: 5, Track: request.TrackCompensatory},
	})
	require.NoError(t, err)

	res, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Evaluated: 1, Claimed: 1}, res)

	bal, _ := f.ledger.Balance(ctx, "eng-1")
	assert.Equal(t, 0, bal.CompensatoryBalanceHours)
	assert.Equal(t, 0, f.record(t, "eng-1", wednesday).OTMinutes)
}

func TestSweep_RejectedClaimCountedSeparately(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.overtime(t, "eng-1", wednesday, 300)
	_, err := f.requests.Create(ctx, request.Request{
		EmployeeID: "eng-1",
		Kind:       request.KindOvertimeClaim,
		State:      request.StateRejected,
		Overtime:   &request.OvertimePayload{Date: wednesday, Hours: 5, Track: request.TrackCompensatory},
	})
	require.NoError(t, err)

	res, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Evaluated: 1, ClaimRejected: 1}, res)

	bal, err := f.ledger.Balance(ctx, "eng-1")
	require.NoError(t, err)
	assert.Equal(t, 0, bal.CompensatoryBalanceHours, "a turned down claim earns no credit")
	assert.Equal(t, 0, f.record(t, "eng-1", wednesday).OTMinutes)
}

func TestSweep_CeilingForfeits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.ledger.CreditCompensatory(ctx, "eng-1", 8, sunday, nil)
		require.NoError(t, err)
	}
	f.overtime(t, "eng-1", wednesday, 300)

	res, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Evaluated: 1, Forfeited: 1}, res)
	assert.Equal(t, 0, f.record(t, "eng-1", wednesday).OTMinutes)
}

func TestSweep_WaitsForDeadlineAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.overtime(t, "eng-1", wednesday, 300)

	f.sweeper.SetClock(func() time.Time { return time.Date(2025, 3, 6, 23, 0, 0, 0, time.UTC) })
	res, err := f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
	assert.Equal(t, 300, f.record(t, "eng-1", wednesday).OTMinutes)

	f.sweeper.SetClock(func() time.Time { return afterDeadlines })
	res, err = f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Credited)

	res, err = f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)

	bal, _ := f.ledger.Balance(ctx, "eng-1")
	assert.Equal(t, 4, bal.CompensatoryBalanceHours)
}

func TestSweep_UnknownEmployeeIsRetried(t *testing.T) {
	f := newFixture(t)
	f.overtime(t, "ghost", wednesday, 300)

	res, err := f.sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 300, f.record(t, "ghost", wednesday).OTMinutes, "record stays for the next run")
}
