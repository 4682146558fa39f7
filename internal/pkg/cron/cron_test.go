package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/overtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	mu      sync.Mutex
	windows [][2]time.Time
	absent  []time.Time
	release chan struct{}
	started chan struct{}
	syncErr error
}

func (f *fakeReconciler) Sync(ctx context.Context, from, to time.Time) (attendance.SyncResult, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, [2]time.Time{from, to})
	return attendance.SyncResult{Fetched: 2, Folded: 1}, f.syncErr
}

func (f *fakeReconciler) MarkAbsent(ctx context.Context, date time.Time) (attendance.MarkAbsentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.absent = append(f.absent, date)
	return attendance.MarkAbsentResult{Marked: 1}, nil
}

func (f *fakeReconciler) List(ctx context.Context, query attendance.ListAttendanceQuery) ([]attendance.AttendanceResponse, error) {
	return nil, nil
}

type fakeSweeper struct {
	calls int
}

func (f *fakeSweeper) Sweep(ctx context.Context) (overtime.SweepResult, error) {
	f.calls++
	return overtime.SweepResult{Evaluated: 1, Credited: 1, CreditedHours: 4}, nil
}

func newJobs(rec *fakeReconciler, sw *fakeSweeper, now time.Time) *AttendanceJobs {
	j := NewAttendanceJobs(rec, sw, NewGuard(), AttendanceJobsConfig{RunHour: 1, SyncLookbackDays: 1, Location: time.UTC})
	j.SetClock(func() time.Time { return now })
	return j
}

func TestGuard_SkipsWhileHeld(t *testing.T) {
	g := NewGuard()
	inside := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_, _ = g.Do(context.Background(), "first", func(ctx context.Context) error {
			close(inside)
			<-done
			return nil
		})
	}()
	<-inside

	ran, err := g.Do(context.Background(), "second", func(ctx context.Context) error {
		t.Fatal("must not run while guard is held")
		return nil
	})
	assert.False(t, ran)
	assert.NoError(t, err)
	close(done)

	assert.Eventually(t, func() bool {
		ran, _ := g.Do(context.Background(), "third", func(ctx context.Context) error { return nil })
		return ran
	}, time.Second, 5*time.Millisecond)
}

func TestGuard_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	ran, err := NewGuard().Do(context.Background(), "job", func(ctx context.Context) error { return boom })
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)
}

func TestSyncPunches_UsesLookbackWindow(t *testing.T) {
	rec := &fakeReconciler{}
	j := newJobs(rec, &fakeSweeper{}, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	require.NoError(t, j.SyncPunches(context.Background()))
	require.Len(t, rec.windows, 1)
	assert.Equal(t, utils.Date(2025, 3, 9), rec.windows[0][0])
	assert.Equal(t, utils.Date(2025, 3, 10), rec.windows[0][1])
}

func TestSyncWindow_ConflictsWithRunningSync(t *testing.T) {
	rec := &fakeReconciler{started: make(chan struct{}), release: make(chan struct{})}
	j := newJobs(rec, &fakeSweeper{}, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	errc := make(chan error, 1)
	go func() { errc <- j.SyncPunches(context.Background()) }()
	<-rec.started

	_, err := j.SyncWindow(context.Background(), utils.Date(2025, 3, 1), utils.Date(2025, 3, 2))
	assert.ErrorIs(t, err, attendance.ErrSyncInProgress)

	close(rec.release)
	assert.NoError(t, <-errc)
}

func TestSweepOvertime_OncePerDayAtRunHour(t *testing.T) {
	sw := &fakeSweeper{}
	now := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)
	j := newJobs(&fakeReconciler{}, sw, now)
	j.SetClock(func() time.Time { return now })

	require.NoError(t, j.SweepOvertime(context.Background()))
	assert.Equal(t, 0, sw.calls, "outside run hour")

	now = time.Date(2025, 3, 10, 1, 5, 0, 0, time.UTC)
	require.NoError(t, j.SweepOvertime(context.Background()))
	now = time.Date(2025, 3, 10, 1, 50, 0, 0, time.UTC)
	require.NoError(t, j.SweepOvertime(context.Background()))
	assert.Equal(t, 1, sw.calls)

	now = time.Date(2025, 3, 11, 1, 5, 0, 0, time.UTC)
	require.NoError(t, j.SweepOvertime(context.Background()))
	assert.Equal(t, 2, sw.calls)
}

func TestMarkAbsentYesterday(t *testing.T) {
	rec := &fakeReconciler{}
	j := newJobs(rec, &fakeSweeper{}, time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC))

	require.NoError(t, j.MarkAbsentYesterday(context.Background()))
	require.NoError(t, j.MarkAbsentYesterday(context.Background()))
	require.Len(t, rec.absent, 1)
	assert.Equal(t, utils.Date(2025, 3, 10), rec.absent[0])
}

func TestScheduler_RunByName(t *testing.T) {
	s := NewScheduler()
	calls := 0
	s.AddJob("a", time.Hour, func(ctx context.Context) error { calls++; return nil })

	require.NoError(t, s.Run(context.Background(), "a"))
	assert.Equal(t, 1, calls)
	assert.Error(t, s.Run(context.Background(), "missing"))

	s.RunOnce(context.Background())
	assert.Equal(t, 2, calls)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler()
	ran := make(chan struct{}, 10)
	s.AddJob("tick", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	s.Start()
	<-ran
	<-ran
	s.Stop()
}

func TestSweepNow_ReturnsResultOutsideRunHour(t *testing.T) {
	sw := &fakeSweeper{}
	j := newJobs(&fakeReconciler{}, sw, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	res, err := j.SweepNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sw.calls)
	assert.Equal(t, 4, res.CreditedHours)
}

func TestMarkAbsentOn_SkippedWhileSyncRuns(t *testing.T) {
	rec := &fakeReconciler{started: make(chan struct{}), release: make(chan struct{})}
	j := newJobs(rec, &fakeSweeper{}, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC))

	errc := make(chan error, 1)
	go func() { errc <- j.SyncPunches(context.Background()) }()
	<-rec.started

	_, err := j.MarkAbsentOn(context.Background(), utils.Date(2025, 3, 9))
	assert.ErrorIs(t, err, attendance.ErrSyncInProgress)

	close(rec.release)
	require.NoError(t, <-errc)

	res, err := j.MarkAbsentOn(context.Background(), utils.Date(2025, 3, 9))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Marked)
	assert.Equal(t, []time.Time{utils.Date(2025, 3, 9)}, rec.absent)
}
