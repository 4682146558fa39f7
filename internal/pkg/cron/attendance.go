package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/overtime"
)

const (
	JobPunchSync     = "punch_sync"
	JobOvertimeSweep = "overtime_sweep"
	JobMarkAbsent    = "mark_absent"
)

type OvertimeSweeper interface {
	Sweep(ctx context.Context) (overtime.SweepResult, error)
}

type AttendanceJobsConfig struct {
	SyncInterval  time.Duration
	SweepInterval time.Duration
	// RunHour is the local hour at which the daily jobs fire.
	RunHour int
	// SyncLookbackDays widens each sync window backwards so late punches
	// from the previous days are still picked up.
	SyncLookbackDays int
	Location         *time.Location
}

type AttendanceJobs struct {
	reconciler attendance.ReconcilerService
	sweeper    OvertimeSweeper
	guard      *Guard
	cfg        AttendanceJobsConfig
	now        func() time.Time

	mu      sync.Mutex
	lastRun map[string]string
}

func NewAttendanceJobs(
	reconciler attendance.ReconcilerService,
	sweeper OvertimeSweeper,
	guard *Guard,
	cfg AttendanceJobsConfig,
) *AttendanceJobs {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.SyncLookbackDays < 0 {
		cfg.SyncLookbackDays = 0
	}
	return &AttendanceJobs{
		reconciler: reconciler,
		sweeper:    sweeper,
		guard:      guard,
		cfg:        cfg,
		now:        time.Now,
		lastRun:    make(map[string]string),
	}
}

func (j *AttendanceJobs) SetClock(now func() time.Time) {
	j.now = now
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(JobPunchSync, j.cfg.SyncInterval, j.SyncPunches)
	scheduler.AddJob(JobOvertimeSweep, j.cfg.SweepInterval, j.SweepOvertime)
	scheduler.AddJob(JobMarkAbsent, j.cfg.SweepInterval, j.MarkAbsentYesterday)
}

// SyncPunches pulls the recent window from the time clock.
func (j *AttendanceJobs) SyncPunches(ctx context.Context) error {
	today := utils.DateOf(j.now(), j.cfg.Location)
	from := today.AddDate(0, 0, -j.cfg.SyncLookbackDays)
	_, err := j.SyncWindow(ctx, from, today)
	if errors.Is(err, attendance.ErrSyncInProgress) {
		return nil
	}
	return err
}

// SyncWindow syncs [from, to] unless another attendance run holds the guard.
func (j *AttendanceJobs) SyncWindow(ctx context.Context, from, to time.Time) (attendance.SyncResult, error) {
	var result attendance.SyncResult
	ran, err := j.guard.Do(ctx, JobPunchSync, func(ctx context.Context) error {
		slog.Info("Cron: Starting punch sync", "from", from.Format(utils.DateLayout), "to", to.Format(utils.DateLayout))
		res, err := j.reconciler.Sync(ctx, from, to)
		if err != nil {
			return fmt.Errorf("punch sync failed: %w", err)
		}
		result = res
		slog.Info("Cron: Punch sync completed",
			"fetched", res.Fetched, "inserted", res.Inserted, "skipped", res.Skipped,
			"folded", res.Folded, "unmatched", res.Unmatched, "failed_groups", res.FailedGroups)
		return nil
	})
	if err != nil {
		return result, err
	}
	if !ran {
		return result, attendance.ErrSyncInProgress
	}
	return result, nil
}

// SweepOvertime settles expired overtime once a day at the run hour.
func (j *AttendanceJobs) SweepOvertime(ctx context.Context) error {
	if !j.due(JobOvertimeSweep) {
		return nil
	}
	_, err := j.SweepNow(ctx)
	if errors.Is(err, attendance.ErrSyncInProgress) {
		return nil
	}
	if err == nil {
		j.markRun(JobOvertimeSweep)
	}
	return err
}

// SweepNow runs the overtime sweep unless one is already running.
func (j *AttendanceJobs) SweepNow(ctx context.Context) (overtime.SweepResult, error) {
	var result overtime.SweepResult
	ran, err := j.guard.Do(ctx, JobOvertimeSweep, func(ctx context.Context) error {
		slog.Info("Cron: Starting unclaimed overtime sweep")
		res, err := j.sweeper.Sweep(ctx)
		if err != nil {
			return fmt.Errorf("overtime sweep failed: %w", err)
		}
		result = res
		slog.Info("Cron: Overtime sweep completed",
			"evaluated", res.Evaluated, "credited", res.Credited, "credited_hours", res.CreditedHours,
			"claimed", res.Claimed, "claim_rejected", res.ClaimRejected, "forfeited", res.Forfeited, "failed", res.Failed)
		return nil
	})
	if err != nil {
		return result, err
	}
	if !ran {
		return result, attendance.ErrSyncInProgress
	}
	return result, nil
}

// MarkAbsentYesterday records absences for the previous day once a day at
// the run hour.
func (j *AttendanceJobs) MarkAbsentYesterday(ctx context.Context) error {
	if !j.due(JobMarkAbsent) {
		return nil
	}
	yesterday := utils.DateOf(j.now(), j.cfg.Location).AddDate(0, 0, -1)
	_, err := j.MarkAbsentOn(ctx, yesterday)
	if errors.Is(err, attendance.ErrSyncInProgress) {
		return nil
	}
	if err == nil {
		j.markRun(JobMarkAbsent)
	}
	return err
}

// MarkAbsentOn records absences for date unless a mark absent run is active.
func (j *AttendanceJobs) MarkAbsentOn(ctx context.Context, date time.Time) (attendance.MarkAbsentResult, error) {
	var result attendance.MarkAbsentResult
	ran, err := j.guard.Do(ctx, JobMarkAbsent, func(ctx context.Context) error {
		slog.Info("Cron: Starting mark absent", "date", date.Format(utils.DateLayout))
		res, err := j.reconciler.MarkAbsent(ctx, date)
		if err != nil {
			return fmt.Errorf("mark absent failed: %w", err)
		}
		result = res
		slog.Info("Cron: Mark absent completed", "marked", res.Marked, "covered", res.Covered)
		return nil
	})
	if err != nil {
		return result, err
	}
	if !ran {
		return result, attendance.ErrSyncInProgress
	}
	return result, nil
}

func (j *AttendanceJobs) due(name string) bool {
	now := j.now().In(j.cfg.Location)
	if now.Hour() != j.cfg.RunHour {
		return false
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun[name] != now.Format(utils.DateLayout)
}

func (j *AttendanceJobs) markRun(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.lastRun[name] = j.now().In(j.cfg.Location).Format(utils.DateLayout)
}
