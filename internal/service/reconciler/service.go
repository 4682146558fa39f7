package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
)

type Config struct {
	// StandardWorkMinutes is the length of a regular working day.
	StandardWorkMinutes int
	FetchTimeout        time.Duration
	Location            *time.Location
}

// Service folds time clock punches into one attendance record per employee
// per day.
type Service struct {
	tx         database.Transactor
	source     attendance.PunchSource
	punches    attendance.RawPunchRepository
	attendance attendance.AttendanceRepository
	employees  employee.EmployeeRepository
	requests   request.RequestRepository
	cfg        Config
	now        func() time.Time
}

func NewService(
	tx database.Transactor,
	source attendance.PunchSource,
	punches attendance.RawPunchRepository,
	attendanceRepo attendance.AttendanceRepository,
	employees employee.EmployeeRepository,
	requests request.RequestRepository,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.StandardWorkMinutes <= 0 {
		cfg.StandardWorkMinutes = 540
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &Service{
		tx:         tx,
		source:     source,
		punches:    punches,
		attendance: attendanceRepo,
		employees:  employees,
		requests:   requests,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Sync fetches punches for [from, to] and folds every staged punch. A fetch
// failure aborts the run before anything is written.
func (s *Service) Sync(ctx context.Context, from, to time.Time) (attendance.SyncResult, error) {
	var result attendance.SyncResult

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	rows, err := s.source.Fetch(fetchCtx, from, to)
	cancel()
	if err != nil {
		slog.Error("Reconciler: punch source fetch failed", "from", from.Format(utils.DateLayout), "to", to.Format(utils.DateLayout), "error", err)
		return result, fmt.Errorf("%w: %w", attendance.ErrPunchSourceUnavailable, err)
	}
	result.Fetched = len(rows)

	window := utils.NewDateRange(from, to)
	staged := make([]attendance.RawPunch, 0, len(rows))
	for _, row := range rows {
		p, err := normalize(row)
		if err != nil {
			result.Skipped++
			slog.Warn("Reconciler: skipping malformed punch", "user_id", row.ExternalUserID, "log_date", row.LogDate, "log_time", row.LogTime, "error", err)
			continue
		}
		if !window.Contains(p.LogDate) {
			result.Skipped++
			continue
		}
		staged = append(staged, p)
	}

	if result.Inserted, err = s.punches.InsertBatch(ctx, staged); err != nil {
		return result, fmt.Errorf("failed to stage punches: %w", err)
	}

	if err := s.fold(ctx, &result); err != nil {
		return result, err
	}

	slog.Info("Reconciler: sync finished",
		"fetched", result.Fetched, "inserted", result.Inserted, "folded", result.Folded,
		"unmatched", result.Unmatched, "failed_groups", result.FailedGroups)
	return result, nil
}

type groupKey struct {
	employeeID string
	date       string
}

type group struct {
	employeeID string
	date       time.Time
	punches    []attendance.RawPunch
}

// fold groups staged punches by employee and day and folds each group on its own.
func (s *Service) fold(ctx context.Context, result *attendance.SyncResult) error {
	staged, err := s.punches.ListUnprocessed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list staged punches: %w", err)
	}
	if len(staged) == 0 {
		return nil
	}

	roster, err := s.employees.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	byBiometric := make(map[string]string, len(roster))
	for _, emp := range roster {
		if emp.BiometricID != "" {
			byBiometric[emp.BiometricID] = emp.ID
		}
	}

	groups := make(map[groupKey]*group)
	var order []groupKey
	unmatched := make(map[string]int)
	for _, p := range staged {
		employeeID, ok := byBiometric[p.ExternalUserID]
		if !ok {
			unmatched[p.ExternalUserID]++
			result.Unmatched++
			continue
		}
		key := groupKey{employeeID: employeeID, date: p.LogDate.Format(utils.DateLayout)}
		g, ok := groups[key]
		if !ok {
			g = &group{employeeID: employeeID, date: p.LogDate}
			groups[key] = g
			order = append(order, key)
		}
		g.punches = append(g.punches, p)
	}

	for userID, n := range unmatched {
		slog.Warn("Reconciler: punches do not match any active employee", "user_id", userID, "punches", n)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].date != order[j].date {
			return order[i].date < order[j].date
		}
		return order[i].employeeID < order[j].employeeID
	})

	for _, key := range order {
		g := groups[key]
		if err := s.foldGroup(ctx, g); err != nil {
			result.FailedGroups++
			slog.Error("Reconciler: failed to fold punches",
				"employee_id", g.employeeID, "date", key.date, "punches", len(g.punches), "error", err)
			continue
		}
		result.Folded++
	}
	return nil
}

type timedPunch struct {
	punch attendance.RawPunch
	clock time.Duration
}

// foldGroup merges one employee-day of punches into its attendance record
// atomically.
func (s *Service) foldGroup(ctx context.Context, g *group) error {
	timed := make([]timedPunch, 0, len(g.punches))
	ids := make([]string, 0, len(g.punches))
	for _, p := range g.punches {
		clock, err := validator.ParseClock(p.LogTime)
		if err != nil {
			return fmt.Errorf("punch %s: %w", p.ID, err)
		}
		timed = append(timed, timedPunch{punch: p, clock: clock})
		ids = append(ids, p.ID)
	}
	sort.SliceStable(timed, func(i, j int) bool {
		if timed[i].clock != timed[j].clock {
			return timed[i].clock < timed[j].clock
		}
		return timed[i].punch.Direction == attendance.DirectionIn && timed[j].punch.Direction != attendance.DirectionIn
	})

	timeIn := utils.At(g.date, timed[0].clock, s.cfg.Location)
	timeOut := utils.At(g.date, timed[len(timed)-1].clock, s.cfg.Location)

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.attendance.GetByEmployeeAndDateForUpdate(ctx, g.employeeID, g.date)
		if err != nil {
			return fmt.Errorf("failed to lock attendance: %w", err)
		}

		rec := attendance.Attendance{EmployeeID: g.employeeID, LogDate: g.date}
		if existing != nil {
			rec = *existing
		}
		if rec.TimeIn == nil || timeIn.Before(*rec.TimeIn) {
			rec.TimeIn = &timeIn
		}
		if rec.TimeOut == nil || timeOut.After(*rec.TimeOut) {
			rec.TimeOut = &timeOut
		}
		rec.Status = attendance.StatusPresent
		rec.Source = attendance.SourcePunch

		if !rec.OvertimeSettled() {
			rec.WorkMinutes = int(rec.TimeOut.Sub(*rec.TimeIn).Minutes())
			rec.OTMinutes = s.overtimeMinutes(rec.WorkMinutes, g.date)
		}

		if _, err := s.attendance.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("failed to upsert attendance: %w", err)
		}
		if err := s.punches.MarkProcessed(ctx, ids); err != nil {
			return fmt.Errorf("failed to mark punches processed: %w", err)
		}
		if err := s.punches.DeleteProcessed(ctx, ids); err != nil {
			return fmt.Errorf("failed to delete processed punches: %w", err)
		}
		return nil
	})
}

// overtimeMinutes counts everything past a standard day, or the whole day
// on the weekly off day.
func (s *Service) overtimeMinutes(workMinutes int, date time.Time) int {
	if isWeeklyOff(date) {
		return workMinutes
	}
	if ot := workMinutes - s.cfg.StandardWorkMinutes; ot > 0 {
		return ot
	}
	return 0
}

func isWeeklyOff(date time.Time) bool {
	return date.Weekday() == time.Sunday
}

// MarkAbsent records absence on date for active employees with no
// attendance and no approved leave or outdoor duty covering it.
func (s *Service) MarkAbsent(ctx context.Context, date time.Time) (attendance.MarkAbsentResult, error) {
	var result attendance.MarkAbsentResult

	today := utils.DateOf(s.now(), s.cfg.Location)
	if !date.Before(today) {
		return result, validator.Field("date", "date must be before today")
	}
	if isWeeklyOff(date) {
		return result, nil
	}

	roster, err := s.employees.ListActive(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load roster: %w", err)
	}
	covering, err := s.requests.ListApprovedCovering(ctx, date)
	if err != nil {
		return result, fmt.Errorf("failed to list approved requests: %w", err)
	}
	covered := make(map[string]bool, len(covering))
	for _, r := range covering {
		covered[r.EmployeeID] = true
	}

	for _, emp := range roster {
		if covered[emp.ID] {
			result.Covered++
			continue
		}
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			existing, err := s.attendance.GetByEmployeeAndDateForUpdate(ctx, emp.ID, date)
			if err != nil || existing != nil {
				return err
			}
			_, err = s.attendance.Upsert(ctx, attendance.Attendance{
				EmployeeID: emp.ID,
				LogDate:    date,
				Status:     attendance.StatusAbsent,
				Source:     attendance.SourceAbsence,
			})
			if err == nil {
				result.Marked++
			}
			return err
		})
		if err != nil {
			slog.Error("Reconciler: failed to mark absence", "employee_id", emp.ID, "date", date.Format(utils.DateLayout), "error", err)
		}
	}

	slog.Info("Reconciler: absences marked", "date", date.Format(utils.DateLayout), "marked", result.Marked, "covered", result.Covered)
	return result, nil
}

func (s *Service) List(ctx context.Context, query attendance.ListAttendanceQuery) ([]attendance.AttendanceResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	recs, err := s.attendance.List(ctx, query.Filter())
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	out := make([]attendance.AttendanceResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, attendance.NewAttendanceResponse(rec))
	}
	return out, nil
}
