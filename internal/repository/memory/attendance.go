package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/google/uuid"
)

type rawPunchRepositoryImpl struct {
	s *Store
}

func NewRawPunchRepository(s *Store) attendance.RawPunchRepository {
	return &rawPunchRepositoryImpl{s: s}
}

func (r *rawPunchRepositoryImpl) InsertBatch(ctx context.Context, punches []attendance.RawPunch) (int, error) {
	inserted := 0
	err := r.s.write(ctx, func(d *data) error {
		for _, p := range punches {
			key := p.Key()
			if _, exists := d.punchKeys[key]; exists {
				continue
			}
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			p.Processed = false
			p.CreatedAt = r.s.now()
			d.punches[p.ID] = p
			d.punchKeys[key] = p.ID
			inserted++
		}
		return nil
	})
	return inserted, err
}

func (r *rawPunchRepositoryImpl) ListUnprocessed(ctx context.Context) ([]attendance.RawPunch, error) {
	var out []attendance.RawPunch
	_ = r.s.read(func(d *data) error {
		for _, p := range d.punches {
			if !p.Processed {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LogDate.Equal(out[j].LogDate) {
			return out[i].LogDate.Before(out[j].LogDate)
		}
		return out[i].LogTime < out[j].LogTime
	})
	return out, nil
}

func (r *rawPunchRepositoryImpl) MarkProcessed(ctx context.Context, ids []string) error {
	return r.s.write(ctx, func(d *data) error {
		for _, id := range ids {
			if p, ok := d.punches[id]; ok {
				p.Processed = true
				d.punches[id] = p
			}
		}
		return nil
	})
}

func (r *rawPunchRepositoryImpl) DeleteProcessed(ctx context.Context, ids []string) error {
	return r.s.write(ctx, func(d *data) error {
		for _, id := range ids {
			p, ok := d.punches[id]
			if !ok || !p.Processed {
				continue
			}
			delete(d.punches, id)
			delete(d.punchKeys, p.Key())
		}
		return nil
	})
}

type attendanceRepositoryImpl struct {
	s *Store
}

func NewAttendanceRepository(s *Store) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{s: s}
}

func attendanceKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	var out *attendance.Attendance
	_ = r.s.read(func(d *data) error {
		id, ok := d.attendanceKeys[attendanceKey(employeeID, date)]
		if !ok {
			return nil
		}
		a := cloneAttendance(d.attendance[id])
		out = &a
		return nil
	})
	return out, nil
}

func (r *attendanceRepositoryImpl) GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	return r.GetByEmployeeAndDate(ctx, employeeID, date)
}

func (r *attendanceRepositoryImpl) Upsert(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	err := r.s.write(ctx, func(d *data) error {
		now := r.s.now()
		key := attendanceKey(a.EmployeeID, a.LogDate)
		if id, ok := d.attendanceKeys[key]; ok {
			a.ID = id
			a.CreatedAt = d.attendance[id].CreatedAt
		} else {
			if a.ID == "" {
				a.ID = uuid.NewString()
			}
			a.CreatedAt = now
			d.attendanceKeys[key] = a.ID
		}
		a.UpdatedAt = now
		d.attendance[a.ID] = cloneAttendance(a)
		return nil
	})
	return a, err
}

func (r *attendanceRepositoryImpl) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, error) {
	return r.list(func(a attendance.Attendance) bool {
		if filter.EmployeeID != "" && a.EmployeeID != filter.EmployeeID {
			return false
		}
		if filter.From != nil && a.LogDate.Before(*filter.From) {
			return false
		}
		if filter.To != nil && a.LogDate.After(*filter.To) {
			return false
		}
		return true
	}), nil
}

func (r *attendanceRepositoryImpl) ListUnsettledOvertime(ctx context.Context, onOrBefore time.Time) ([]attendance.Attendance, error) {
	return r.list(func(a attendance.Attendance) bool {
		return a.OTMinutes > 0 && a.OTSettledAt == nil && !a.LogDate.After(onOrBefore)
	}), nil
}

func (r *attendanceRepositoryImpl) list(keep func(attendance.Attendance) bool) []attendance.Attendance {
	var out []attendance.Attendance
	_ = r.s.read(func(d *data) error {
		for _, a := range d.attendance {
			if keep(a) {
				out = append(out, cloneAttendance(a))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LogDate.Equal(out[j].LogDate) {
			return out[i].LogDate.Before(out[j].LogDate)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func (r *attendanceRepositoryImpl) SettleOvertime(ctx context.Context, id string, at time.Time) error {
	return r.s.write(ctx, func(d *data) error {
		a, ok := d.attendance[id]
		if !ok {
			return attendance.ErrAttendanceNotFound
		}
		a.OTMinutes = 0
		a.OTSettledAt = &at
		a.UpdatedAt = r.s.now()
		d.attendance[id] = a
		return nil
	})
}
