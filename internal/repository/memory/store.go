// Package memory holds in-memory repositories for development and tests.
// All repositories built on one Store share its transactions.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
)

type txKey struct{}

type data struct {
	employees      map[string]employee.Employee
	departments    map[string]employee.Department
	punches        map[string]attendance.RawPunch
	punchKeys      map[string]string
	attendance     map[string]attendance.Attendance
	attendanceKeys map[string]string
	requests       map[string]request.Request
	notifications  []notification.Notification
}

func newData() data {
	return data{
		employees:      make(map[string]employee.Employee),
		departments:    make(map[string]employee.Department),
		punches:        make(map[string]attendance.RawPunch),
		punchKeys:      make(map[string]string),
		attendance:     make(map[string]attendance.Attendance),
		attendanceKeys: make(map[string]string),
		requests:       make(map[string]request.Request),
	}
}

// Store is a transactional in-memory database. Transactions are serialized
// and rolled back from a snapshot when fn fails.
type Store struct {
	// txMu serializes transactions and writes made outside of one.
	txMu sync.Mutex
	// mu guards d.
	mu sync.RWMutex
	d  data

	now func() time.Time
}

func NewStore() *Store {
	return &Store{d: newData(), now: time.Now}
}

// SetClock overrides the clock used for CreatedAt/UpdatedAt stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// WithinTx implements database.Transactor. Nested calls join the outer
// transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.d.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *Store) restore(snapshot data) {
	s.mu.Lock()
	s.d = snapshot
	s.mu.Unlock()
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write runs fn with exclusive access to the data. Outside a transaction it
// also waits for any running transaction to finish.
func (s *Store) write(ctx context.Context, fn func(d *data) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.d)
}

func (s *Store) read(fn func(d *data) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.d)
}

// PutEmployee seeds or replaces an employee.
func (s *Store) PutEmployee(emp employee.Employee) {
	_ = s.write(context.Background(), func(d *data) error {
		d.employees[emp.ID] = cloneEmployee(emp)
		return nil
	})
}

// PutDepartment seeds or replaces a department.
func (s *Store) PutDepartment(dept employee.Department) {
	_ = s.write(context.Background(), func(d *data) error {
		d.departments[dept.ID] = dept
		return nil
	})
}

// Notifications returns every stored notification, oldest first.
func (s *Store) Notifications() []notification.Notification {
	var out []notification.Notification
	_ = s.read(func(d *data) error {
		out = append(out, d.notifications...)
		return nil
	})
	return out
}

func (d data) clone() data {
	c := newData()
	for k, v := range d.employees {
		c.employees[k] = cloneEmployee(v)
	}
	for k, v := range d.departments {
		c.departments[k] = v
	}
	for k, v := range d.punches {
		c.punches[k] = v
	}
	for k, v := range d.punchKeys {
		c.punchKeys[k] = v
	}
	for k, v := range d.attendance {
		c.attendance[k] = cloneAttendance(v)
	}
	for k, v := range d.attendanceKeys {
		c.attendanceKeys[k] = v
	}
	for k, v := range d.requests {
		c.requests[k] = cloneRequest(v)
	}
	c.notifications = append(c.notifications, d.notifications...)
	return c
}

func cloneEmployee(e employee.Employee) employee.Employee {
	if e.CompensatoryEntries != nil {
		entries := make([]employee.CompensatoryEntry, len(e.CompensatoryEntries))
		copy(entries, e.CompensatoryEntries)
		e.CompensatoryEntries = entries
	}
	return e
}

func cloneAttendance(a attendance.Attendance) attendance.Attendance {
	if a.TimeIn != nil {
		t := *a.TimeIn
		a.TimeIn = &t
	}
	if a.TimeOut != nil {
		t := *a.TimeOut
		a.TimeOut = &t
	}
	if a.OTSettledAt != nil {
		t := *a.OTSettledAt
		a.OTSettledAt = &t
	}
	return a
}

func cloneRequest(r request.Request) request.Request {
	if r.Steps != nil {
		steps := make(request.Steps, len(r.Steps))
		copy(steps, r.Steps)
		r.Steps = steps
	}
	if r.Leave != nil {
		p := *r.Leave
		r.Leave = &p
	}
	if r.Overtime != nil {
		p := *r.Overtime
		r.Overtime = &p
	}
	if r.OutdoorDuty != nil {
		p := *r.OutdoorDuty
		r.OutdoorDuty = &p
	}
	return r
}
