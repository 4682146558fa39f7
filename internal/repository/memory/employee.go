package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
)

type employeeRepositoryImpl struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepositoryImpl{s: s}
}

func (r *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	var emp employee.Employee
	err := r.s.read(func(d *data) error {
		e, ok := d.employees[id]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		emp = cloneEmployee(e)
		return nil
	})
	return emp, err
}

// GetByIDForUpdate relies on the store serializing transactions.
func (r *employeeRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (employee.Employee, error) {
	return r.GetByID(ctx, id)
}

func (r *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return r.list(func(e employee.Employee) bool { return e.IsActive })
}

func (r *employeeRepositoryImpl) ListByRole(ctx context.Context, role employee.Role, departmentID *string) ([]employee.Employee, error) {
	return r.list(func(e employee.Employee) bool {
		if !e.IsActive || e.Role != role {
			return false
		}
		return departmentID == nil || e.DepartmentID == *departmentID
	})
}

func (r *employeeRepositoryImpl) list(keep func(employee.Employee) bool) ([]employee.Employee, error) {
	var out []employee.Employee
	_ = r.s.read(func(d *data) error {
		for _, e := range d.employees {
			if keep(e) {
				out = append(out, cloneEmployee(e))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

func (r *employeeRepositoryImpl) SaveLedger(ctx context.Context, emp employee.Employee) error {
	return r.s.write(ctx, func(d *data) error {
		stored, ok := d.employees[emp.ID]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		stored.PaidLeaveBalance = emp.PaidLeaveBalance
		stored.UnpaidLeaveTaken = emp.UnpaidLeaveTaken
		stored.CompensatoryBalanceHours = emp.CompensatoryBalanceHours
		stored.CompensatoryEntries = emp.CompensatoryEntries
		stored.LastPaidLeaveResetAt = emp.LastPaidLeaveResetAt
		stored.LastMonthlyLeaveCreditAt = emp.LastMonthlyLeaveCreditAt
		stored.UpdatedAt = r.s.now()
		d.employees[emp.ID] = cloneEmployee(stored)
		return nil
	})
}

type departmentRepositoryImpl struct {
	s *Store
}

func NewDepartmentRepository(s *Store) employee.DepartmentRepository {
	return &departmentRepositoryImpl{s: s}
}

func (r *departmentRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Department, error) {
	var dept employee.Department
	err := r.s.read(func(d *data) error {
		v, ok := d.departments[id]
		if !ok {
			return employee.ErrDepartmentNotFound
		}
		dept = v
		return nil
	})
	return dept, err
}
