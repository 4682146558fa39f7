package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, employee_code, COALESCE(biometric_id, ''), full_name, role, employee_type,
	department_id, reporting_manager_id, is_active,
	paid_leave_balance, unpaid_leave_taken, compensatory_balance_hours,
	last_paid_leave_reset_at, last_monthly_leave_credit_at,
	created_at, updated_at
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.EmployeeCode, &emp.BiometricID, &emp.FullName, &emp.Role, &emp.EmployeeType,
		&emp.DepartmentID, &emp.ReportingManagerID, &emp.IsActive,
		&emp.PaidLeaveBalance, &emp.UnpaidLeaveTaken, &emp.CompensatoryBalanceHours,
		&emp.LastPaidLeaveResetAt, &emp.LastMonthlyLeaveCreditAt,
		&emp.CreatedAt, &emp.UpdatedAt,
	)
	return emp, err
}

func (e *employeeRepositoryImpl) getByID(ctx context.Context, id string, lock bool) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	if lock {
		query = forUpdate(ctx, query)
	}

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	entries, err := e.listEntries(ctx, emp.ID)
	if err != nil {
		return employee.Employee{}, err
	}
	emp.CompensatoryEntries = entries
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	return e.getByID(ctx, id, false)
}

// GetByIDForUpdate implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (employee.Employee, error) {
	return e.getByID(ctx, id, true)
}

func (e *employeeRepositoryImpl) listEntries(ctx context.Context, employeeID string) ([]employee.CompensatoryEntry, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, employee_id, entry_date, hours, status, source_request_id, consumed_by_request_id,
			   created_at, updated_at
		FROM compensatory_entries
		WHERE employee_id = $1
		ORDER BY entry_date, created_at
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list compensatory entries: %w", err)
	}
	defer rows.Close()

	var entries []employee.CompensatoryEntry
	for rows.Next() {
		var entry employee.CompensatoryEntry
		if err := rows.Scan(
			&entry.ID, &entry.EmployeeID, &entry.Date, &entry.Hours, &entry.Status,
			&entry.SourceRequestID, &entry.ConsumedByRequestID, &entry.CreatedAt, &entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan compensatory entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compensatory entries: %w", err)
	}
	return entries, nil
}

// ListActive implements employee.EmployeeRepository. Entries are not loaded;
// the roster is only used to resolve identities.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE is_active ORDER BY employee_code`
	return e.list(ctx, query)
}

// ListByRole implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListByRole(ctx context.Context, role employee.Role, departmentID *string) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE is_active AND role = $1 AND ($2::uuid IS NULL OR department_id = $2)
		ORDER BY employee_code`
	return e.list(ctx, query, role, departmentID)
}

func (e *employeeRepositoryImpl) list(ctx context.Context, query string, args ...interface{}) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}
	return employees, nil
}

// SaveLedger implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) SaveLedger(ctx context.Context, emp employee.Employee) error {
	return WithTransaction(ctx, e.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, e.db)

		query := `
			UPDATE employees SET
				paid_leave_balance = $2,
				unpaid_leave_taken = $3,
				compensatory_balance_hours = $4,
				last_paid_leave_reset_at = $5,
				last_monthly_leave_credit_at = $6,
				updated_at = NOW()
			WHERE id = $1
		`
		tag, err := q.Exec(ctx, query,
			emp.ID,
			emp.PaidLeaveBalance,
			emp.UnpaidLeaveTaken,
			emp.CompensatoryBalanceHours,
			emp.LastPaidLeaveResetAt,
			emp.LastMonthlyLeaveCreditAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update employee ledger: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return employee.ErrEmployeeNotFound
		}

		entryQuery := `
			INSERT INTO compensatory_entries (
				id, employee_id, entry_date, hours, status, source_request_id, consumed_by_request_id,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				consumed_by_request_id = EXCLUDED.consumed_by_request_id,
				updated_at = EXCLUDED.updated_at
		`
		for _, entry := range emp.CompensatoryEntries {
			if _, err := q.Exec(ctx, entryQuery,
				entry.ID,
				emp.ID,
				entry.Date,
				entry.Hours,
				entry.Status,
				entry.SourceRequestID,
				entry.ConsumedByRequestID,
				entry.CreatedAt,
				entry.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to save compensatory entry %s: %w", entry.ID, err)
			}
		}
		return nil
	})
}

type departmentRepositoryImpl struct {
	db *database.DB
}

func NewDepartmentRepository(db *database.DB) employee.DepartmentRepository {
	return &departmentRepositoryImpl{db: db}
}

// GetByID implements employee.DepartmentRepository.
func (d *departmentRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Department, error) {
	q := GetQuerier(ctx, d.db)

	var dept employee.Department
	err := q.QueryRow(ctx, `SELECT id, code, name FROM departments WHERE id = $1`, id).Scan(&dept.ID, &dept.Code, &dept.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Department{}, employee.ErrDepartmentNotFound
		}
		return employee.Department{}, fmt.Errorf("failed to get department by id: %w", err)
	}
	return dept, nil
}
