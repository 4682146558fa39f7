package employee

import "context"

type EmployeeRepository interface {
	// GetByID returns the employee with compensatory entries ordered by date.
	GetByID(ctx context.Context, id string) (Employee, error)

	// GetByIDForUpdate is GetByID holding a row lock until the surrounding
	// transaction ends. Every ledger mutation goes through it.
	GetByIDForUpdate(ctx context.Context, id string) (Employee, error)

	// ListActive returns the active roster, used to resolve biometric IDs.
	ListActive(ctx context.Context) ([]Employee, error)

	// ListByRole returns active employees with the given login type, optionally
	// limited to one department.
	ListByRole(ctx context.Context, role Role, departmentID *string) ([]Employee, error)

	// SaveLedger persists balance fields, watermarks and compensatory entries.
	SaveLedger(ctx context.Context, emp Employee) error
}

type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (Department, error)
}
