package request

import (
	"context"
	"time"
)

type RequestRepository interface {
	// Create stores a new request with version 1.
	Create(ctx context.Context, r Request) (Request, error)

	GetByID(ctx context.Context, id string) (Request, error)

	// GetByIDForUpdate is GetByID holding a row lock until the surrounding
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (Request, error)

	// Update writes r if the stored version still equals r.Version and
	// returns it with the version incremented. ErrVersionConflict otherwise.
	Update(ctx context.Context, r Request) (Request, error)

	// ListByEmployee returns the employee's requests, newest first.
	ListByEmployee(ctx context.Context, employeeID string) ([]Request, error)

	// ListOpen returns every non-terminal request, oldest first.
	ListOpen(ctx context.Context) ([]Request, error)

	// FindOvertimeClaim returns the employee's claim for date in any state,
	// or nil.
	FindOvertimeClaim(ctx context.Context, employeeID string, date time.Time) (*Request, error)

	// ListApprovedCovering returns approved leave and outdoor duty requests
	// whose range includes date.
	ListApprovedCovering(ctx context.Context, date time.Time) ([]Request, error)
}
