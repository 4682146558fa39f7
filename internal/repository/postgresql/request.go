package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type requestRepository struct {
	db *database.DB
}

func NewRequestRepository(db *database.DB) request.RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `
	id, employee_id, submitted_by, department_id, submitter_role, kind, state, steps, payload,
	payable_amount, ledger_applied_at, version, created_at, updated_at, closed_at
`

func scanRequest(row pgx.Row) (request.Request, error) {
	var (
		r       request.Request
		payload []byte
	)
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.SubmittedBy, &r.DepartmentID, &r.SubmitterRole, &r.Kind, &r.State, &r.Steps, &payload,
		&r.PayableAmount, &r.LedgerAppliedAt, &r.Version, &r.CreatedAt, &r.UpdatedAt, &r.ClosedAt,
	)
	if err != nil {
		return request.Request{}, err
	}
	if err := r.SetPayload(payload); err != nil {
		return request.Request{}, fmt.Errorf("failed to decode %s payload: %w", r.Kind, err)
	}
	return r, nil
}

// indexColumns derives the columns the covering and claim lookups filter on.
func indexColumns(r request.Request) (rangeStart, rangeEnd, claimDate *time.Time) {
	switch {
	case r.Leave != nil:
		return &r.Leave.StartDate, &r.Leave.EndDate, nil
	case r.OutdoorDuty != nil:
		return &r.OutdoorDuty.DateOut, &r.OutdoorDuty.DateIn, nil
	case r.Overtime != nil:
		return nil, nil, &r.Overtime.Date
	}
	return nil, nil, nil
}

// Create implements request.RequestRepository.
func (rr *requestRepository) Create(ctx context.Context, r request.Request) (request.Request, error) {
	q := GetQuerier(ctx, rr.db)

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	payload, err := json.Marshal(r.Payload())
	if err != nil {
		return request.Request{}, fmt.Errorf("failed to encode payload: %w", err)
	}
	rangeStart, rangeEnd, claimDate := indexColumns(r)

	query := `
		INSERT INTO requests (
			id, employee_id, submitted_by, department_id, submitter_role, kind, state, steps, payload,
			range_start, range_end, claim_date, payable_amount, ledger_applied_at, version, closed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, $15)
		RETURNING ` + requestColumns

	created, err := scanRequest(q.QueryRow(ctx, query,
		r.ID,
		r.EmployeeID,
		r.SubmittedBy,
		r.DepartmentID,
		r.SubmitterRole,
		r.Kind,
		r.State,
		r.Steps,
		payload,
		rangeStart,
		rangeEnd,
		claimDate,
		r.PayableAmount,
		r.LedgerAppliedAt,
		r.ClosedAt,
	))
	if err != nil {
		if isUniqueViolation(err, "idx_requests_one_claim_per_day") {
			return request.Request{}, request.ErrOvertimeClaimExists
		}
		return request.Request{}, fmt.Errorf("failed to create request: %w", err)
	}
	return created, nil
}

func (rr *requestRepository) getByID(ctx context.Context, id string, lock bool) (request.Request, error) {
	q := GetQuerier(ctx, rr.db)

	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	if lock {
		query = forUpdate(ctx, query)
	}

	r, err := scanRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return request.Request{}, request.ErrRequestNotFound
		}
		return request.Request{}, fmt.Errorf("failed to get request by id: %w", err)
	}
	return r, nil
}

// GetByID implements request.RequestRepository.
func (rr *requestRepository) GetByID(ctx context.Context, id string) (request.Request, error) {
	return rr.getByID(ctx, id, false)
}

// GetByIDForUpdate implements request.RequestRepository.
func (rr *requestRepository) GetByIDForUpdate(ctx context.Context, id string) (request.Request, error) {
	return rr.getByID(ctx, id, true)
}

// Update implements request.RequestRepository.
func (rr *requestRepository) Update(ctx context.Context, r request.Request) (request.Request, error) {
	q := GetQuerier(ctx, rr.db)

	payload, err := json.Marshal(r.Payload())
	if err != nil {
		return request.Request{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `
		UPDATE requests SET
			state = $3,
			steps = $4,
			payload = $5,
			payable_amount = $6,
			ledger_applied_at = $7,
			closed_at = $8,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING ` + requestColumns

	updated, err := scanRequest(q.QueryRow(ctx, query,
		r.ID,
		r.Version,
		r.State,
		r.Steps,
		payload,
		r.PayableAmount,
		r.LedgerAppliedAt,
		r.ClosedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := rr.GetByID(ctx, r.ID); getErr != nil {
				return request.Request{}, getErr
			}
			return request.Request{}, request.ErrVersionConflict
		}
		return request.Request{}, fmt.Errorf("failed to update request: %w", err)
	}
	return updated, nil
}

func (rr *requestRepository) list(ctx context.Context, query string, args ...interface{}) ([]request.Request, error) {
	q := GetQuerier(ctx, rr.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var out []request.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}
	return out, nil
}

// ListByEmployee implements request.RequestRepository.
func (rr *requestRepository) ListByEmployee(ctx context.Context, employeeID string) ([]request.Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM requests
		WHERE employee_id = $1
		ORDER BY created_at DESC`
	return rr.list(ctx, query, employeeID)
}

// ListOpen implements request.RequestRepository.
func (rr *requestRepository) ListOpen(ctx context.Context) ([]request.Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM requests
		WHERE state NOT IN ('approved', 'rejected', 'acknowledged')
		ORDER BY created_at`
	return rr.list(ctx, query)
}

// FindOvertimeClaim implements request.RequestRepository.
func (rr *requestRepository) FindOvertimeClaim(ctx context.Context, employeeID string, date time.Time) (*request.Request, error) {
	q := GetQuerier(ctx, rr.db)

	query := `SELECT ` + requestColumns + `
		FROM requests
		WHERE kind = 'overtime_claim' AND employee_id = $1 AND claim_date = $2
		LIMIT 1`

	r, err := scanRequest(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find overtime claim: %w", err)
	}
	return &r, nil
}

// ListApprovedCovering implements request.RequestRepository.
func (rr *requestRepository) ListApprovedCovering(ctx context.Context, date time.Time) ([]request.Request, error) {
	query := `SELECT ` + requestColumns + `
		FROM requests
		WHERE state = 'approved'
		  AND kind IN ('leave', 'outdoor_duty')
		  AND range_start <= $1 AND range_end >= $1`
	return rr.list(ctx, query, date)
}
