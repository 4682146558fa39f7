package approval

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
)

func (s *Service) SubmitLeave(ctx context.Context, req request.SubmitLeaveRequest) (request.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return request.RequestResponse{}, err
	}

	emp, err := s.submitter(ctx, req.EmployeeID)
	if err != nil {
		return request.RequestResponse{}, err
	}

	payload := req.Payload()
	if err := s.admitLeave(ctx, emp, payload); err != nil {
		return request.RequestResponse{}, err
	}

	r, err := s.create(ctx, emp, request.KindLeave, func(r *request.Request) {
		r.Leave = &payload
	})
	if err != nil {
		return request.RequestResponse{}, err
	}
	return request.NewRequestResponse(r), nil
}

// admitLeave runs the checks a leave must pass before it enters the chain.
// They are repeated authoritatively when the leave is settled.
func (s *Service) admitLeave(ctx context.Context, emp employee.Employee, p request.LeavePayload) error {
	if err := s.checkOverlap(ctx, emp.ID, request.KindLeave, p.Range(), notRejected); err != nil {
		return err
	}

	switch p.LeaveType {
	case request.LeaveTypePaid:
		if err := s.ledger.CheckBalance(ctx, emp.ID, p.Days); err != nil {
			return err
		}
		return s.ledger.CheckConsecutivePaidFor(ctx, emp.ID, p.Range(), "")
	case request.LeaveTypeCompensatory:
		return s.ledger.CheckCompensatoryEntry(ctx, emp.ID, *p.CompensatoryEntryID, p.Hours)
	}
	return nil
}

// notRejected counts every request that may still end approved.
func notRejected(r request.Request) bool {
	return r.State != request.StateRejected
}

// checkOverlap fails when a request of kind selected by counts already covers
// part of rng.
func (s *Service) checkOverlap(ctx context.Context, employeeID string, kind request.Kind, rng utils.DateRange, counts func(request.Request) bool) error {
	existing, err := s.requests.ListByEmployee(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}
	for _, r := range existing {
		if r.Kind != kind || !counts(r) {
			continue
		}
		var other utils.DateRange
		switch {
		case r.Leave != nil:
			other = r.Leave.Range()
		case r.OutdoorDuty != nil:
			other = r.OutdoorDuty.Range()
		default:
			continue
		}
		if other.Overlaps(rng) {
			return fmt.Errorf("%w: request %s covers %s to %s", request.ErrOverlappingLeave, r.ID,
				other.Start.Format(utils.DateLayout), other.End.Format(utils.DateLayout))
		}
	}
	return nil
}

func (s *Service) settleLeave(ctx context.Context, r *request.Request) error {
	p := r.Leave
	if p == nil {
		return request.ErrUnknownKind
	}

	// Settlements for one employee queue on the employee row, so the checks
	// below see every approval committed before this one.
	if _, err := s.employees.GetByIDForUpdate(ctx, r.EmployeeID); err != nil {
		return fmt.Errorf("failed to lock employee: %w", err)
	}
	approvedOther := func(o request.Request) bool {
		return o.ID != r.ID && o.State == request.StateApproved
	}
	if err := s.checkOverlap(ctx, r.EmployeeID, request.KindLeave, p.Range(), approvedOther); err != nil {
		return err
	}

	switch p.LeaveType {
	case request.LeaveTypePaid:
		if err := s.ledger.CheckConsecutivePaidFor(ctx, r.EmployeeID, p.Range(), r.ID); err != nil {
			return err
		}
		if _, err := s.ledger.Deduct(ctx, r.EmployeeID, p.Days); err != nil {
			return fmt.Errorf("failed to deduct paid leave: %w", err)
		}
	case request.LeaveTypeUnpaid:
		if _, err := s.ledger.CreditUnpaid(ctx, r.EmployeeID, p.Days); err != nil {
			return fmt.Errorf("failed to record unpaid leave: %w", err)
		}
	case request.LeaveTypeCompensatory:
		if p.CompensatoryEntryID == nil {
			return employee.ErrCompensatoryEntryNotFound
		}
		if _, err := s.ledger.ConsumeCompensatory(ctx, r.EmployeeID, *p.CompensatoryEntryID, p.Hours, r.ID); err != nil {
			return fmt.Errorf("failed to consume compensatory entry: %w", err)
		}
	}
	return nil
}
