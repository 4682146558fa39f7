package approval

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
)

func (s *Service) SubmitOvertime(ctx context.Context, req request.SubmitOvertimeRequest) (request.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return request.RequestResponse{}, err
	}

	emp, err := s.submitter(ctx, req.EmployeeID)
	if err != nil {
		return request.RequestResponse{}, err
	}
	dept, err := s.departments.GetByID(ctx, emp.DepartmentID)
	if err != nil {
		return request.RequestResponse{}, fmt.Errorf("failed to get department: %w", err)
	}

	payload := req.Payload(s.overtime.Track(dept.Code))
	if err := s.overtime.CheckClaim(payload.Track, payload.Date, s.clock()); err != nil {
		return request.RequestResponse{}, err
	}

	rec, err := s.attendance.GetByEmployeeAndDate(ctx, emp.ID, payload.Date)
	if err != nil {
		return request.RequestResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if rec == nil || rec.OTMinutes <= 0 {
		return request.RequestResponse{}, request.ErrNoOvertimeRecorded
	}
	if rec.OvertimeSettled() {
		return request.RequestResponse{}, request.ErrClaimWindowClosed
	}
	if recorded := rec.OvertimeHoursCeil(); payload.Hours > recorded {
		return request.RequestResponse{}, fmt.Errorf("%w: claimed %d hours, recorded %d", request.ErrClaimExceedsOvertime, payload.Hours, recorded)
	}

	existing, err := s.requests.FindOvertimeClaim(ctx, emp.ID, payload.Date)
	if err != nil {
		return request.RequestResponse{}, fmt.Errorf("failed to look up overtime claim: %w", err)
	}
	if existing != nil {
		return request.RequestResponse{}, request.ErrOvertimeClaimExists
	}

	if payload.Track == request.TrackCompensatory {
		if err := s.ledger.CheckCompensatoryHeadroom(ctx, emp.ID, payload.Hours); err != nil {
			return request.RequestResponse{}, err
		}
	}

	r, err := s.create(ctx, emp, request.KindOvertimeClaim, func(r *request.Request) {
		r.Overtime = &payload
	})
	if err != nil {
		return request.RequestResponse{}, err
	}
	return request.NewRequestResponse(r), nil
}

func (s *Service) settleOvertime(ctx context.Context, r *request.Request) error {
	p := r.Overtime
	if p == nil {
		return request.ErrUnknownKind
	}

	switch p.Track {
	case request.TrackCompensatory:
		id := r.ID
		if _, err := s.ledger.CreditCompensatory(ctx, r.EmployeeID, p.Hours, p.Date, &id); err != nil {
			return fmt.Errorf("failed to credit compensatory hours: %w", err)
		}
	case request.TrackPayment:
		amount := s.overtime.PayableAmount(p.Hours)
		r.PayableAmount = &amount
	}
	return nil
}
