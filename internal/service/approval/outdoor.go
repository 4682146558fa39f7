package approval

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
)

func (s *Service) SubmitOutdoorDuty(ctx context.Context, req request.SubmitOutdoorDutyRequest) (request.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return request.RequestResponse{}, err
	}

	emp, err := s.submitter(ctx, req.EmployeeID)
	if err != nil {
		return request.RequestResponse{}, err
	}

	payload := req.Payload()
	if err := s.checkOverlap(ctx, emp.ID, request.KindOutdoorDuty, payload.Range(), notRejected); err != nil {
		return request.RequestResponse{}, err
	}

	r, err := s.create(ctx, emp, request.KindOutdoorDuty, func(r *request.Request) {
		r.OutdoorDuty = &payload
	})
	if err != nil {
		return request.RequestResponse{}, err
	}
	return request.NewRequestResponse(r), nil
}

// settleOutdoorDuty marks each day of the duty present unless punches
// already produced a record for it.
func (s *Service) settleOutdoorDuty(ctx context.Context, r *request.Request) error {
	p := r.OutdoorDuty
	if p == nil {
		return request.ErrUnknownKind
	}

	for _, day := range p.Range().Days() {
		existing, err := s.attendance.GetByEmployeeAndDateForUpdate(ctx, r.EmployeeID, day)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}
		if existing != nil && existing.Status == attendance.StatusPresent {
			continue
		}

		rec := attendance.Attendance{EmployeeID: r.EmployeeID, LogDate: day}
		if existing != nil {
			rec = *existing
		}
		rec.Status = attendance.StatusPresent
		rec.Source = attendance.SourceOutdoorDuty
		if _, err := s.attendance.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("failed to record outdoor duty attendance: %w", err)
		}
	}
	return nil
}
