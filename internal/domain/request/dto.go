package request

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// SUBMISSION DTOs
// ========================================

type SubmitLeaveRequest struct {
	EmployeeID          string  `json:"-"`
	LeaveType           string  `json:"leave_type" validate:"required,oneof=paid unpaid compensatory"`
	Duration            string  `json:"duration" validate:"required,oneof=full_day half_day"`
	StartDate           string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate             string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason              string  `json:"reason" validate:"required,max=500"`
	ChargeHandoverTo    string  `json:"charge_handover_to" validate:"max=100"`
	CompensatoryEntryID *string `json:"compensatory_entry_id"`
}

func (r *SubmitLeaveRequest) Validate() error {
	if validator.IsEmpty(r.EmployeeID) {
		return validator.Field("employee_id", "employee_id is required")
	}
	if err := validator.Struct(r); err != nil {
		return err
	}

	var errs validator.ValidationErrors
	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	if end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	singleDay := start.Equal(end)
	if Duration(r.Duration) == DurationHalfDay && !singleDay {
		errs = append(errs, validator.ValidationError{
			Field:   "duration",
			Message: "half_day leave must start and end on the same date",
		})
	}

	if LeaveType(r.LeaveType) == LeaveTypeCompensatory {
		if r.CompensatoryEntryID == nil || validator.IsEmpty(*r.CompensatoryEntryID) {
			errs = append(errs, validator.ValidationError{
				Field:   "compensatory_entry_id",
				Message: "compensatory_entry_id is required for compensatory leave",
			})
		}
		if !singleDay {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: ErrCompensatoryDurationOneDay.Message,
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Payload converts a validated submission into the stored leave payload.
func (r *SubmitLeaveRequest) Payload() LeavePayload {
	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	p := LeavePayload{
		LeaveType:           LeaveType(r.LeaveType),
		Duration:            Duration(r.Duration),
		StartDate:           start,
		EndDate:             end,
		Reason:              r.Reason,
		ChargeHandoverTo:    r.ChargeHandoverTo,
		CompensatoryEntryID: r.CompensatoryEntryID,
	}

	if p.Duration == DurationHalfDay {
		p.Days = decimal.NewFromFloat(0.5)
	} else {
		p.Days = decimal.NewFromInt(int64(p.Range().Len()))
	}
	if p.LeaveType == LeaveTypeCompensatory {
		p.Hours = p.Duration.Hours()
	}
	return p
}

type SubmitOvertimeRequest struct {
	EmployeeID   string `json:"-"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Hours        int    `json:"hours" validate:"min=1,max=24"`
	ProjectNotes string `json:"project_notes" validate:"required,max=1000"`
}

func (r *SubmitOvertimeRequest) Validate() error {
	if validator.IsEmpty(r.EmployeeID) {
		return validator.Field("employee_id", "employee_id is required")
	}
	return validator.Struct(r)
}

func (r *SubmitOvertimeRequest) Payload(track Track) OvertimePayload {
	date, _ := validator.IsValidDate(r.Date)
	return OvertimePayload{
		Date:         date,
		Hours:        r.Hours,
		ProjectNotes: r.ProjectNotes,
		Track:        track,
	}
}

type SubmitOutdoorDutyRequest struct {
	EmployeeID string `json:"-"`
	DateOut    string `json:"date_out" validate:"required,datetime=2006-01-02"`
	DateIn     string `json:"date_in" validate:"required,datetime=2006-01-02"`
	Purpose    string `json:"purpose" validate:"required,max=500"`
}

func (r *SubmitOutdoorDutyRequest) Validate() error {
	if validator.IsEmpty(r.EmployeeID) {
		return validator.Field("employee_id", "employee_id is required")
	}
	if err := validator.Struct(r); err != nil {
		return err
	}
	out, _ := validator.IsValidDate(r.DateOut)
	in, _ := validator.IsValidDate(r.DateIn)
	if in.Before(out) {
		return validator.Field("date_in", "date_in must not be before date_out")
	}
	return nil
}

func (r *SubmitOutdoorDutyRequest) Payload() OutdoorDutyPayload {
	out, _ := validator.IsValidDate(r.DateOut)
	in, _ := validator.IsValidDate(r.DateIn)
	return OutdoorDutyPayload{DateOut: out, DateIn: in, Purpose: r.Purpose}
}

// ========================================
// DECISION DTOs
// ========================================

type DecisionRequest struct {
	RequestID string `json:"-"`
	ActorID   string `json:"-"`
	Decision  string `json:"decision" validate:"required,oneof=approve reject acknowledge"`
	Reason    string `json:"reason" validate:"max=500"`
}

func (r *DecisionRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.RequestID) {
		errs = append(errs, validator.ValidationError{Field: "request_id", Message: "request_id is required"})
	}
	if validator.IsEmpty(r.ActorID) {
		errs = append(errs, validator.ValidationError{Field: "actor_id", Message: "actor_id is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return validator.Struct(r)
}

// ========================================
// RESPONSE DTOs
// ========================================

type StepResponse struct {
	Stage     Stage      `json:"stage"`
	Action    Action     `json:"action"`
	Status    StepStatus `json:"status"`
	ActorID   *string    `json:"actor_id,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

type RequestResponse struct {
	ID            string           `json:"id"`
	EmployeeID    string           `json:"employee_id"`
	SubmittedBy   string           `json:"submitted_by"`
	DepartmentID  string           `json:"department_id"`
	Kind          Kind             `json:"kind"`
	State         State            `json:"state"`
	Approval      Approval         `json:"approval"`
	Steps         []StepResponse   `json:"steps"`
	Payload       interface{}      `json:"payload"`
	PayableAmount *decimal.Decimal `json:"payable_amount,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
}

func NewRequestResponse(r Request) RequestResponse {
	steps := make([]StepResponse, 0, len(r.Steps))
	for _, s := range r.Steps {
		steps = append(steps, StepResponse(s))
	}
	return RequestResponse{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		SubmittedBy:   r.SubmittedBy,
		DepartmentID:  r.DepartmentID,
		Kind:          r.Kind,
		State:         r.State,
		Approval:      r.Approval(),
		Steps:         steps,
		Payload:       r.Payload(),
		PayableAmount: r.PayableAmount,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		ClosedAt:      r.ClosedAt,
	}
}
