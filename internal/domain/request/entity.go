package request

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindLeave         Kind = "leave"
	KindOvertimeClaim Kind = "overtime_claim"
	KindOutdoorDuty   Kind = "outdoor_duty"
)

// Stage is one approver tier.
type Stage string

const (
	StageHOD   Stage = "hod"
	StageAdmin Stage = "admin"
	StageCEO   Stage = "ceo"
)

// Role is the login type allowed to act on the stage.
func (s Stage) Role() employee.Role {
	return employee.Role(s)
}

type Action string

const (
	ActionDecide      Action = "decide"
	ActionAcknowledge Action = "acknowledge"
)

type StepStatus string

const (
	StepPending      StepStatus = "pending"
	StepApproved     StepStatus = "approved"
	StepRejected     StepStatus = "rejected"
	StepAcknowledged StepStatus = "acknowledged"
	StepSkipped      StepStatus = "skipped"
)

type State string

const (
	StateStage1Pending State = "stage1_pending"
	StateStage2Pending State = "stage2_pending"
	StateStage3Pending State = "stage3_pending"
	StateApproved      State = "approved"
	StateRejected      State = "rejected"
	StateAcknowledged  State = "acknowledged"
)

func (s State) IsTerminal() bool {
	return s == StateApproved || s == StateRejected || s == StateAcknowledged
}

// IsSuccess reports whether s is a terminal state that unlocks the ledger mutation.
func (s State) IsSuccess() bool {
	return s == StateApproved || s == StateAcknowledged
}

type Decision string

const (
	DecisionApprove     Decision = "approve"
	DecisionReject      Decision = "reject"
	DecisionAcknowledge Decision = "acknowledge"
)

type LeaveType string

const (
	LeaveTypePaid         LeaveType = "paid"
	LeaveTypeUnpaid       LeaveType = "unpaid"
	LeaveTypeCompensatory LeaveType = "compensatory"
)

type Duration string

const (
	DurationFullDay Duration = "full_day"
	DurationHalfDay Duration = "half_day"
)

// Hours is the compensatory time a single day of this duration consumes.
func (d Duration) Hours() int {
	if d == DurationHalfDay {
		return 4
	}
	return 8
}

// Track is how approved overtime is compensated.
type Track string

const (
	TrackCompensatory Track = "compensatory"
	TrackPayment      Track = "payment"
)

type Step struct {
	Stage     Stage      `json:"stage"`
	Action    Action     `json:"action"`
	Status    StepStatus `json:"status"`
	ActorID   *string    `json:"actor_id,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// Steps is the ordered approval chain, stored as JSONB.
type Steps []Step

func (s Steps) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *Steps) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Steps: invalid type")
	}

	return json.Unmarshal(bytes, s)
}

type LeavePayload struct {
	LeaveType           LeaveType       `json:"leave_type"`
	Duration            Duration        `json:"duration"`
	StartDate           time.Time       `json:"start_date"`
	EndDate             time.Time       `json:"end_date"`
	Reason              string          `json:"reason"`
	ChargeHandoverTo    string          `json:"charge_handover_to"`
	CompensatoryEntryID *string         `json:"compensatory_entry_id,omitempty"`
	Days                decimal.Decimal `json:"days"`
	Hours               int             `json:"hours,omitempty"`
}

func (p LeavePayload) Range() utils.DateRange {
	return utils.NewDateRange(p.StartDate, p.EndDate)
}

type OvertimePayload struct {
	Date         time.Time `json:"date"`
	Hours        int       `json:"hours"`
	ProjectNotes string    `json:"project_notes"`
	Track        Track     `json:"track"`
}

type OutdoorDutyPayload struct {
	DateOut time.Time `json:"date_out"`
	DateIn  time.Time `json:"date_in"`
	Purpose string    `json:"purpose"`
}

func (p OutdoorDutyPayload) Range() utils.DateRange {
	return utils.NewDateRange(p.DateOut, p.DateIn)
}

// Request is a leave, overtime claim or outdoor duty request. Exactly one
// payload matching Kind is set.
type Request struct {
	ID            string
	EmployeeID    string
	SubmittedBy   string
	DepartmentID  string
	SubmitterRole employee.Role
	Kind          Kind
	Steps         Steps
	State         State

	Leave       *LeavePayload
	Overtime    *OvertimePayload
	OutdoorDuty *OutdoorDutyPayload

	PayableAmount   *decimal.Decimal
	LedgerAppliedAt *time.Time
	Version         int

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// Payload returns the kind-specific payload as one value, used for storage.
func (r Request) Payload() interface{} {
	switch r.Kind {
	case KindLeave:
		return r.Leave
	case KindOvertimeClaim:
		return r.Overtime
	case KindOutdoorDuty:
		return r.OutdoorDuty
	}
	return nil
}

// SetPayload decodes raw into the payload field for r.Kind.
func (r *Request) SetPayload(raw []byte) error {
	switch r.Kind {
	case KindLeave:
		r.Leave = &LeavePayload{}
		return json.Unmarshal(raw, r.Leave)
	case KindOvertimeClaim:
		r.Overtime = &OvertimePayload{}
		return json.Unmarshal(raw, r.Overtime)
	case KindOutdoorDuty:
		r.OutdoorDuty = &OutdoorDutyPayload{}
		return json.Unmarshal(raw, r.OutdoorDuty)
	}
	return ErrUnknownKind
}

// Covers reports whether an approved leave or outdoor duty includes date.
func (r Request) Covers(date time.Time) bool {
	switch {
	case r.Leave != nil:
		return r.Leave.Range().Contains(date)
	case r.OutdoorDuty != nil:
		return r.OutdoorDuty.Range().Contains(date)
	}
	return false
}

// Approval is the per-stage view of the decide steps.
type Approval struct {
	HOD   StepStatus `json:"hod"`
	Admin StepStatus `json:"admin"`
	CEO   StepStatus `json:"ceo"`
}

func (r Request) Approval() Approval {
	var a Approval
	for _, step := range r.Steps {
		if step.Action != ActionDecide {
			continue
		}
		switch step.Stage {
		case StageHOD:
			a.HOD = step.Status
		case StageAdmin:
			a.Admin = step.Status
		case StageCEO:
			a.CEO = step.Status
		}
	}
	return a
}
