package approval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

// Ledger is the set of balance operations requests trigger.
type Ledger interface {
	CheckBalance(ctx context.Context, employeeID string, days decimal.Decimal) error
	Deduct(ctx context.Context, employeeID string, days decimal.Decimal) (employee.Employee, error)
	CreditUnpaid(ctx context.Context, employeeID string, days decimal.Decimal) (employee.Employee, error)
	CheckCompensatoryHeadroom(ctx context.Context, employeeID string, hours int) error
	CreditCompensatory(ctx context.Context, employeeID string, hours int, date time.Time, sourceRequestID *string) (employee.CompensatoryEntry, error)
	CheckCompensatoryEntry(ctx context.Context, employeeID, entryID string, hours int) error
	ConsumeCompensatory(ctx context.Context, employeeID, entryID string, hours int, requestID string) (employee.Employee, error)
	CheckConsecutivePaidFor(ctx context.Context, employeeID string, candidate utils.DateRange, excludeRequestID string) error
}

// OvertimePolicy decides the compensation track and claim window.
type OvertimePolicy interface {
	Track(departmentCode string) request.Track
	CheckClaim(track request.Track, date, now time.Time) error
	PayableAmount(hours int) decimal.Decimal
}

// Service drives requests through their approval chain.
type Service struct {
	tx          database.Transactor
	employees   employee.EmployeeRepository
	departments employee.DepartmentRepository
	requests    request.RequestRepository
	attendance  attendance.AttendanceRepository
	ledger      Ledger
	overtime    OvertimePolicy
	notifier    notification.Notifier
	location    *time.Location
	now         func() time.Time
}

func NewService(
	tx database.Transactor,
	employees employee.EmployeeRepository,
	departments employee.DepartmentRepository,
	requests request.RequestRepository,
	attendanceRepo attendance.AttendanceRepository,
	ledger Ledger,
	overtime OvertimePolicy,
	notifier notification.Notifier,
	location *time.Location,
) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		tx:          tx,
		employees:   employees,
		departments: departments,
		requests:    requests,
		attendance:  attendanceRepo,
		ledger:      ledger,
		overtime:    overtime,
		notifier:    notifier,
		location:    location,
		now:         time.Now,
	}
}

func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) clock() time.Time {
	return s.now().In(s.location)
}

func (s *Service) submitter(ctx context.Context, employeeID string) (employee.Employee, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if !emp.IsActive {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

// create stores a new request and, when no stage is left to act on, settles
// it in the same transaction.
func (s *Service) create(ctx context.Context, emp employee.Employee, kind request.Kind, fill func(r *request.Request)) (request.Request, error) {
	steps, err := request.NewSteps(kind, emp.Role)
	if err != nil {
		return request.Request{}, err
	}

	now := s.clock()
	r := request.Request{
		EmployeeID:    emp.ID,
		SubmittedBy:   emp.ID,
		DepartmentID:  emp.DepartmentID,
		SubmitterRole: emp.Role,
		Kind:          kind,
		Steps:         steps,
	}
	fill(&r)
	r.RefreshState()
	if r.State.IsTerminal() {
		r.ClosedAt = &now
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		created, err := s.requests.Create(ctx, r)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if created.State.IsSuccess() {
			if err := s.settle(ctx, &created, now); err != nil {
				return err
			}
			if created, err = s.requests.Update(ctx, created); err != nil {
				return fmt.Errorf("failed to update request: %w", err)
			}
		}
		r = created
		return nil
	})
	if err != nil {
		return request.Request{}, err
	}

	if r.State.IsTerminal() {
		s.notifySubmitter(ctx, r, nil)
	} else if idx := r.CurrentStep(); idx >= 0 {
		s.notifyPool(ctx, r, r.Steps[idx])
	}
	return r, nil
}

func (s *Service) Decide(ctx context.Context, req request.DecisionRequest) (request.RequestResponse, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if err := req.Validate(); err != nil {
		return request.RequestResponse{}, err
	}

	actorEmp, err := s.employees.GetByID(ctx, req.ActorID)
	if err != nil {
		return request.RequestResponse{}, fmt.Errorf("failed to get acting employee: %w", err)
	}
	actor := request.Actor{ID: actorEmp.ID, Role: actorEmp.Role, DepartmentID: actorEmp.DepartmentID}

	var (
		r       request.Request
		outcome request.Outcome
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, req.RequestID)
		if err != nil {
			return fmt.Errorf("failed to get request: %w", err)
		}

		now := s.clock()
		outcome, err = locked.Transition(actor, request.Decision(req.Decision), req.Reason, now)
		if err != nil {
			return err
		}

		if outcome.Succeeded {
			if err := s.settle(ctx, &locked, now); err != nil {
				return err
			}
		}

		if r, err = s.requests.Update(ctx, locked); err != nil {
			return fmt.Errorf("failed to update request: %w", err)
		}
		return nil
	})
	if err != nil {
		return request.RequestResponse{}, err
	}

	slog.Info("Approval: decision recorded",
		"request_id", r.ID, "kind", r.Kind, "stage", outcome.Step.Stage,
		"status", outcome.Step.Status, "actor_id", actor.ID, "state", r.State)

	if outcome.Terminal {
		s.notifySubmitter(ctx, r, &outcome.Step)
	} else if outcome.Next != nil {
		s.notifyPool(ctx, r, *outcome.Next)
	}
	return request.NewRequestResponse(r), nil
}

// settle applies the kind's ledger mutation once. It runs inside the
// transaction that moves r into terminal success.
func (s *Service) settle(ctx context.Context, r *request.Request, now time.Time) error {
	if r.LedgerAppliedAt != nil {
		return nil
	}

	var err error
	switch r.Kind {
	case request.KindLeave:
		err = s.settleLeave(ctx, r)
	case request.KindOvertimeClaim:
		err = s.settleOvertime(ctx, r)
	case request.KindOutdoorDuty:
		err = s.settleOutdoorDuty(ctx, r)
	default:
		err = request.ErrUnknownKind
	}
	if err != nil {
		return err
	}

	r.LedgerAppliedAt = &now
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (request.RequestResponse, error) {
	r, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return request.RequestResponse{}, fmt.Errorf("failed to get request: %w", err)
	}
	return request.NewRequestResponse(r), nil
}

// GetFor returns the request when viewerID may see it: the owner, admins and
// the CEO, and the HOD of the request's department. Anyone else gets
// ErrRequestNotFound.
func (s *Service) GetFor(ctx context.Context, id, viewerID string) (request.RequestResponse, error) {
	r, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return request.RequestResponse{}, fmt.Errorf("failed to get request: %w", err)
	}
	if r.EmployeeID == viewerID {
		return request.NewRequestResponse(r), nil
	}

	viewer, err := s.employees.GetByID(ctx, viewerID)
	if err != nil {
		return request.RequestResponse{}, fmt.Errorf("failed to get viewer: %w", err)
	}
	switch viewer.Role {
	case employee.RoleAdmin, employee.RoleCEO:
		return request.NewRequestResponse(r), nil
	case employee.RoleHOD:
		if viewer.DepartmentID == r.DepartmentID {
			return request.NewRequestResponse(r), nil
		}
	}
	return request.RequestResponse{}, request.ErrRequestNotFound
}

func (s *Service) ListForEmployee(ctx context.Context, employeeID string) ([]request.RequestResponse, error) {
	reqs, err := s.requests.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return toResponses(reqs), nil
}

func (s *Service) ListAwaiting(ctx context.Context, actorID string) ([]request.RequestResponse, error) {
	emp, err := s.employees.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get acting employee: %w", err)
	}
	actor := request.Actor{ID: emp.ID, Role: emp.Role, DepartmentID: emp.DepartmentID}

	open, err := s.requests.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open requests: %w", err)
	}

	var awaiting []request.Request
	for i := range open {
		if open[i].CanAct(actor) {
			awaiting = append(awaiting, open[i])
		}
	}
	return toResponses(awaiting), nil
}

func toResponses(reqs []request.Request) []request.RequestResponse {
	out := make([]request.RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, request.NewRequestResponse(r))
	}
	return out
}
