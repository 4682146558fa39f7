package request

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
)

// FlowStep is one row of a kind's approval chain.
type FlowStep struct {
	Stage  Stage
	Action Action
}

var flows = map[Kind][]FlowStep{
	KindLeave: {
		{Stage: StageHOD, Action: ActionDecide},
		{Stage: StageAdmin, Action: ActionDecide},
		{Stage: StageCEO, Action: ActionDecide},
	},
	KindOvertimeClaim: {
		{Stage: StageAdmin, Action: ActionDecide},
		{Stage: StageCEO, Action: ActionDecide},
		{Stage: StageAdmin, Action: ActionAcknowledge},
	},
	KindOutdoorDuty: {
		{Stage: StageHOD, Action: ActionDecide},
		{Stage: StageAdmin, Action: ActionDecide},
		{Stage: StageCEO, Action: ActionDecide},
	},
}

var pendingStates = []State{StateStage1Pending, StateStage2Pending, StateStage3Pending}

// Flow returns the approval chain for kind.
func Flow(kind Kind) ([]FlowStep, error) {
	flow, ok := flows[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return flow, nil
}

// NewSteps builds the chain for a request submitted by someone with the given
// role. Decide steps at or below the submitter's rank are skipped.
// Acknowledge steps always stay pending.
func NewSteps(kind Kind, submitter employee.Role) (Steps, error) {
	flow, err := Flow(kind)
	if err != nil {
		return nil, err
	}

	steps := make(Steps, 0, len(flow))
	for _, fs := range flow {
		status := StepPending
		if fs.Action == ActionDecide && fs.Stage.Role().Rank() <= submitter.Rank() {
			status = StepSkipped
		}
		steps = append(steps, Step{Stage: fs.Stage, Action: fs.Action, Status: status})
	}
	return steps, nil
}

// Actor is the employee acting on a request.
type Actor struct {
	ID           string
	Role         employee.Role
	DepartmentID string
}

// Outcome describes what a transition did.
type Outcome struct {
	Step     Step
	Terminal bool
	// Succeeded is set when the request entered approved or acknowledged.
	Succeeded bool
	// Next is the step now waiting, if any.
	Next *Step
}

// CurrentStep returns the index of the first pending step, or -1.
func (r *Request) CurrentStep() int {
	if r.State.IsTerminal() {
		return -1
	}
	for i, step := range r.Steps {
		if step.Status == StepPending {
			return i
		}
	}
	return -1
}

// RefreshState derives State from the step statuses.
func (r *Request) RefreshState() {
	for _, step := range r.Steps {
		if step.Status == StepRejected {
			r.State = StateRejected
			return
		}
	}

	for i, step := range r.Steps {
		if step.Status == StepPending {
			if i < len(pendingStates) {
				r.State = pendingStates[i]
			} else {
				r.State = StateStage3Pending
			}
			return
		}
	}

	r.State = StateApproved
	if n := len(r.Steps); n > 0 && r.Steps[n-1].Status == StepAcknowledged {
		r.State = StateAcknowledged
	}
}

// CanAct reports whether actor holds the current step. It applies the same
// rules as Transition without changing r.
func (r *Request) CanAct(actor Actor) bool {
	_, err := r.actionable(actor)
	return err == nil
}

func (r *Request) actionable(actor Actor) (int, error) {
	idx := r.CurrentStep()
	if idx < 0 {
		return -1, ErrRequestClosed
	}

	step := r.Steps[idx]
	if step.Stage.Role() != actor.Role {
		return -1, ErrStageNotActionable
	}
	if step.Stage == StageHOD && actor.DepartmentID != r.DepartmentID {
		return -1, ErrOutsideDepartment
	}
	return idx, nil
}

// Transition applies actor's decision to the current step.
func (r *Request) Transition(actor Actor, decision Decision, reason string, at time.Time) (Outcome, error) {
	idx, err := r.actionable(actor)
	if err != nil {
		return Outcome{}, err
	}

	step := &r.Steps[idx]
	var status StepStatus
	switch {
	case step.Action == ActionDecide && decision == DecisionApprove:
		status = StepApproved
	case step.Action == ActionDecide && decision == DecisionReject:
		if reason == "" {
			return Outcome{}, ErrRejectionReasonRequired
		}
		status = StepRejected
	case step.Action == ActionAcknowledge && decision == DecisionAcknowledge:
		status = StepAcknowledged
	default:
		return Outcome{}, ErrInvalidDecision
	}

	actorID := actor.ID
	step.Status = status
	step.ActorID = &actorID
	step.DecidedAt = &at
	if reason != "" {
		step.Reason = &reason
	}

	r.RefreshState()
	r.UpdatedAt = at

	out := Outcome{Step: *step, Terminal: r.State.IsTerminal(), Succeeded: r.State.IsSuccess()}
	if out.Terminal {
		r.ClosedAt = &at
	} else if next := r.CurrentStep(); next >= 0 {
		s := r.Steps[next]
		out.Next = &s
	}
	return out, nil
}
