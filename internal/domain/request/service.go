package request

import "context"

type ApprovalService interface {
	SubmitLeave(ctx context.Context, req SubmitLeaveRequest) (RequestResponse, error)
	SubmitOvertime(ctx context.Context, req SubmitOvertimeRequest) (RequestResponse, error)
	SubmitOutdoorDuty(ctx context.Context, req SubmitOutdoorDutyRequest) (RequestResponse, error)

	// Decide applies an approver's decision to the request's current step.
	Decide(ctx context.Context, req DecisionRequest) (RequestResponse, error)

	Get(ctx context.Context, id string) (RequestResponse, error)

	// GetFor is Get limited to what viewerID may see.
	GetFor(ctx context.Context, id, viewerID string) (RequestResponse, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]RequestResponse, error)

	// ListAwaiting returns open requests whose current step the actor can act on.
	ListAwaiting(ctx context.Context, actorID string) ([]RequestResponse, error)
}
