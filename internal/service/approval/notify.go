package approval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
)

var kindTitles = map[request.Kind]string{
	request.KindLeave:         "Leave Request",
	request.KindOvertimeClaim: "Overtime Claim",
	request.KindOutdoorDuty:   "Outdoor Duty",
}

func requestData(r request.Request) map[string]interface{} {
	return map[string]interface{}{
		"request_id": r.ID,
		"kind":       string(r.Kind),
		"state":      string(r.State),
	}
}

// notifyPool tells everyone who can act on step that the request is waiting.
// HOD review goes to the request's department only.
func (s *Service) notifyPool(ctx context.Context, r request.Request, step request.Step) {
	if s.notifier == nil {
		return
	}

	var dept *string
	if step.Stage == request.StageHOD {
		dept = &r.DepartmentID
	}
	pool, err := s.employees.ListByRole(ctx, step.Stage.Role(), dept)
	if err != nil {
		slog.Error("Approval: failed to resolve approver pool",
			"request_id", r.ID, "stage", step.Stage, "error", err)
		return
	}

	action := "approval"
	if step.Action == request.ActionAcknowledge {
		action = "acknowledgement"
	}
	msg := notification.Message{
		Type:    notification.TypeApprovalRequired,
		Title:   kindTitles[r.Kind] + " Awaiting " + stageTitle(step.Stage),
		Message: fmt.Sprintf("A %s is waiting for your %s", kindTitles[r.Kind], action),
		Data:    requestData(r),
	}
	for _, approver := range pool {
		s.notifier.Notify(ctx, approver.ID, msg)
	}
}

// notifySubmitter reports a terminal outcome. step is the decision that
// closed the request, or nil when it closed at submission.
func (s *Service) notifySubmitter(ctx context.Context, r request.Request, step *request.Step) {
	if s.notifier == nil {
		return
	}

	msg := notification.Message{Data: requestData(r)}
	title := kindTitles[r.Kind]
	switch r.State {
	case request.StateApproved:
		msg.Type = notification.TypeRequestApproved
		msg.Title = title + " Approved"
		msg.Message = fmt.Sprintf("Your %s has been approved", title)
	case request.StateAcknowledged:
		msg.Type = notification.TypeRequestAcknowledged
		msg.Title = title + " Acknowledged"
		msg.Message = fmt.Sprintf("Your %s has been approved and acknowledged", title)
		if r.PayableAmount != nil {
			msg.Data["payable_amount"] = r.PayableAmount.String()
		}
	case request.StateRejected:
		msg.Type = notification.TypeRequestRejected
		msg.Title = title + " Rejected"
		msg.Message = fmt.Sprintf("Your %s has been rejected", title)
		if step != nil && step.Reason != nil {
			msg.Message += ": " + *step.Reason
			msg.Data["stage"] = string(step.Stage)
		}
	default:
		return
	}
	s.notifier.Notify(ctx, r.SubmittedBy, msg)
}

func stageTitle(stage request.Stage) string {
	switch stage {
	case request.StageHOD:
		return "HOD Review"
	case request.StageAdmin:
		return "Admin Review"
	case request.StageCEO:
		return "CEO Review"
	}
	return string(stage)
}
