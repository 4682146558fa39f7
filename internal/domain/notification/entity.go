package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeApprovalRequired     NotificationType = "approval_required"
	TypeRequestApproved      NotificationType = "request_approved"
	TypeRequestRejected      NotificationType = "request_rejected"
	TypeRequestAcknowledged  NotificationType = "request_acknowledged"
	TypeCompensatoryCredited NotificationType = "compensatory_credited"
	TypeOvertimeForfeited    NotificationType = "overtime_forfeited"
)

// Notification represents a notification entity
type Notification struct {
	ID          string
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	CreatedAt   time.Time
}
