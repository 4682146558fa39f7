package notification

import "github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/apperror"

// Notification domain errors
var (
	ErrQueueFull = apperror.New(apperror.CodeInternal, "notification queue is full")
)
