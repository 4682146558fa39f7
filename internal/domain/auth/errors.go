package auth

import "github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/apperror"

var (
	ErrInvalidToken      = apperror.New(apperror.CodeAuthorization, "invalid or expired token")
	ErrRoleNotPermitted  = apperror.New(apperror.CodeAuthorization, "your role cannot access this resource")
	ErrMissingEmployeeID = apperror.New(apperror.CodeAuthorization, "token carries no employee")
)
