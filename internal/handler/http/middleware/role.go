package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/auth"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireRole lets the request through when the token's role is one of roles.
func RequireRole(roles ...employee.Role) func(http.Handler) http.Handler {
	allowed := make(map[employee.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrRoleNotPermitted)
				return
			}

			roleStr, ok := claims["role"].(string)
			if !ok {
				response.HandleError(w, auth.ErrRoleNotPermitted)
				return
			}

			if _, ok := allowed[employee.Role(roleStr)]; !ok {
				response.HandleError(w, auth.ErrRoleNotPermitted)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly restricts operational endpoints to the admin role.
func AdminOnly(next http.Handler) http.Handler {
	return RequireRole(employee.RoleAdmin)(next)
}

// Approver admits any role that sits on an approval stage.
func Approver(next http.Handler) http.Handler {
	return RequireRole(employee.RoleHOD, employee.RoleAdmin, employee.RoleCEO)(next)
}
