package cli

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

type tokenOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// newTokenCmd mints an access token signed with the configured secret, for
// operators calling the API outside the identity service.
func newTokenCmd(env *Env) *cobra.Command {
	var (
		employeeID string
		role       string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := employee.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if employeeID == "" {
				return fmt.Errorf("--employee is required")
			}

			token, expiresAt, err := jwt.NewJWTService(env.Config.JWT.Secret).GenerateAccessToken(employeeID, r, ttl)
			if err != nil {
				return err
			}
			return printJSON(env.Out, tokenOutput{Token: token, ExpiresAt: time.Unix(expiresAt, 0).UTC()})
		},
	}

	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee ID the token is issued to")
	cmd.Flags().StringVar(&role, "role", string(employee.RoleAdmin), "Role claim: employee, hod, admin or ceo")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
