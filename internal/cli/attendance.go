package cli

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
	"github.com/spf13/cobra"
)

func newSyncCmd(env *Env) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull punches for a date range and fold them into attendance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := utils.DateOf(env.Now(), env.Config.Location())
			req := attendance.SyncRequest{From: from, To: to}
			if req.To == "" {
				req.To = today.Format(utils.DateLayout)
			}
			if req.From == "" {
				req.From = today.AddDate(0, 0, -env.Config.Schedule.SyncLookbackDays).Format(utils.DateLayout)
			}
			if err := req.Validate(); err != nil {
				return err
			}

			start, _ := validator.IsValidDate(req.From)
			end, _ := validator.IsValidDate(req.To)
			return withRunner(cmd, env, func(ctx context.Context, r Runner) (interface{}, error) {
				return r.SyncWindow(ctx, start, end)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day to sync, YYYY-MM-DD (default: today minus the lookback)")
	cmd.Flags().StringVar(&to, "to", "", "Last day to sync, YYYY-MM-DD (default: today)")
	return cmd
}

func newSweepCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Settle overtime whose claim window has closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, env, func(ctx context.Context, r Runner) (interface{}, error) {
				return r.SweepNow(ctx)
			})
		},
	}
}

func newMarkAbsentCmd(env *Env) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "mark-absent",
		Short: "Record absences for a day with no punches, leave or outdoor duty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := attendance.MarkAbsentRequest{Date: date}
			if req.Date == "" {
				req.Date = utils.DateOf(env.Now(), env.Config.Location()).AddDate(0, 0, -1).Format(utils.DateLayout)
			}
			if err := req.Validate(); err != nil {
				return fmt.Errorf("--date: %w", err)
			}

			day, _ := validator.IsValidDate(req.Date)
			return withRunner(cmd, env, func(ctx context.Context, r Runner) (interface{}, error) {
				return r.MarkAbsentOn(ctx, day)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to mark, YYYY-MM-DD (default: yesterday)")
	return cmd
}
