package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/app"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/config"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/overtime"
	"github.com/spf13/cobra"
)

// Runner is the set of guarded attendance runs the CLI can trigger.
type Runner interface {
	SyncWindow(ctx context.Context, from, to time.Time) (attendance.SyncResult, error)
	MarkAbsentOn(ctx context.Context, date time.Time) (attendance.MarkAbsentResult, error)
	SweepNow(ctx context.Context) (overtime.SweepResult, error)
}

// Env carries what the commands need. Open is only called by commands that
// touch the database.
type Env struct {
	Config *config.Config
	Open   func(cfg *config.Config) (Runner, func(), error)
	Now    func() time.Time
	Out    io.Writer
}

func openEngine(cfg *config.Config) (Runner, func(), error) {
	engine, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return engine.Jobs, engine.Close, nil
}

// NewRootCmd builds the attendctl command tree. cfg is loaded lazily when
// env.Config is nil.
func NewRootCmd(env *Env) *cobra.Command {
	if env.Open == nil {
		env.Open = openEngine
	}
	if env.Now == nil {
		env.Now = time.Now
	}
	if env.Out == nil {
		env.Out = os.Stdout
	}

	root := &cobra.Command{
		Use:   "attendctl",
		Short: "Operate the attendance engine from the command line",
		Long: `attendctl triggers the attendance runs the scheduler normally performs:
pulling punches from the time clock, marking absences and settling
unclaimed overtime.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if env.Config != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			env.Config = cfg
			slog.SetDefault(app.NewLogger(cfg))
			return nil
		},
	}

	root.AddCommand(newSyncCmd(env))
	root.AddCommand(newSweepCmd(env))
	root.AddCommand(newMarkAbsentCmd(env))
	root.AddCommand(newTokenCmd(env))
	return root
}

// Execute is the entry point called from main.
func Execute() {
	if err := NewRootCmd(&Env{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func withRunner(cmd *cobra.Command, env *Env, fn func(ctx context.Context, r Runner) (interface{}, error)) error {
	runner, closeFn, err := env.Open(env.Config)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := fn(cmd.Context(), runner)
	if err != nil {
		return err
	}
	return printJSON(env.Out, result)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
