package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/config"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/overtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	windows [][2]time.Time
	absent  []time.Time
	sweeps  int
	closed  bool
}

func (f *fakeRunner) SyncWindow(ctx context.Context, from, to time.Time) (attendance.SyncResult, error) {
	f.windows = append(f.windows, [2]time.Time{from, to})
	return attendance.SyncResult{Fetched: 3, Folded: 2}, nil
}

func (f *fakeRunner) MarkAbsentOn(ctx context.Context, date time.Time) (attendance.MarkAbsentResult, error) {
	f.absent = append(f.absent, date)
	return attendance.MarkAbsentResult{Marked: 1, Covered: 2}, nil
}

func (f *fakeRunner) SweepNow(ctx context.Context) (overtime.SweepResult, error) {
	f.sweeps++
	return overtime.SweepResult{Evaluated: 1, Forfeited: 1}, nil
}

func run(t *testing.T, runner *fakeRunner, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Timezone = "UTC"
	cfg.JWT.Secret = "cli-secret"
	cfg.Schedule.SyncLookbackDays = 2

	var out bytes.Buffer
	env := &Env{
		Config: cfg,
		Open: func(*config.Config) (Runner, func(), error) {
			return runner, func() { runner.closed = true }, nil
		},
		Now: func() time.Time { return time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC) },
		Out: &out,
	}

	cmd := NewRootCmd(env)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestSync_DefaultWindow(t *testing.T) {
	runner := &fakeRunner{}
	out, err := run(t, runner, "sync")
	require.NoError(t, err)

	require.Len(t, runner.windows, 1)
	assert.Equal(t, utils.Date(2025, 3, 8), runner.windows[0][0])
	assert.Equal(t, utils.Date(2025, 3, 10), runner.windows[0][1])
	assert.True(t, runner.closed)

	var res attendance.SyncResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Folded)
}

func TestSync_ExplicitRange(t *testing.T) {
	runner := &fakeRunner{}
	_, err := run(t, runner, "sync", "--from", "2025-02-01", "--to", "2025-02-03")
	require.NoError(t, err)
	require.Len(t, runner.windows, 1)
	assert.Equal(t, utils.Date(2025, 2, 1), runner.windows[0][0])
}

func TestSync_InvalidRangeNeverOpensEngine(t *testing.T) {
	runner := &fakeRunner{}
	_, err := run(t, runner, "sync", "--from", "2025-02-03", "--to", "2025-02-01")
	assert.Error(t, err)
	assert.Empty(t, runner.windows)
	assert.False(t, runner.closed)
}

func TestMarkAbsent(t *testing.T) {
	runner := &fakeRunner{}
	_, err := run(t, runner, "mark-absent")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{utils.Date(2025, 3, 9)}, runner.absent)

	_, err = run(t, runner, "mark-absent", "--date", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, utils.Date(2025, 3, 1), runner.absent[1])

	_, err = run(t, runner, "mark-absent", "--date", "March 1")
	assert.Error(t, err)
}

func TestSweep(t *testing.T) {
	runner := &fakeRunner{}
	out, err := run(t, runner, "sweep")
	require.NoError(t, err)
	assert.Equal(t, 1, runner.sweeps)
	assert.Contains(t, out, `"forfeited": 1`)
}

func TestToken(t *testing.T) {
	out, err := run(t, &fakeRunner{}, "token", "--employee", "emp-1", "--role", "hod")
	require.NoError(t, err)

	var tok tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &tok))
	decoded, err := jwt.NewJWTService("cli-secret").JWTAuth().Decode(tok.Token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims["employee_id"])
	assert.Equal(t, "hod", claims["role"])

	_, err = run(t, &fakeRunner{}, "token", "--employee", "emp-1", "--role", "owner")
	assert.Error(t, err)
}
