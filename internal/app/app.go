package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/config"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/punchsource"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/approval"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/ledger"
	notificationService "github.com/cmlabs-hris/hris-attendance-engine/internal/service/notification"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/overtime"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/reconciler"
	"github.com/go-chi/httplog/v3"
)

// App is the wired engine shared by the API server and the CLI.
type App struct {
	Config        *config.Config
	DB            *database.DB
	Hub           *sse.Hub
	Notifications notification.Service
	Ledger        *ledger.Service
	Approval      *approval.Service
	Reconciler    *reconciler.Service
	Sweeper       *overtime.Sweeper
	Jobs          *cron.AttendanceJobs

	closers []func()
}

// NewLogger builds the ECS-shaped JSON logger used across the service.
func NewLogger(cfg *config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-attendance-engine"),
		slog.String("env", cfg.App.Env),
	)
}

func New(cfg *config.Config) (*App, error) {
	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a := &App{Config: cfg, DB: db}
	a.closers = append(a.closers, db.Close)

	source, err := a.punchSource()
	if err != nil {
		a.Close()
		return nil, err
	}

	loc := cfg.Location()
	tx := postgresql.NewTransactor(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	departmentRepo := postgresql.NewDepartmentRepository(db)
	requestRepo := postgresql.NewRequestRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	rawPunchRepo := postgresql.NewRawPunchRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	a.Hub = sse.NewHub(cfg.Notification.StreamBuffer)
	a.Notifications = notificationService.NewNotificationService(notificationRepo, a.Hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.Workers,
		QueueSize:     cfg.Notification.QueueSize,
	})
	// Stop the workers before the pool goes away so queued batches land.
	a.closers = append(a.closers, a.Hub.Close, a.Notifications.Stop)

	a.Ledger = ledger.NewService(tx, employeeRepo, requestRepo, ledger.Policy{
		Accrual: ledger.AccrualPolicy{
			YearlyAllotment: cfg.Policy.PaidLeaveYearlyAllotment,
			MonthlyCredit:   cfg.Policy.PaidLeaveMonthlyCredit,
		},
		CompensatoryCeilingHours: cfg.Policy.CompensatoryCeilingHours,
		CompensatoryExpiryDays:   cfg.Policy.CompOffExpiryDays,
		Location:                 loc,
	})

	policy := overtime.NewPolicy(overtime.Config{
		EligibleDepartments: cfg.Policy.OTCompEligibleDepts,
		HourlyRate:          cfg.Policy.OTHourlyRate,
		Location:            loc,
	})
	a.Sweeper = overtime.NewSweeper(tx, attendanceRepo, employeeRepo, departmentRepo, requestRepo, a.Ledger, policy, a.Notifications)

	a.Approval = approval.NewService(tx, employeeRepo, departmentRepo, requestRepo, attendanceRepo, a.Ledger, policy, a.Notifications, loc)

	a.Reconciler = reconciler.NewService(tx, source, rawPunchRepo, attendanceRepo, employeeRepo, requestRepo, reconciler.Config{
		StandardWorkMinutes: cfg.Policy.StandardWorkMinutes,
		FetchTimeout:        cfg.PunchSource.Timeout,
		Location:            loc,
	})

	a.Jobs = cron.NewAttendanceJobs(a.Reconciler, a.Sweeper, cron.NewGuard(), cron.AttendanceJobsConfig{
		SyncInterval:     cfg.Schedule.SyncInterval,
		SweepInterval:    cfg.Schedule.SweepInterval,
		RunHour:          cfg.Schedule.RunHour,
		SyncLookbackDays: cfg.Schedule.SyncLookbackDays,
		Location:         loc,
	})

	return a, nil
}

func (a *App) punchSource() (attendance.PunchSource, error) {
	switch a.Config.PunchSource.Type {
	case "sqlite":
		src, err := punchsource.OpenSQLite(a.Config.PunchSource.Path)
		if err != nil {
			return nil, fmt.Errorf("opening punch database: %w", err)
		}
		a.closers = append(a.closers, func() { _ = src.Close() })
		return src, nil
	case "http":
		client := &http.Client{Timeout: a.Config.PunchSource.Timeout}
		return punchsource.NewHTTPSource(a.Config.PunchSource.URL, a.Config.PunchSource.Token, client), nil
	}
	return nil, fmt.Errorf("unsupported punch source %q", a.Config.PunchSource.Type)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
