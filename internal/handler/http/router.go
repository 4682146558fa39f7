package http

import (
	"log/slog"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
}

type Handlers struct {
	Request      RequestHandler
	Balance      BalanceHandler
	Attendance   AttendanceHandler
	Notification NotificationHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Authenticated by the short-lived token in the query string
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Get("/notifications/sse-token", h.Notification.GetSSEToken)

			r.Route("/requests", func(r chi.Router) {
				r.Get("/", h.Request.ListMine)
				r.Post("/leave", h.Request.SubmitLeave)
				r.Post("/overtime", h.Request.SubmitOvertime)
				r.Post("/outdoor-duty", h.Request.SubmitOutdoorDuty)
				r.Get("/{id}", h.Request.Get)

				// Approvers only
				r.Group(func(r chi.Router) {
					r.Use(middleware.Approver)
					r.Get("/awaiting", h.Request.ListAwaiting)
					r.Post("/{id}/decision", h.Request.Decide)
				})
			})

			r.Get("/balances/me", h.Balance.GetMine)

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/me", h.Attendance.GetMyAttendance)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Get("/", h.Attendance.List)
					r.Post("/sync", h.Attendance.Sync)
					r.Post("/mark-absent", h.Attendance.MarkAbsent)
				})
			})

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)
				r.Get("/employees/{id}/balance", h.Balance.Get)
				r.Post("/overtime/sweep", h.Attendance.SweepOvertime)
			})
		})
	})
	return r
}
