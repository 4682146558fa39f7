package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/service/overtime"
)

// AttendanceRunner triggers the guarded attendance runs on demand.
type AttendanceRunner interface {
	SyncWindow(ctx context.Context, from, to time.Time) (attendance.SyncResult, error)
	MarkAbsentOn(ctx context.Context, date time.Time) (attendance.MarkAbsentResult, error)
	SweepNow(ctx context.Context) (overtime.SweepResult, error)
}

type AttendanceHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)

	Sync(w http.ResponseWriter, r *http.Request)
	MarkAbsent(w http.ResponseWriter, r *http.Request)
	SweepOvertime(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	reconciler attendance.ReconcilerService
	runner     AttendanceRunner
}

func NewAttendanceHandler(reconciler attendance.ReconcilerService, runner AttendanceRunner) AttendanceHandler {
	return &attendanceHandlerImpl{
		reconciler: reconciler,
		runner:     runner,
	}
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	query := attendance.ListAttendanceQuery{
		EmployeeID: r.URL.Query().Get("employee_id"),
		From:       r.URL.Query().Get("from"),
		To:         r.URL.Query().Get("to"),
	}
	h.list(w, r, query)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	query := attendance.ListAttendanceQuery{
		EmployeeID: employeeIDFromContext(r),
		From:       r.URL.Query().Get("from"),
		To:         r.URL.Query().Get("to"),
	}
	h.list(w, r, query)
}

func (h *attendanceHandlerImpl) list(w http.ResponseWriter, r *http.Request, query attendance.ListAttendanceQuery) {
	if err := query.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.reconciler.List(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Sync implements AttendanceHandler.
func (h *attendanceHandlerImpl) Sync(w http.ResponseWriter, r *http.Request) {
	var req attendance.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Sync decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	from, _ := validator.IsValidDate(req.From)
	to, _ := validator.IsValidDate(req.To)
	result, err := h.runner.SyncWindow(r.Context(), from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Punches synchronized", result)
}

// MarkAbsent implements AttendanceHandler.
func (h *attendanceHandlerImpl) MarkAbsent(w http.ResponseWriter, r *http.Request) {
	var req attendance.MarkAbsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("MarkAbsent decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	date, _ := validator.IsValidDate(req.Date)
	result, err := h.runner.MarkAbsentOn(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Absences recorded", result)
}

// SweepOvertime implements AttendanceHandler.
func (h *attendanceHandlerImpl) SweepOvertime(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.SweepNow(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Overtime sweep completed", result)
}
